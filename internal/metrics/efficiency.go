package metrics

import "github.com/san-kum/dalitz/internal/generator"

// MeanEfficiency averages the efficiency of accepted events.
type MeanEfficiency struct {
	name    string
	sum     float64
	samples int
}

func NewMeanEfficiency() *MeanEfficiency {
	return &MeanEfficiency{
		name: "mean_efficiency",
	}
}

func (m *MeanEfficiency) Name() string {
	return m.name
}

func (m *MeanEfficiency) Observe(tr generator.Trial) {
	if !tr.Accepted {
		return
	}
	m.sum += tr.Eff
	m.samples++
}

func (m *MeanEfficiency) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanEfficiency) Reset() {
	m.sum = 0
	m.samples = 0
}
