package metrics

import (
	"math"

	"github.com/san-kum/dalitz/internal/generator"
)

// EnvelopeHeadroom is 1 - max/envelope at the last trial: how much of the
// envelope the largest value seen leaves unused. A small positive value
// means efficient sampling.
type EnvelopeHeadroom struct {
	name     string
	max      float64
	envelope float64
}

func NewEnvelopeHeadroom() *EnvelopeHeadroom {
	return &EnvelopeHeadroom{
		name: "envelope_headroom",
	}
}

func (e *EnvelopeHeadroom) Name() string { return e.name }

func (e *EnvelopeHeadroom) Observe(tr generator.Trial) {
	e.max = math.Max(e.max, tr.Value)
	e.envelope = tr.Envelope
}

func (e *EnvelopeHeadroom) Value() float64 {
	if e.envelope == 0 {
		return 0
	}
	return 1 - e.max/e.envelope
}

func (e *EnvelopeHeadroom) Reset() {
	e.max = 0
	e.envelope = 0
}

// EnvelopeRaises counts trials whose value exceeded the envelope.
type EnvelopeRaises struct {
	name   string
	raises int
}

func NewEnvelopeRaises() *EnvelopeRaises {
	return &EnvelopeRaises{
		name: "envelope_raises",
	}
}

func (e *EnvelopeRaises) Name() string { return e.name }

func (e *EnvelopeRaises) Observe(tr generator.Trial) {
	if tr.Raised {
		e.raises++
	}
}

func (e *EnvelopeRaises) Value() float64 { return float64(e.raises) }

func (e *EnvelopeRaises) Reset() { e.raises = 0 }
