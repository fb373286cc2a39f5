package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/dalitz/internal/generator"
)

var (
	_ generator.Metric = (*Acceptance)(nil)
	_ generator.Metric = (*MeanEfficiency)(nil)
	_ generator.Metric = (*EnvelopeHeadroom)(nil)
	_ generator.Metric = (*EnvelopeRaises)(nil)
)

func TestAcceptance(t *testing.T) {
	m := NewAcceptance()
	if m.Value() != 0 {
		t.Errorf("expected 0 before any trial, got %f", m.Value())
	}

	m.Observe(generator.Trial{Accepted: true})
	m.Observe(generator.Trial{})
	m.Observe(generator.Trial{})
	m.Observe(generator.Trial{Accepted: true})

	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected acceptance 0.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestMeanEfficiencyIgnoresRejected(t *testing.T) {
	m := NewMeanEfficiency()

	m.Observe(generator.Trial{Accepted: true, Eff: 0.4})
	m.Observe(generator.Trial{Accepted: false, Eff: 0.0})
	m.Observe(generator.Trial{Accepted: true, Eff: 0.8})

	if math.Abs(m.Value()-0.6) > 1e-12 {
		t.Errorf("expected mean efficiency 0.6, got %f", m.Value())
	}
}

func TestEnvelopeHeadroom(t *testing.T) {
	m := NewEnvelopeHeadroom()

	m.Observe(generator.Trial{Value: 0.5, Envelope: 2})
	m.Observe(generator.Trial{Value: 1.0, Envelope: 2})
	m.Observe(generator.Trial{Value: 0.2, Envelope: 2})

	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected headroom 0.5, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Errorf("expected 0 after reset, got %f", m.Value())
	}
}

func TestEnvelopeRaises(t *testing.T) {
	m := NewEnvelopeRaises()

	m.Observe(generator.Trial{Raised: true})
	m.Observe(generator.Trial{})
	m.Observe(generator.Trial{Raised: true})

	if m.Value() != 2 {
		t.Errorf("expected 2 raises, got %f", m.Value())
	}
}
