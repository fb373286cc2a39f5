package lineshape

import (
	"math"

	"github.com/san-kum/dalitz/internal/kinematics"
)

// relBWShape caches the pole quantities of a relativistic Breit-Wigner.
type relBWShape struct {
	stale bool
	resR  float64

	q0  float64
	fr0 float64
}

func (r *Resonance) prepareRelBW() {
	s := r.bw
	minM := r.mDaugA + r.mDaugB
	m0 := r.mass

	// A pole below threshold is given an effective mass inside the
	// kinematic range so that q0 stays defined.
	if m0 < minM {
		maxM := r.mParent - r.mBach
		tanhTerm := math.Tanh((m0 - 0.5*(minM+maxM)) / (maxM - minM))
		m0 = minM + (maxM-minM)*(1.0+tanhTerm)*0.5
	}

	s.q0 = twoBodyMomentum(m0, r.mDaugA, r.mDaugB)
	s.fr0 = 1.0
	if r.spin > 0 && r.resFactor != nil {
		s.fr0 = r.resFactor.Raw(s.q0)
		s.resR = r.resFactor.Radius()
	}
	s.stale = false
}

func (r *Resonance) relBWAmp(pk kinematics.PairKinematics, spinTerm float64) complex128 {
	s := r.bw
	if s.stale || radiusMoved(r.resFactor, s.resR) {
		r.prepareRelBW()
	}

	m := pk.Mass
	if m < 1e-10 || s.q0 < 1e-30 {
		return 0
	}

	fr, fb := r.barrierFactors(pk)
	ratio := fr / s.fr0
	qTerm := math.Pow(pk.Q/s.q0, float64(2*r.spin+1))

	m0 := r.mass
	totWidth := r.width * qTerm * (m0 / m) * ratio * ratio
	massSqTerm := m0*m0 - m*m
	widthTerm := m0 * totWidth

	denom := massSqTerm*massSqTerm + widthTerm*widthTerm
	if denom <= 0 {
		return 0
	}

	scale := spinTerm / denom
	if !r.ignoreBarrierScaling {
		scale *= fr * fb
	}
	return complex(massSqTerm*scale, widthTerm*scale)
}
