package lineshape

import (
	"math"

	"github.com/san-kum/dalitz/internal/barrier"
	"github.com/san-kum/dalitz/internal/kinematics"
)

// gsShape caches the pole quantities of the Gounaris-Sakurai shape.
type gsShape struct {
	stale      bool
	resR, parR float64

	q0, fr0, fp0 float64
	h0, dhdm0, d float64
}

func (r *Resonance) prepareGS() {
	s := r.gs
	m0 := r.mass
	m0Sq := m0 * m0
	mParSq := r.mParent * r.mParent
	mBachSq := r.mBach * r.mBach

	s.q0 = twoBodyMomentum(m0, r.mDaugA, r.mDaugB)

	var p0, pstar0 float64
	eBach := (mParSq - m0Sq - mBachSq) / (2.0 * m0)
	if t := eBach*eBach - mBachSq; eBach >= 0 && t >= 0 {
		p0 = math.Sqrt(t)
	}
	eStar := (mParSq + mBachSq - m0Sq) / (2.0 * r.mParent)
	if t := eStar*eStar - mBachSq; eStar >= 0 && t >= 0 {
		pstar0 = math.Sqrt(t)
	}
	erm0 := (mParSq + m0Sq - mBachSq) / (2.0 * r.mParent * m0)

	s.fr0, s.fp0 = 1.0, 1.0
	if r.resFactor != nil {
		s.fr0 = r.resFactor.Raw(s.q0)
		s.resR = r.resFactor.Radius()
	}
	if r.parFactor != nil {
		s.fp0 = r.parFactor.Raw(r.parFactor.BachelorMomentum(kinematics.PairKinematics{
			P: p0, PStar: pstar0, Erm: erm0,
		}))
		s.parR = r.parFactor.Radius()
	}

	q0 := s.q0
	logTerm := math.Log((m0 + 2.0*q0) / (2.0 * MPi))
	s.h0 = 2.0 / math.Pi * q0 / m0 * logTerm
	s.dhdm0 = s.h0*(1.0/(8.0*q0*q0)-1.0/(2.0*m0Sq)) + 1.0/(2.0*math.Pi*m0Sq)
	s.d = 3.0/math.Pi*MPi*MPi/(q0*q0)*logTerm +
		m0/(2.0*math.Pi*q0) -
		MPi*MPi*m0/(math.Pi*q0*q0*q0)
	s.stale = false
}

func (r *Resonance) gsAmp(pk kinematics.PairKinematics, spinTerm float64) complex128 {
	s := r.gs
	if s.stale || radiusMoved(r.resFactor, s.resR) || radiusMoved(r.parFactor, s.parR) {
		r.prepareGS()
	}

	m := pk.Mass
	if m < 1e-10 || s.q0 < 1e-30 {
		return 0
	}

	fr, fb := r.barrierFactors(pk)
	frRatio := fr / s.fr0
	fbRatio := fb / s.fp0

	m0 := r.mass
	m0Sq := m0 * m0
	q := pk.Q
	qRatio := q / s.q0
	totWidth := r.width * qRatio * qRatio * qRatio * (m0 / m) * frRatio * frRatio

	massSqTerm := m0Sq - m*m
	h := 2.0 / math.Pi * q / m * math.Log((m+2.0*q)/(2.0*MPi))
	f := r.width * m0Sq / (s.q0 * s.q0 * s.q0) * (q*q*(h-s.h0) + massSqTerm*s.q0*s.q0*s.dhdm0)

	re := massSqTerm + f
	im := m0 * totWidth
	denom := re*re + im*im
	if denom <= 0 {
		return 0
	}

	numer := spinTerm * (1.0 + s.d*r.width/m0)
	if !r.ignoreBarrierScaling {
		numer *= frRatio * fbRatio
	}
	return complex(re*numer/denom, im*numer/denom)
}

func radiusMoved(f *barrier.Factor, cached float64) bool {
	return f != nil && f.Radius() != cached
}
