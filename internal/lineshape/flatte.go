package lineshape

import (
	"fmt"
	"math"

	"github.com/san-kum/dalitz/internal/kinematics"
)

// flatteShape is the two-channel coupled width of f0(980), K*0(1430) and
// a0(980). The first channel is split over two thresholds weighted 1/3 and
// 2/3, the second over two thresholds weighted 1/2 each.
type flatteShape struct {
	g1, g2   float64
	mSumSq   [4]float64
	absorbM0 bool
	useAdler bool
	sA       float64
}

// flatteDefaults returns the coupled-channel setup and nominal mass for a
// state, or ErrUnsupportedFlatte.
func flatteDefaults(state string) (*flatteShape, float64, error) {
	sq := func(a, b float64) float64 { return (a + b) * (a + b) }

	switch state {
	case "f_0(980)":
		g1 := 0.165
		return &flatteShape{
			g1:       g1,
			g2:       4.21 * g1,
			mSumSq:   [4]float64{sq(MPi0, MPi0), sq(MPi, MPi), sq(MK, MK), sq(MK0, MK0)},
			absorbM0: true,
		}, 0.965, nil
	case "K*0_0(1430)", "K*+_0(1430)":
		s := &flatteShape{
			g1:       0.304,
			g2:       0.380,
			useAdler: true,
			sA:       0.234,
		}
		if state == "K*0_0(1430)" {
			s.mSumSq = [4]float64{sq(MK0, MPi0), sq(MK, MPi), sq(MK0, MEtaPrime), sq(MK0, MEtaPrime)}
		} else {
			s.mSumSq = [4]float64{sq(MK, MPi0), sq(MK0, MPi), sq(MK, MEtaPrime), sq(MK, MEtaPrime)}
		}
		return s, 1.513, nil
	case "a0_0(980)", "a+_0(980)":
		g1 := 0.324 * 0.324
		s := &flatteShape{
			g1:       g1,
			g2:       1.03 * g1,
			absorbM0: true,
		}
		if state == "a0_0(980)" {
			s.mSumSq = [4]float64{sq(MEta, MPi0), sq(MEta, MPi0), sq(MK, MK), sq(MK0, MK0)}
		} else {
			s.mSumSq = [4]float64{sq(MEta, MPi), sq(MEta, MPi), sq(MK, MK0), sq(MK, MK0)}
		}
		return s, 0.982, nil
	}
	return nil, 0, fmt.Errorf("%w: %q", ErrUnsupportedFlatte, state)
}

// Couplings returns g1 and g2 of a Flatté shape, zero for other kinds.
func (r *Resonance) Couplings() (g1, g2 float64) {
	if r.flatte == nil {
		return 0, 0
	}
	return r.flatte.g1, r.flatte.g2
}

// SetCouplings changes g1 and g2 of a Flatté shape.
func (r *Resonance) SetCouplings(g1, g2 float64) error {
	if r.flatte == nil {
		return fmt.Errorf("lineshape: %s is not a Flatté shape", r.name)
	}
	if g1 < 0 || g2 < 0 {
		return fmt.Errorf("lineshape: %s: couplings must not be negative", r.name)
	}
	if g1 == r.flatte.g1 && g2 == r.flatte.g2 {
		return nil
	}
	r.flatte.g1, r.flatte.g2 = g1, g2
	r.revision++
	return nil
}

func (r *Resonance) flatteAmp(pk kinematics.PairKinematics, spinTerm float64) complex128 {
	f := r.flatte
	m0 := r.mass
	m0Sq := m0 * m0
	s := pk.MassSq
	const w1, w2 = 1.0 / 3.0, 2.0 / 3.0

	// Below a threshold the channel momentum is imaginary and moves into
	// the real part of the denominator.
	dMSq := m0Sq - s
	var rho1, rho2 float64
	if s > f.mSumSq[0] {
		rho1 = w1 * math.Sqrt(1.0-f.mSumSq[0]/s)
		if s > f.mSumSq[1] {
			rho1 += w2 * math.Sqrt(1.0-f.mSumSq[1]/s)
			if s > f.mSumSq[2] {
				rho2 = 0.5 * math.Sqrt(1.0-f.mSumSq[2]/s)
				if s > f.mSumSq[3] {
					rho2 += 0.5 * math.Sqrt(1.0-f.mSumSq[3]/s)
				} else {
					dMSq += f.g2 * m0 * 0.5 * math.Sqrt(f.mSumSq[3]/s-1.0)
				}
			} else {
				dMSq += f.g2 * m0 * (0.5*math.Sqrt(f.mSumSq[2]/s-1.0) + 0.5*math.Sqrt(f.mSumSq[3]/s-1.0))
			}
		} else {
			dMSq += f.g1 * m0 * w2 * math.Sqrt(f.mSumSq[1]/s-1.0)
		}
	}

	massFactor := 1.0
	if !f.absorbM0 {
		massFactor = m0
	}
	if f.useAdler {
		massFactor *= (s - f.sA) / (m0Sq - f.sA)
	}
	widthTerm := (f.g1*rho1 + f.g2*rho2) * massFactor

	denom := dMSq*dMSq + widthTerm*widthTerm
	invDenom := 0.0
	if denom > 1e-10 {
		invDenom = 1.0 / denom
	}
	scale := spinTerm * invDenom
	return complex(dMSq*scale, widthTerm*scale)
}
