package lineshape

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/san-kum/dalitz/internal/spline"
	"github.com/sirupsen/logrus"
)

// partialWave is a model-independent partial wave: two cubic splines in
// the pair mass, read as magnitude and phase or as real and imaginary parts.
type partialWave struct {
	knots   []float64
	first   *spline.Cubic1D
	second  *spline.Cubic1D
	magOnly bool // MagPhase when set
}

// PartialWaveConfig controls one spline of a partial wave.
type PartialWaveConfig struct {
	Type        spline.Type
	Left, Right spline.Boundary
	LeftGrad    float64
	RightGrad   float64
}

// DefaultPartialWaveConfig is a standard spline with not-a-knot ends.
func DefaultPartialWaveConfig() PartialWaveConfig {
	return PartialWaveConfig{Type: spline.Standard, Left: spline.NotAKnot, Right: spline.NotAKnot}
}

// knotSnapTolerance is the relative distance below which a knot counts as
// sitting on a kinematic limit.
const knotSnapTolerance = 1e-9

// checkKnots sorts the knots, rejects any outside [lo, hi] and adds the
// limits when missing. A knot within knotSnapTolerance of a limit is
// moved onto it. Values follow their knots; an inserted limit copies
// the value of its neighbour.
func checkKnots(knots, v1, v2 []float64, lo, hi float64) ([]float64, []float64, []float64, error) {
	if len(knots) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: no knots", ErrBadKnots)
	}
	n := len(knots)
	fill := func(v []float64) ([]float64, error) {
		if len(v) == 0 {
			out := make([]float64, n)
			for i := range out {
				out[i] = 1.0
			}
			return out, nil
		}
		if len(v) != n {
			return nil, fmt.Errorf("%w: %d values for %d knots", ErrBadKnots, len(v), n)
		}
		return append([]float64(nil), v...), nil
	}
	a, err := fill(v1)
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := fill(v2)
	if err != nil {
		return nil, nil, nil, err
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return knots[idx[i]] < knots[idx[j]] })

	xs := make([]float64, 0, n+2)
	ys1 := make([]float64, 0, n+2)
	ys2 := make([]float64, 0, n+2)
	for _, i := range idx {
		xs = append(xs, knots[i])
		ys1 = append(ys1, a[i])
		ys2 = append(ys2, b[i])
	}

	// knots within rounding of a limit are moved onto it
	if math.Abs(xs[0]-lo) <= knotSnapTolerance*math.Abs(lo) {
		xs[0] = lo
	}
	if last := len(xs) - 1; math.Abs(xs[last]-hi) <= knotSnapTolerance*math.Abs(hi) {
		xs[last] = hi
	}

	if xs[0] < lo {
		return nil, nil, nil, fmt.Errorf("%w: knot %g below lower limit %g", ErrBadKnots, xs[0], lo)
	}
	if xs[len(xs)-1] > hi {
		return nil, nil, nil, fmt.Errorf("%w: knot %g above upper limit %g", ErrBadKnots, xs[len(xs)-1], hi)
	}
	if xs[0] != lo {
		xs = append([]float64{lo}, xs...)
		ys1 = append([]float64{ys1[0]}, ys1...)
		ys2 = append([]float64{ys2[0]}, ys2...)
	}
	if xs[len(xs)-1] != hi {
		xs = append(xs, hi)
		ys1 = append(ys1, ys1[len(ys1)-1])
		ys2 = append(ys2, ys2[len(ys2)-1])
	}
	return xs, ys1, ys2, nil
}

func newPartialWave(kind Kind, knots, v1, v2 []float64, lo, hi float64, c1, c2 PartialWaveConfig) (*partialWave, error) {
	xs, ys1, ys2, err := checkKnots(knots, v1, v2, lo, hi)
	if err != nil {
		return nil, err
	}
	first, err := spline.NewCubic1D(xs, ys1, c1.Type, c1.Left, c1.Right, c1.LeftGrad, c1.RightGrad)
	if err != nil {
		return nil, err
	}
	second, err := spline.NewCubic1D(xs, ys2, c2.Type, c2.Left, c2.Right, c2.LeftGrad, c2.RightGrad)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"knots": len(xs), "lo": lo, "hi": hi}).Debug("partial wave knots defined")
	return &partialWave{knots: xs, first: first, second: second, magOnly: kind == MIPWMagPhase}, nil
}

// Knots returns the knot masses of a partial wave, nil for other kinds.
func (r *Resonance) Knots() []float64 {
	if r.mipw == nil {
		return nil
	}
	return append([]float64(nil), r.mipw.knots...)
}

// KnotValues returns the current spline values at the knots.
func (r *Resonance) KnotValues() (v1, v2 []float64) {
	if r.mipw == nil {
		return nil, nil
	}
	return r.mipw.first.Values(), r.mipw.second.Values()
}

// SetKnotValues replaces the values at every knot, including the inserted
// limits. A nil slice leaves that spline unchanged.
func (r *Resonance) SetKnotValues(v1, v2 []float64) error {
	if r.mipw == nil {
		return fmt.Errorf("lineshape: %s is not a partial wave", r.name)
	}
	if v1 != nil {
		if err := r.mipw.first.UpdateYValues(v1); err != nil {
			return err
		}
	}
	if v2 != nil {
		if err := r.mipw.second.UpdateYValues(v2); err != nil {
			return err
		}
	}
	r.revision++
	return nil
}

func (r *Resonance) partialWaveAmp(pk kinematics.PairKinematics, spinTerm float64) complex128 {
	w := r.mipw
	m := pk.Mass
	// absorb rounding at the kinematic limits
	if lo := w.knots[0]; m < lo && lo-m < 1e-9 {
		m = lo
	}
	if hi := w.knots[len(w.knots)-1]; m > hi && m-hi < 1e-9 {
		m = hi
	}
	a := w.first.Evaluate(m)
	b := w.second.Evaluate(m)

	var amp complex128
	if w.magOnly {
		amp = complex(a*math.Cos(b), a*math.Sin(b))
	} else {
		amp = complex(a, b)
	}
	return amp * complex(spinTerm, 0)
}
