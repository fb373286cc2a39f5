// Package spline provides cubic interpolation on a 1D knot list and a
// bicubic surface over a regular 2D histogram grid.
package spline

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("pkg", "spline")

// Type selects how knot derivatives are found.
type Type int

const (
	// Standard solves the tridiagonal system for C² continuity.
	Standard Type = iota
	// Akima uses locally weighted slopes, avoiding overshoot.
	Akima
	// Linear interpolates straight lines between knots.
	Linear
)

func (t Type) String() string {
	switch t {
	case Standard:
		return "standard"
	case Akima:
		return "akima"
	case Linear:
		return "linear"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Boundary is the end condition of a Standard spline.
type Boundary int

const (
	// Clamped fixes the first derivative to a supplied gradient.
	Clamped Boundary = iota
	// Natural sets the second derivative to zero.
	Natural
	// NotAKnot makes the third derivative continuous at the second
	// (or second to last) knot.
	NotAKnot
)

func (b Boundary) String() string {
	switch b {
	case Clamped:
		return "clamped"
	case Natural:
		return "natural"
	case NotAKnot:
		return "notaknot"
	}
	return fmt.Sprintf("Boundary(%d)", int(b))
}

// Cubic1D is a piecewise cubic Hermite interpolant through a set of knots.
type Cubic1D struct {
	x, y  []float64
	dydx  []float64
	typ   Type
	left  Boundary
	right Boundary

	leftGrad, rightGrad float64
}

// NewCubic1D builds a spline through (xs[i], ys[i]). The gradients are
// only used with Clamped boundaries.
func NewCubic1D(xs, ys []float64, typ Type, left, right Boundary, leftGrad, rightGrad float64) (*Cubic1D, error) {
	if len(xs) != len(ys) {
		return nil, ErrLengthMismatch
	}
	if len(xs) < 3 {
		return nil, ErrTooFewKnots
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, fmt.Errorf("%w: x[%d]=%g, x[%d]=%g", ErrKnotsNotIncreasing, i-1, xs[i-1], i, xs[i])
		}
	}

	s := &Cubic1D{
		x:         append([]float64(nil), xs...),
		y:         append([]float64(nil), ys...),
		dydx:      make([]float64, len(xs)),
		typ:       typ,
		left:      left,
		right:     right,
		leftGrad:  leftGrad,
		rightGrad: rightGrad,
	}
	s.calcDerivatives()
	return s, nil
}

// Knots returns a copy of the knot positions.
func (s *Cubic1D) Knots() []float64 { return append([]float64(nil), s.x...) }

// Values returns a copy of the knot values.
func (s *Cubic1D) Values() []float64 { return append([]float64(nil), s.y...) }

// UpdateYValues replaces the knot values and recomputes derivatives.
func (s *Cubic1D) UpdateYValues(ys []float64) error {
	if len(ys) != len(s.x) {
		return ErrLengthMismatch
	}
	copy(s.y, ys)
	s.calcDerivatives()
	return nil
}

// UpdateType switches the derivative scheme.
func (s *Cubic1D) UpdateType(typ Type) {
	if s.typ != typ {
		s.typ = typ
		s.calcDerivatives()
	}
}

// UpdateBoundaryConditions changes both end conditions.
func (s *Cubic1D) UpdateBoundaryConditions(left, right Boundary, leftGrad, rightGrad float64) {
	s.left, s.right = left, right
	s.leftGrad, s.rightGrad = leftGrad, rightGrad
	s.calcDerivatives()
}

// Evaluate returns the interpolated value at x. Outside the knot range it
// logs a warning and returns 0.
func (s *Cubic1D) Evaluate(x float64) float64 {
	i, ok := s.cell(x)
	if !ok {
		return 0
	}

	h := s.x[i+1] - s.x[i]
	dy := s.y[i+1] - s.y[i]
	if s.typ == Linear {
		return s.y[i] + dy*(x-s.x[i])/h
	}

	t := (x - s.x[i]) / h
	a := s.dydx[i]*h - dy
	b := -s.dydx[i+1]*h + dy
	return (1-t)*s.y[i] + t*s.y[i+1] + t*(1-t)*(a*(1-t)+b*t)
}

// Derivative returns dy/dx at x, or 0 outside the knot range.
func (s *Cubic1D) Derivative(x float64) float64 {
	i, ok := s.cell(x)
	if !ok {
		return 0
	}

	h := s.x[i+1] - s.x[i]
	dy := s.y[i+1] - s.y[i]
	if s.typ == Linear {
		return dy / h
	}

	t := (x - s.x[i]) / h
	a := s.dydx[i]*h - dy
	b := -s.dydx[i+1]*h + dy
	return (dy + (1-2*t)*(a*(1-t)+b*t) + t*(1-t)*(b-a)) / h
}

func (s *Cubic1D) cell(x float64) (int, bool) {
	n := len(s.x)
	if math.IsNaN(x) || x < s.x[0] || x > s.x[n-1] {
		log.WithFields(logrus.Fields{
			"x": x, "min": s.x[0], "max": s.x[n-1],
		}).Warn("spline evaluated outside knot range, returning 0")
		return 0, false
	}
	i := sort.SearchFloat64s(s.x, x)
	if i > 0 {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	return i, true
}

func (s *Cubic1D) calcDerivatives() {
	switch s.typ {
	case Akima:
		s.calcAkimaDerivatives()
	case Linear:
		for i := range s.dydx {
			s.dydx[i] = 0
		}
	default:
		s.calcStandardDerivatives()
	}
}

func (s *Cubic1D) calcStandardDerivatives() {
	n := len(s.x)
	h := make([]float64, n-1)
	delta := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		h[i] = s.x[i+1] - s.x[i]
		delta[i] = (s.y[i+1] - s.y[i]) / h[i]
	}

	// Three knots with not-a-knot at both ends leave a single cubic
	// piece, which is the interpolating parabola.
	if n == 3 && s.left == NotAKnot && s.right == NotAKnot {
		c2 := (delta[1] - delta[0]) / (h[0] + h[1])
		s.dydx[0] = delta[0] - c2*h[0]
		s.dydx[1] = delta[0] + c2*h[0]
		s.dydx[2] = delta[1] + c2*h[1]
		return
	}

	a := make([]float64, n) // sub-diagonal
	b := make([]float64, n) // diagonal
	c := make([]float64, n) // super-diagonal
	d := make([]float64, n)

	for i := 1; i < n-1; i++ {
		a[i] = 1.0 / h[i-1]
		b[i] = 2.0 * (1.0/h[i-1] + 1.0/h[i])
		c[i] = 1.0 / h[i]
		d[i] = 3.0 * (delta[i-1]/h[i-1] + delta[i]/h[i])
	}

	switch s.left {
	case Clamped:
		b[0], c[0], d[0] = 1, 0, s.leftGrad
	case Natural:
		b[0], c[0], d[0] = 2.0/h[0], 1.0/h[0], 3.0*delta[0]/h[0]
	case NotAKnot:
		sum := h[0] + h[1]
		b[0], c[0] = h[1], sum
		d[0] = ((h[0]+2.0*sum)*h[1]*delta[0] + h[0]*h[0]*delta[1]) / sum
	}

	m := n - 1
	switch s.right {
	case Clamped:
		a[m], b[m], d[m] = 0, 1, s.rightGrad
	case Natural:
		a[m], b[m], d[m] = 1.0/h[m-1], 2.0/h[m-1], 3.0*delta[m-1]/h[m-1]
	case NotAKnot:
		hl, hp := h[m-1], h[m-2]
		sum := hl + hp
		a[m], b[m] = sum, hp
		d[m] = (hl*hl*delta[m-2] + (2.0*sum+hl)*hp*delta[m-1]) / sum
	}

	copy(s.dydx, solveTridiagonal(a, b, c, d))
}

func (s *Cubic1D) calcAkimaDerivatives() {
	n := len(s.x)
	// Slopes padded by two on each side: m[k+2] is the slope of segment k.
	m := make([]float64, n+3)
	for k := 0; k < n-1; k++ {
		m[k+2] = (s.y[k+1] - s.y[k]) / (s.x[k+1] - s.x[k])
	}
	m[1] = 2.0*m[2] - m[3]
	m[0] = 2.0*m[1] - m[2]
	m[n+1] = 2.0*m[n] - m[n-1]
	m[n+2] = 2.0*m[n+1] - m[n]

	for i := 0; i < n; i++ {
		// Slopes around knot i: m[i], m[i+1] on the left, m[i+2], m[i+3] on the right.
		w1 := math.Abs(m[i+3] - m[i+2])
		w2 := math.Abs(m[i+1] - m[i])
		if w1+w2 == 0 {
			s.dydx[i] = 0.5 * (m[i+1] + m[i+2])
			continue
		}
		s.dydx[i] = (w1*m[i+1] + w2*m[i+2]) / (w1 + w2)
	}
}

// solveTridiagonal runs the Thomas algorithm. a[0] and c[n-1] are unused.
func solveTridiagonal(a, b, c, d []float64) []float64 {
	n := len(d)
	cp := make([]float64, n)
	dp := make([]float64, n)

	cp[0] = c[0] / b[0]
	dp[0] = d[0] / b[0]
	for i := 1; i < n; i++ {
		denom := b[i] - a[i]*cp[i-1]
		if i < n-1 {
			cp[i] = c[i] / denom
		}
		dp[i] = (d[i] - a[i]*dp[i-1]) / denom
	}

	x := make([]float64, n)
	x[n-1] = dp[n-1]
	for i := n - 2; i >= 0; i-- {
		x[i] = dp[i] - cp[i]*x[i+1]
	}
	return x
}
