// Package efficiency provides detection-efficiency models over the Dalitz
// plot: a constant, an arbitrary function and a bicubic-interpolated
// histogram.
package efficiency

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/san-kum/dalitz/internal/spline"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("pkg", "efficiency")

// Model returns the efficiency, in [0, 1], at a DP point.
type Model interface {
	Efficiency(p kinematics.Point) float64
}

// Constant is a flat efficiency.
type Constant float64

func (c Constant) Efficiency(kinematics.Point) float64 { return float64(c) }

// Func adapts a plain function to Model. Values are not clamped.
type Func func(p kinematics.Point) float64

func (f Func) Efficiency(p kinematics.Point) float64 { return f(p) }

// Histogram interpolates a 2D efficiency histogram with a bicubic spline.
// The axes are (m13², m23²), or (m′, θ′) when SquareDP is set. Values the
// interpolation pushes outside [0, 1] are clamped; the first clamp is
// logged and later ones only counted.
type Histogram struct {
	surface  *spline.Bicubic2D
	squareDP bool
	// useUpperHalf folds points with m13² > m23² onto the other half, for
	// histograms filled in one half of a symmetric DP.
	useUpperHalf bool

	warnOnce sync.Once
	clamped  atomic.Int64
}

// NewHistogram builds the interpolated model from grid.
func NewHistogram(grid spline.Grid, squareDP, useUpperHalf bool) (*Histogram, error) {
	surface, err := spline.NewBicubic2D(grid)
	if err != nil {
		return nil, fmt.Errorf("efficiency: %w", err)
	}
	log.WithFields(logrus.Fields{
		"nx":       grid.NX,
		"ny":       grid.NY,
		"squareDP": squareDP,
	}).Debug("efficiency histogram loaded")
	return &Histogram{surface: surface, squareDP: squareDP, useUpperHalf: useUpperHalf}, nil
}

// Efficiency returns the interpolated value at p, clamped to [0, 1].
func (h *Histogram) Efficiency(p kinematics.Point) float64 {
	x, y := p.M13Sq, p.M23Sq
	if h.squareDP {
		x, y = p.MPrime, p.ThetaPrime
	} else if h.useUpperHalf && x > y {
		x, y = y, x
	}

	v := h.surface.Evaluate(x, y)
	if v >= 0 && v <= 1 {
		return v
	}

	h.clamped.Add(1)
	h.warnOnce.Do(func() {
		log.WithFields(logrus.Fields{"x": x, "y": y, "value": v}).
			Warn("efficiency outside [0, 1], clamping; further occurrences are suppressed")
	})
	if v < 0 {
		return 0
	}
	return 1
}

// Clamped returns how many evaluations were clamped.
func (h *Histogram) Clamped() int64 { return h.clamped.Load() }

// Integral returns the closed-form integral of the surface over the full
// histogram range.
func (h *Histogram) Integral() float64 { return h.surface.Integral() }

// Surface exposes the underlying spline.
func (h *Histogram) Surface() *spline.Bicubic2D { return h.surface }
