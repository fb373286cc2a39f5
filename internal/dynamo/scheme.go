package dynamo

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

const (
	// windowHalfWidths is the half-size of a narrow-resonance window in units of Γ.
	windowHalfWidths = 5.0

	// edgeBins extends a window to the axis limit when it ends within this
	// many default bins of it.
	edgeBins = 50.0

	segmentEps = 1e-12
)

// segment is a stretch of one mass axis with its bin width.
type segment struct {
	lo, hi, bin float64
}

// narrowWindows returns the fine windows of the narrow resonances on the
// m13 and m23 axes, and whether any narrow resonance sits in m12.
func (e *Engine) narrowWindows() (m13, m23 []segment, m12 bool) {
	window := func(mass, width, lo, hi, defaultBin float64) segment {
		s := segment{
			lo:  mass - windowHalfWidths*width,
			hi:  mass + windowHalfWidths*width,
			bin: width / e.opts.BinningFactor,
		}
		if s.lo < lo+edgeBins*defaultBin {
			s.lo = lo
		}
		if s.hi > hi-edgeBins*defaultBin {
			s.hi = hi
		}
		return s
	}

	for _, r := range e.resonances {
		w := r.Width()
		if w <= 0 || w > e.opts.NarrowWidth {
			continue
		}
		lo, hi := e.kin.PairMassRange(r.Bachelor())
		if r.Mass() < lo || r.Mass() > hi {
			continue
		}
		fields := logrus.Fields{"name": r.Name(), "mass": r.Mass(), "width": w}
		switch r.Bachelor() {
		case 1:
			m23 = append(m23, window(r.Mass(), w, e.kin.M23Min(), e.kin.M23Max(), e.opts.M23BinWidth))
			log.WithFields(fields).Debug("narrow resonance in m23")
		case 2:
			m13 = append(m13, window(r.Mass(), w, e.kin.M13Min(), e.kin.M13Max(), e.opts.M13BinWidth))
			log.WithFields(fields).Debug("narrow resonance in m13")
		case 3:
			m12 = true
			log.WithFields(fields).Debug("narrow resonance in m12")
		}
	}

	if e.opts.Symmetric || e.opts.FullySymmetric {
		both13 := append(append([]segment(nil), m13...), m23...)
		both23 := append(append([]segment(nil), m23...), m13...)
		m13, m23 = both13, both23
	}
	return m13, m23, m12
}

// segments covers [lo, hi] with the windows and the gaps between them.
// Where windows overlap, the finer binning wins; gaps use defaultBin.
func segments(windows []segment, lo, hi, defaultBin float64) []segment {
	edges := []float64{lo, hi}
	for _, w := range windows {
		edges = append(edges, math.Max(lo, math.Min(hi, w.lo)), math.Max(lo, math.Min(hi, w.hi)))
	}
	sort.Float64s(edges)

	var out []segment
	for i := 0; i+1 < len(edges); i++ {
		a, b := edges[i], edges[i+1]
		if b-a <= segmentEps {
			continue
		}
		mid := 0.5 * (a + b)
		bin, covered := defaultBin, false
		for _, w := range windows {
			if mid < w.lo || mid > w.hi {
				continue
			}
			if !covered || w.bin < bin {
				bin = w.bin
			}
			covered = true
		}
		if n := len(out); n > 0 && out[n-1].bin == bin && math.Abs(out[n-1].hi-a) <= segmentEps {
			out[n-1].hi = b
			continue
		}
		out = append(out, segment{lo: a, hi: b, bin: bin})
	}
	return out
}

// buildScheme chooses the integration regions for the current resonances.
func (e *Engine) buildScheme() []Region {
	m13, m23, m12 := e.narrowWindows()

	if m12 || e.opts.ForceSquareDP {
		if !e.kin.SquareDP() {
			log.Warn("forcing kinematics to calculate the square-DP co-ordinates")
			e.kin.SetSquareDP(true)
		}
		log.WithFields(logrus.Fields{
			"mPrimeBin":     e.opts.MPrimeBinWidth,
			"thetaPrimeBin": e.opts.ThetaPrimeBinWidth,
		}).Info("integrating over the whole square DP")
		return []Region{{
			Min13: 0, Max13: 1, Min23: 0, Max23: 1,
			Bin13: e.opts.MPrimeBinWidth, Bin23: e.opts.ThetaPrimeBinWidth,
			SquareDP: true,
		}}
	}

	seg13 := segments(m13, e.kin.M13Min(), e.kin.M13Max(), e.opts.M13BinWidth)
	seg23 := segments(m23, e.kin.M23Min(), e.kin.M23Max(), e.opts.M23BinWidth)

	regions := make([]Region, 0, len(seg13)*len(seg23))
	for _, s13 := range seg13 {
		for _, s23 := range seg23 {
			regions = append(regions, Region{
				Min13: s13.lo, Max13: s13.hi,
				Min23: s23.lo, Max23: s23.hi,
				Bin13: s13.bin, Bin23: s23.bin,
			})
		}
	}

	if len(m13) == 0 && len(m23) == 0 {
		log.Info("no narrow resonances found, integrating over the whole DP")
	} else {
		log.WithFields(logrus.Fields{
			"m13Windows": len(m13),
			"m23Windows": len(m23),
			"regions":    len(regions),
		}).Info("narrow resonances found, integrating over partial regions")
	}
	return regions
}
