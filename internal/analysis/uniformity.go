package analysis

import (
	"errors"

	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"
)

var log = logrus.WithField("pkg", "analysis")

// ErrTooFewBins is returned when fewer than two bins lie inside the DP or
// none of them has entries.
var ErrTooFewBins = errors.New("analysis: not enough populated bins inside the DP")

// minExpected is the expected count below which the chi-square
// approximation is flagged as unreliable.
const minExpected = 5

type ChiSquareResult struct {
	ChiSquare float64
	NDF       int
	PValue    float64
	Bins      int
	Expected  float64
}

// binInside reports whether all four corners of the bin are in the DP. The
// conventional DP is convex, so the whole bin is then inside.
func binInside(h *Histogram2D, kin *kinematics.Kinematics, ix, iy int) bool {
	x0, x1, y0, y1 := h.BinEdges(ix, iy)
	return kin.WithinDPLimits(x0, y0) && kin.WithinDPLimits(x1, y0) &&
		kin.WithinDPLimits(x0, y1) && kin.WithinDPLimits(x1, y1)
}

// UniformityChiSquare tests the (m13², m23²) histogram h against a flat
// distribution over the bins lying entirely inside the DP. The expected
// count per bin is the mean over those bins.
func UniformityChiSquare(h *Histogram2D, kin *kinematics.Kinematics) (ChiSquareResult, error) {
	var observed []float64
	for iy := 0; iy < h.NY; iy++ {
		for ix := 0; ix < h.NX; ix++ {
			if binInside(h, kin, ix, iy) {
				observed = append(observed, h.At(ix, iy))
			}
		}
	}

	total := 0.0
	for _, o := range observed {
		total += o
	}
	if len(observed) < 2 || total == 0 {
		return ChiSquareResult{Bins: len(observed)}, ErrTooFewBins
	}

	expected := total / float64(len(observed))
	chi2 := 0.0
	for _, o := range observed {
		d := o - expected
		chi2 += d * d / expected
	}

	ndf := len(observed) - 1
	res := ChiSquareResult{
		ChiSquare: chi2,
		NDF:       ndf,
		PValue:    distuv.ChiSquared{K: float64(ndf)}.Survival(chi2),
		Bins:      len(observed),
		Expected:  expected,
	}
	if expected < minExpected {
		log.WithField("expected", expected).Warn("few entries per bin, chi-square p-value is approximate")
	}
	return res, nil
}
