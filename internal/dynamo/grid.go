package dynamo

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
)

// largeGrid is the point count above which a grid triggers a memory warning.
const largeGrid = 8000000

// Region is a rectangle of the integration scheme. Bounds are the masses
// m13 and m23, or m′ and θ′ for a square-DP region.
type Region struct {
	Min13, Max13 float64
	Min23, Max23 float64
	Bin13, Bin23 float64
	SquareDP     bool
}

// Area is the area of the rectangle in its own coordinates.
func (r Region) Area() float64 { return (r.Max13 - r.Min13) * (r.Max23 - r.Min23) }

// GridSummary describes one partial integration grid.
type GridSummary struct {
	Region
	N13, N23      int
	Inside        int
	WeightTotal13 float64
	WeightTotal23 float64

	// PhaseSpace is the sum of the weights of the points inside the DP, i.e.
	// the DP area covered by the region in (m13², m23²).
	PhaseSpace float64
}

// gridPoint caches everything evaluated at one abscissa pair. For
// conventional grids a and b are m13² and m23²; for square-DP grids they
// are m′ and θ′.
type gridPoint struct {
	a, b   float64
	weight float64
	eff    float64
	ff     []complex128
}

type grid struct {
	region   Region
	n13, n23 int
	w13, w23 float64
	points   []gridPoint
}

func nPoints(lo, hi, bin float64) int {
	n := int((hi - lo) / bin)
	if n < 1 {
		n = 1
	}
	return n
}

// newGrid lays out the Gauss-Legendre abscissae of r and keeps the points
// inside the DP, each weighted with the Jacobian back to (m13², m23²).
func newGrid(r Region, kin *kinematics.Kinematics, nAmp int, precision float64) *grid {
	g := &grid{
		region: r,
		n13:    nPoints(r.Min13, r.Max13, r.Bin13),
		n23:    nPoints(r.Min23, r.Max23, r.Bin23),
	}
	if g.n13*g.n23 > largeGrid {
		log.WithFields(logrus.Fields{"n13": g.n13, "n23": g.n23}).
			Warn("integration grid is very large; consider a larger narrow-width threshold or a smaller binning factor")
	}

	x13, w13 := make([]float64, g.n13), make([]float64, g.n13)
	x23, w23 := make([]float64, g.n23), make([]float64, g.n23)
	quad.Legendre{}.FixedLocations(x13, w13, r.Min13, r.Max13)
	quad.Legendre{}.FixedLocations(x23, w23, r.Min23, r.Max23)

	g.w13, g.w23 = floats.Sum(w13), floats.Sum(w23)
	if d := math.Abs(g.w13*g.w23 - r.Area()); d > precision*r.Area() {
		log.WithFields(logrus.Fields{"weights": g.w13 * g.w23, "area": r.Area()}).
			Warn("Gauss-Legendre weight total differs from region area")
	}

	for i, x := range x13 {
		for j, y := range x23 {
			w := w13[i] * w23[j]
			if r.SquareDP {
				if !kin.WithinSqDPLimits(x, y) {
					continue
				}
				g.points = append(g.points, gridPoint{a: x, b: y, weight: w * kin.CalcSqDPJacobian(x, y)})
				continue
			}
			m13Sq, m23Sq := x*x, y*y
			if !kin.WithinDPLimits(m13Sq, m23Sq) {
				continue
			}
			g.points = append(g.points, gridPoint{a: m13Sq, b: m23Sq, weight: w * 4.0 * x * y})
		}
	}
	for i := range g.points {
		g.points[i].ff = make([]complex128, nAmp)
	}

	log.WithFields(logrus.Fields{
		"n13":      g.n13,
		"n23":      g.n23,
		"inside":   len(g.points),
		"squareDP": r.SquareDP,
	}).Debug("integration grid created")
	return g
}

func (g *grid) point(kin *kinematics.Kinematics, gp *gridPoint) kinematics.Point {
	if g.region.SquareDP {
		return kin.UpdateSqDPKinematics(gp.a, gp.b)
	}
	return kin.UpdateKinematics(gp.a, gp.b)
}

func (g *grid) summary() GridSummary {
	s := GridSummary{
		Region:        g.region,
		N13:           g.n13,
		N23:           g.n23,
		Inside:        len(g.points),
		WeightTotal13: g.w13,
		WeightTotal23: g.w23,
	}
	for _, gp := range g.points {
		s.PhaseSpace += gp.weight
	}
	return s
}

// sums are the normalisation accumulators. fifj and fifjEff are filled on
// and above the diagonal only.
type sums struct {
	fSq, fSqEff   []float64
	fifj, fifjEff [][]complex128
}

func newSums(n int) *sums {
	s := &sums{
		fSq:     make([]float64, n),
		fSqEff:  make([]float64, n),
		fifj:    make([][]complex128, n),
		fifjEff: make([][]complex128, n),
	}
	for i := 0; i < n; i++ {
		s.fifj[i] = make([]complex128, n)
		s.fifjEff[i] = make([]complex128, n)
	}
	return s
}

func (s *sums) addPoint(ff []complex128, eff, weight float64) {
	effWeight := eff * weight
	for i, fi := range ff {
		ffSq := real(fi)*real(fi) + imag(fi)*imag(fi)
		s.fSq[i] += ffSq * weight
		s.fSqEff[i] += ffSq * effWeight
		for j := i; j < len(ff); j++ {
			fifj := fi * cmplx.Conj(ff[j])
			s.fifj[i][j] += fifj * complex(weight, 0)
			s.fifjEff[i][j] += fifj * complex(effWeight, 0)
		}
	}
}

func (s *sums) add(o *sums) {
	for i := range s.fSq {
		s.fSq[i] += o.fSq[i]
		s.fSqEff[i] += o.fSqEff[i]
		for j := i; j < len(s.fSq); j++ {
			s.fifj[i][j] += o.fifj[i][j]
			s.fifjEff[i][j] += o.fifjEff[i][j]
		}
	}
}
