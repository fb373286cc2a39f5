package spline

import (
	"fmt"
	"math"
)

// Grid is a regular 2D histogram. Content is stored row-major with the x
// bin varying fastest: Content[iy*NX+ix].
type Grid struct {
	XMin, XMax float64
	YMin, YMax float64
	NX, NY     int
	Content    []float64
}

// At returns the content of bin (ix, iy).
func (g Grid) At(ix, iy int) float64 { return g.Content[iy*g.NX+ix] }

// BinWidth returns the x and y bin sizes.
func (g Grid) BinWidth() (float64, float64) {
	return (g.XMax - g.XMin) / float64(g.NX), (g.YMax - g.YMin) / float64(g.NY)
}

// Sum returns the total of all bin contents.
func (g Grid) Sum() float64 {
	var s float64
	for _, c := range g.Content {
		s += c
	}
	return s
}

func (g Grid) validate() error {
	if g.NX < 1 || g.NY < 1 {
		return fmt.Errorf("%w: %dx%d bins", ErrBadGrid, g.NX, g.NY)
	}
	if len(g.Content) != g.NX*g.NY {
		return fmt.Errorf("%w: %d contents for %dx%d bins", ErrBadGrid, len(g.Content), g.NX, g.NY)
	}
	if !(g.XMax > g.XMin) || !(g.YMax > g.YMin) {
		return fmt.Errorf("%w: empty range", ErrBadGrid)
	}
	return nil
}

// hermite maps (f0, f1, d0, d1) on the unit interval to monomial
// coefficients in ascending powers.
var hermite = [4][4]float64{
	{1, 0, 0, 0},
	{0, 0, 1, 0},
	{-3, 3, -2, -1},
	{2, -2, 1, 1},
}

// Bicubic2D is a C¹ bicubic surface through the bin centres of a Grid.
// Nodes sit at bin centres; one reflected node is added beyond each edge so
// that the surface covers the full histogram range plus half a bin.
// Derivatives at the nodes are central finite differences.
type Bicubic2D struct {
	grid       Grid
	binW, binH float64
	x0, y0     float64 // lower edge of the cell grid
	nCellX     int
	nCellY     int

	// coeffs[cell][p][q] multiplies hx^p * hy^q in cell-local units.
	coeffs   [][4][4]float64
	cellArea []float64
}

// NewBicubic2D fits a bicubic surface to the grid contents.
func NewBicubic2D(g Grid) (*Bicubic2D, error) {
	if err := g.validate(); err != nil {
		return nil, err
	}
	g.Content = append([]float64(nil), g.Content...)

	w, h := g.BinWidth()
	s := &Bicubic2D{
		grid:   g,
		binW:   w,
		binH:   h,
		x0:     g.XMin - 0.5*w,
		y0:     g.YMin - 0.5*h,
		nCellX: g.NX + 1,
		nCellY: g.NY + 1,
	}
	s.coeffs = make([][4][4]float64, s.nCellX*s.nCellY)
	s.cellArea = make([]float64, s.nCellX*s.nCellY)
	s.init()
	return s, nil
}

// Grid returns the histogram the surface was built from.
func (s *Bicubic2D) Grid() Grid { return s.grid }

// content reads a node value, reflecting indices beyond the edges.
func (s *Bicubic2D) content(ix, iy int) float64 {
	return s.grid.At(mirrorIndex(ix, s.grid.NX), mirrorIndex(iy, s.grid.NY))
}

// mirrorIndex folds i into [0, n) by repeated reflection about the edges,
// so stencils wider than the axis stay in range.
func mirrorIndex(i, n int) int {
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i - 1
	}
	return i
}

func (s *Bicubic2D) dx(ix, iy int) float64 {
	return 0.5 * (s.content(ix+1, iy) - s.content(ix-1, iy))
}

func (s *Bicubic2D) dy(ix, iy int) float64 {
	return 0.5 * (s.content(ix, iy+1) - s.content(ix, iy-1))
}

func (s *Bicubic2D) dxy(ix, iy int) float64 {
	return 0.25 * (s.content(ix+1, iy+1) - s.content(ix-1, iy+1) -
		s.content(ix+1, iy-1) + s.content(ix-1, iy-1))
}

func (s *Bicubic2D) init() {
	for cy := 0; cy < s.nCellY; cy++ {
		j := cy - 1
		for cx := 0; cx < s.nCellX; cx++ {
			i := cx - 1

			f := [4][4]float64{
				{s.content(i, j), s.content(i, j+1), s.dy(i, j), s.dy(i, j+1)},
				{s.content(i+1, j), s.content(i+1, j+1), s.dy(i+1, j), s.dy(i+1, j+1)},
				{s.dx(i, j), s.dx(i, j+1), s.dxy(i, j), s.dxy(i, j+1)},
				{s.dx(i+1, j), s.dx(i+1, j+1), s.dxy(i+1, j), s.dxy(i+1, j+1)},
			}

			// A = H F H^T
			var hf, a [4][4]float64
			for r := 0; r < 4; r++ {
				for c := 0; c < 4; c++ {
					for k := 0; k < 4; k++ {
						hf[r][c] += hermite[r][k] * f[k][c]
					}
				}
			}
			for r := 0; r < 4; r++ {
				for c := 0; c < 4; c++ {
					for k := 0; k < 4; k++ {
						a[r][c] += hf[r][k] * hermite[c][k]
					}
				}
			}

			idx := cy*s.nCellX + cx
			s.coeffs[idx] = a
			s.cellArea[idx] = cellIntegral(&a, 0, 1, 0, 1)
		}
	}
}

// Domain returns the range covered by the surface.
func (s *Bicubic2D) Domain() (xmin, xmax, ymin, ymax float64) {
	return s.x0, s.x0 + float64(s.nCellX)*s.binW, s.y0, s.y0 + float64(s.nCellY)*s.binH
}

func (s *Bicubic2D) locate(x, y float64) (cx, cy int, hx, hy float64, ok bool) {
	xmin, xmax, ymin, ymax := s.Domain()
	if math.IsNaN(x) || math.IsNaN(y) || x < xmin || x > xmax || y < ymin || y > ymax {
		return 0, 0, 0, 0, false
	}
	ux := (x - s.x0) / s.binW
	uy := (y - s.y0) / s.binH
	cx = min(int(ux), s.nCellX-1)
	cy = min(int(uy), s.nCellY-1)
	return cx, cy, ux - float64(cx), uy - float64(cy), true
}

// Evaluate returns the surface value at (x, y), or 0 outside the domain.
func (s *Bicubic2D) Evaluate(x, y float64) float64 {
	cx, cy, hx, hy, ok := s.locate(x, y)
	if !ok {
		return 0
	}
	a := &s.coeffs[cy*s.nCellX+cx]

	var v float64
	py := 1.0
	for q := 0; q < 4; q++ {
		px := 1.0
		for p := 0; p < 4; p++ {
			v += a[p][q] * px * py
			px *= hx
		}
		py *= hy
	}
	return v
}

// Integral returns the integral over the histogram range. It equals the
// sum of the bin contents times the bin area.
func (s *Bicubic2D) Integral() float64 {
	return s.IntegralRange(s.grid.XMin, s.grid.XMax, s.grid.YMin, s.grid.YMax)
}

// IntegralRange integrates over [x1, x2] x [y1, y2] clipped to the domain.
// A degenerate range in one variable gives the line integral along the other.
func (s *Bicubic2D) IntegralRange(x1, x2, y1, y2 float64) float64 {
	switch {
	case x1 == x2 && y1 == y2:
		return 0
	case y1 == y2:
		return s.EvalX(x1, x2, y1)
	case x1 == x2:
		return s.EvalY(x1, y1, y2)
	}
	return s.EvalXY(x1, x2, y1, y2)
}

// EvalX integrates along x at fixed y.
func (s *Bicubic2D) EvalX(x1, x2, y float64) float64 {
	_, cy, _, hy, ok := s.locate(s.x0, y)
	if !ok {
		return 0
	}
	lo, hi, ok := s.clip(x1, x2, s.x0, s.binW, s.nCellX)
	if !ok {
		return 0
	}

	var total float64
	for cx := int(lo); cx <= min(int(hi), s.nCellX-1); cx++ {
		a, b := cellBounds(lo, hi, cx)
		if b <= a {
			continue
		}
		c := &s.coeffs[cy*s.nCellX+cx]
		py := 1.0
		for q := 0; q < 4; q++ {
			for p := 0; p < 4; p++ {
				total += c[p][q] * powDiff(a, b, p) * py
			}
			py *= hy
		}
	}
	return total * s.binW
}

// EvalY integrates along y at fixed x.
func (s *Bicubic2D) EvalY(x, y1, y2 float64) float64 {
	cx, _, hx, _, ok := s.locate(x, s.y0)
	if !ok {
		return 0
	}
	lo, hi, ok := s.clip(y1, y2, s.y0, s.binH, s.nCellY)
	if !ok {
		return 0
	}

	var total float64
	for cy := int(lo); cy <= min(int(hi), s.nCellY-1); cy++ {
		a, b := cellBounds(lo, hi, cy)
		if b <= a {
			continue
		}
		c := &s.coeffs[cy*s.nCellX+cx]
		px := 1.0
		for p := 0; p < 4; p++ {
			for q := 0; q < 4; q++ {
				total += c[p][q] * px * powDiff(a, b, q)
			}
			px *= hx
		}
	}
	return total * s.binH
}

// EvalXY integrates over a rectangle, using cached integrals for whole cells.
func (s *Bicubic2D) EvalXY(x1, x2, y1, y2 float64) float64 {
	xlo, xhi, ok := s.clip(x1, x2, s.x0, s.binW, s.nCellX)
	if !ok {
		return 0
	}
	ylo, yhi, ok := s.clip(y1, y2, s.y0, s.binH, s.nCellY)
	if !ok {
		return 0
	}

	var total float64
	for cy := int(ylo); cy <= min(int(yhi), s.nCellY-1); cy++ {
		ay, by := cellBounds(ylo, yhi, cy)
		if by <= ay {
			continue
		}
		for cx := int(xlo); cx <= min(int(xhi), s.nCellX-1); cx++ {
			ax, bx := cellBounds(xlo, xhi, cx)
			if bx <= ax {
				continue
			}
			idx := cy*s.nCellX + cx
			if ax == 0 && bx == 1 && ay == 0 && by == 1 {
				total += s.cellArea[idx]
				continue
			}
			total += cellIntegral(&s.coeffs[idx], ax, bx, ay, by)
		}
	}
	return total * s.binW * s.binH
}

// clip converts [v1, v2] to cell units, clipped to [0, n].
func (s *Bicubic2D) clip(v1, v2, origin, width float64, n int) (float64, float64, bool) {
	if v2 < v1 {
		v1, v2 = v2, v1
	}
	lo := math.Max((v1-origin)/width, 0)
	hi := math.Min((v2-origin)/width, float64(n))
	return lo, hi, hi > lo
}

// cellBounds returns the part of [lo, hi] inside cell c in local units.
func cellBounds(lo, hi float64, c int) (float64, float64) {
	return math.Max(lo-float64(c), 0), math.Min(hi-float64(c), 1)
}

func powDiff(a, b float64, p int) float64 {
	e := float64(p + 1)
	return (math.Pow(b, e) - math.Pow(a, e)) / e
}

func cellIntegral(c *[4][4]float64, ax, bx, ay, by float64) float64 {
	var v float64
	for p := 0; p < 4; p++ {
		ix := powDiff(ax, bx, p)
		for q := 0; q < 4; q++ {
			v += c[p][q] * ix * powDiff(ay, by, q)
		}
	}
	return v
}
