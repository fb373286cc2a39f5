package analysis

import (
	"fmt"

	"github.com/san-kum/dalitz/internal/kinematics"
	"gonum.org/v1/gonum/floats"
)

// Histogram2D counts entries in NX×NY equal bins. Counts is row-major,
// indexed iy*NX+ix.
type Histogram2D struct {
	XMin, XMax float64
	YMin, YMax float64
	NX, NY     int
	Counts     []float64

	Entries  int
	Overflow int
}

func NewHistogram2D(nx, ny int, xMin, xMax, yMin, yMax float64) (*Histogram2D, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("analysis: bin counts must be positive, got %dx%d", nx, ny)
	}
	if xMax <= xMin || yMax <= yMin {
		return nil, fmt.Errorf("analysis: empty histogram range [%g,%g]x[%g,%g]", xMin, xMax, yMin, yMax)
	}
	return &Histogram2D{
		XMin: xMin, XMax: xMax,
		YMin: yMin, YMax: yMax,
		NX: nx, NY: ny,
		Counts: make([]float64, nx*ny),
	}, nil
}

// NewDalitzHistogram spans the (m13², m23²) bounding box of kin.
func NewDalitzHistogram(kin *kinematics.Kinematics, nx, ny int) (*Histogram2D, error) {
	return NewHistogram2D(nx, ny, kin.M13SqMin(), kin.M13SqMax(), kin.M23SqMin(), kin.M23SqMax())
}

// Fill adds one unit-weight entry. Points outside the range are counted as
// overflow and Fill reports false.
func (h *Histogram2D) Fill(x, y float64) bool {
	return h.FillWeighted(x, y, 1)
}

func (h *Histogram2D) FillWeighted(x, y, w float64) bool {
	ix, iy, ok := h.FindBin(x, y)
	if !ok {
		h.Overflow++
		return false
	}
	h.Counts[iy*h.NX+ix] += w
	h.Entries++
	return true
}

// FindBin returns the bin holding (x, y). The upper edges belong to the
// last bins.
func (h *Histogram2D) FindBin(x, y float64) (ix, iy int, ok bool) {
	if x < h.XMin || x > h.XMax || y < h.YMin || y > h.YMax {
		return 0, 0, false
	}
	ix = int((x - h.XMin) / h.BinWidthX())
	iy = int((y - h.YMin) / h.BinWidthY())
	if ix == h.NX {
		ix--
	}
	if iy == h.NY {
		iy--
	}
	return ix, iy, true
}

func (h *Histogram2D) BinWidthX() float64    { return (h.XMax - h.XMin) / float64(h.NX) }
func (h *Histogram2D) BinWidthY() float64    { return (h.YMax - h.YMin) / float64(h.NY) }
func (h *Histogram2D) At(ix, iy int) float64 { return h.Counts[iy*h.NX+ix] }
func (h *Histogram2D) Sum() float64          { return floats.Sum(h.Counts) }
func (h *Histogram2D) Max() float64          { return floats.Max(h.Counts) }

// BinEdges returns the corners of bin (ix, iy).
func (h *Histogram2D) BinEdges(ix, iy int) (x0, x1, y0, y1 float64) {
	x0 = h.XMin + float64(ix)*h.BinWidthX()
	y0 = h.YMin + float64(iy)*h.BinWidthY()
	return x0, x0 + h.BinWidthX(), y0, y0 + h.BinWidthY()
}

// ProjectionX sums over y.
func (h *Histogram2D) ProjectionX() []float64 {
	out := make([]float64, h.NX)
	for iy := 0; iy < h.NY; iy++ {
		floats.Add(out, h.Counts[iy*h.NX:(iy+1)*h.NX])
	}
	return out
}

// ProjectionY sums over x.
func (h *Histogram2D) ProjectionY() []float64 {
	out := make([]float64, h.NY)
	for iy := range out {
		out[iy] = floats.Sum(h.Counts[iy*h.NX : (iy+1)*h.NX])
	}
	return out
}
