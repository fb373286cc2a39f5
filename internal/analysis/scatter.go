package analysis

import (
	"strings"

	"github.com/san-kum/dalitz/internal/kinematics"
)

// Point2 is a (m13², m23²) pair.
type Point2 struct{ X, Y float64 }

// Boundary returns the DP boundary as a closed contour of 2n points: the
// lower edge left to right, then the upper edge right to left.
func Boundary(kin *kinematics.Kinematics, n int) []Point2 {
	if n < 2 {
		n = 2
	}
	lo, hi := kin.M13SqMin(), kin.M13SqMax()
	step := (hi - lo) / float64(n-1)

	pts := make([]Point2, 2*n)
	for i := 0; i < n; i++ {
		x := lo + float64(i)*step
		yLo, yHi := kin.M23SqRange(x)
		pts[i] = Point2{X: x, Y: yLo}
		pts[2*n-1-i] = Point2{X: x, Y: yHi}
	}
	return pts
}

// ScatterToASCII draws the points over the DP bounding box, with the DP
// boundary in a lighter glyph. Cells hit by several points use a denser
// glyph.
func ScatterToASCII(points []Point2, kin *kinematics.Kinematics, width, height int) string {
	if width < 2 || height < 2 {
		return ""
	}

	minX, maxX := kin.M13SqMin(), kin.M13SqMax()
	minY, maxY := kin.M23SqMin(), kin.M23SqMax()
	rangeX, rangeY := maxX-minX, maxY-minY

	canvas := make([][]rune, height)
	hits := make([][]int, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
		hits[i] = make([]int, width)
	}

	cell := func(p Point2) (row, col int, ok bool) {
		col = int((p.X - minX) / rangeX * float64(width-1))
		row = height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		return row, col, row >= 0 && row < height && col >= 0 && col < width
	}

	for _, p := range Boundary(kin, 4*width) {
		if row, col, ok := cell(p); ok {
			canvas[row][col] = '·'
		}
	}

	glyphs := []rune{'•', 'o', 'O', '@'}
	for _, p := range points {
		row, col, ok := cell(p)
		if !ok {
			continue
		}
		hits[row][col]++
		g := hits[row][col] - 1
		if g >= len(glyphs) {
			g = len(glyphs) - 1
		}
		canvas[row][col] = glyphs[g]
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
