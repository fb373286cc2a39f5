// Package export renders generated samples to vector graphics.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/san-kum/dalitz/internal/analysis"
	"github.com/san-kum/dalitz/internal/kinematics"
)

// DalitzSVG draws the points over the DP boundary, with m13² along x and
// m23² along y.
func DalitzSVG(points []analysis.Point2, kin *kinematics.Kinematics, width, height int, fill string) string {
	minX, maxX := kin.M13SqMin(), kin.M13SqMax()
	minY, maxY := kin.M23SqMin(), kin.M23SqMax()
	padX, padY := (maxX-minX)*0.05, (maxY-minY)*0.05
	minX, maxX = minX-padX, maxX+padX
	minY, maxY = minY-padY, maxY+padY
	rangeX, rangeY := maxX-minX, maxY-minY

	toCanvas := func(p analysis.Point2) (float64, float64) {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		return x, y
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="#5f5f5f" stroke-width="1.5" d="M`,
		width, height, width, height))

	for i, p := range analysis.Boundary(kin, 200) {
		x, y := toCanvas(p)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString(" Z\"/>\n")

	sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", fill))
	r := 1.0
	if len(points) < 2000 {
		r = 1.5
	}
	for _, p := range points {
		x, y := toCanvas(p)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, x, y, r))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// WriteDalitzSVG writes DalitzSVG to w.
func WriteDalitzSVG(w io.Writer, points []analysis.Point2, kin *kinematics.Kinematics, width, height int) error {
	_, err := io.WriteString(w, DalitzSVG(points, kin, width, height, "#00d7af"))
	return errors.Wrap(err, "writing svg")
}
