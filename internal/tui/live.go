package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/dalitz/internal/analysis"
	"github.com/san-kum/dalitz/internal/generator"
	"github.com/san-kum/dalitz/internal/kinematics"
)

const (
	width       = 70
	height      = 22
	maxPoints   = 4000
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the accepted points over the Dalitz plot as trials
// arrive. It is a generator.Observer and must be attached to a single
// generator.
type LiveRenderer struct {
	model     string
	kin       *kinematics.Kinematics
	out       io.Writer
	frameRate int
	lastFrame time.Time

	points   []analysis.Point2
	next     int
	trials   int
	accepted int
	raises   int
	envelope float64
}

// NewLiveRenderer draws at most frameRate frames per second to out. A
// frameRate of zero draws on every trial.
func NewLiveRenderer(model string, kin *kinematics.Kinematics, out io.Writer, frameRate int) *LiveRenderer {
	return &LiveRenderer{
		model:     model,
		kin:       kin,
		out:       out,
		frameRate: frameRate,
		points:    make([]analysis.Point2, 0, maxPoints),
	}
}

func (r *LiveRenderer) OnTrial(tr generator.Trial) {
	r.trials++
	r.envelope = tr.Envelope
	if tr.Raised {
		r.raises++
	}
	if tr.Accepted {
		r.accepted++
		r.push(analysis.Point2{X: tr.M13Sq, Y: tr.M23Sq})
	}

	if r.frameRate > 0 {
		if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			return
		}
		r.lastFrame = time.Now()
	}
	fmt.Fprint(r.out, clearScreen+r.Frame())
}

// push keeps the most recent maxPoints accepted points.
func (r *LiveRenderer) push(p analysis.Point2) {
	if len(r.points) < maxPoints {
		r.points = append(r.points, p)
		return
	}
	r.points[r.next] = p
	r.next = (r.next + 1) % maxPoints
}

// Frame renders the current state without clearing the screen.
func (r *LiveRenderer) Frame() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %s  trials=%d accepted=%d\n", r.model, r.trials, r.accepted))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	for _, row := range strings.Split(strings.TrimRight(analysis.ScatterToASCII(r.points, r.kin, width, height), "\n"), "\n") {
		b.WriteString("  " + row + "\n")
	}
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	rate := 0.0
	if r.trials > 0 {
		rate = float64(r.accepted) / float64(r.trials)
	}
	b.WriteString(fmt.Sprintf("  acceptance=%.3f envelope=%.4g raises=%d\n", rate, r.envelope, r.raises))
	return b.String()
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
