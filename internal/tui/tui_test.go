package tui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/dalitz/internal/analysis"
	"github.com/san-kum/dalitz/internal/config"
	"github.com/san-kum/dalitz/internal/dynamo"
	"github.com/san-kum/dalitz/internal/generator"
	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKin(t *testing.T) *kinematics.Kinematics {
	t.Helper()
	kin, err := kinematics.New(1.86966, 0.13957039, 0.13957039, 0.493677, false)
	require.NoError(t, err)
	return kin
}

func TestLiveRendererFrame(t *testing.T) {
	var buf bytes.Buffer
	r := NewLiveRenderer("d_pipik", newKin(t), &buf, 0)

	r.OnTrial(generator.Trial{M13Sq: 1.0, M23Sq: 1.0, Envelope: 0.5, Accepted: true})
	r.OnTrial(generator.Trial{M13Sq: 1.2, M23Sq: 0.9, Envelope: 0.6, Raised: true})

	frame := r.Frame()
	assert.Contains(t, frame, "trials=2 accepted=1")
	assert.Contains(t, frame, "acceptance=0.500")
	assert.Contains(t, frame, "raises=1")
	assert.Contains(t, buf.String(), clearScreen)
}

func TestLiveRendererThrottle(t *testing.T) {
	var buf bytes.Buffer
	r := NewLiveRenderer("d_pipik", newKin(t), &buf, 1)
	for i := 0; i < 50; i++ {
		r.OnTrial(generator.Trial{M13Sq: 1, M23Sq: 1, Accepted: true})
	}
	assert.Equal(t, 1, strings.Count(buf.String(), clearScreen))
}

func TestLiveRendererKeepsRecentPoints(t *testing.T) {
	r := NewLiveRenderer("d_pipik", newKin(t), &bytes.Buffer{}, 1000)
	for i := 0; i < maxPoints+10; i++ {
		r.push(analysisPoint(float64(i)))
	}
	assert.Len(t, r.points, maxPoints)
	assert.Equal(t, 10, r.next)
	assert.Equal(t, float64(maxPoints), r.points[0].X)
}

func TestFitFractionTable(t *testing.T) {
	extra := dynamo.ExtraInfo{
		FitFrac:          [][]float64{{0.7, 0.05}, {0.05, 0.25}},
		FitFracEffUnCorr: [][]float64{{0.7, 0.05}, {0.05, 0.25}},
		FitFracTotal:     1.0,
		MeanEff:          1,
		KMatrixFitFrac:   map[string]float64{"pipi": 0.3},
	}
	out := FitFractionTable([]string{"NR", "K*0(892)"}, extra)
	assert.Contains(t, out, "0.7000")
	assert.Contains(t, out, "NR x K*0(892)")
	assert.Contains(t, out, "K-matrix pipi")
}

func TestStatusSummary(t *testing.T) {
	res := &generator.Result{
		Events:   make([]generator.Event, 3),
		Statuses: map[generator.Status]int{generator.GenOK: 3, generator.ASqMaxError: 1},
		Restarts: 1,
		Stats:    generator.Stats{Trials: 12, Accepted: 4, EnvelopeRaises: 1},
		Metrics:  map[string]float64{"acceptance": 0.25},
		ASqMax:   0.8,
	}
	out := StatusSummary(res)
	assert.Contains(t, out, "restarts 1")
	assert.Contains(t, out, "acceptance=")
}

func TestResonanceTable(t *testing.T) {
	out := ResonanceTable(config.DefaultConfig())
	assert.Contains(t, out, "d_pipik")
	assert.Contains(t, out, "bach 3")
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", sparkline(nil, 10))
	assert.Equal(t, "▁█", sparkline([]float64{0, 1}, 10))
	assert.Equal(t, "", repeat("x", -1))
}

func TestInteractiveNavigation(t *testing.T) {
	app := NewInteractiveApp()
	require.NotEmpty(t, app.entries)

	next, _ := app.Update(tea.KeyMsg{Type: tea.KeyDown})
	m := next.(model)
	assert.Equal(t, 1, m.cursor)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	assert.Equal(t, stateConfig, m.state)
	require.NotNil(t, m.cfg)
	assert.Contains(t, m.View(), m.cfg.Model)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(model)
	assert.Equal(t, stateMenu, m.state)
}

func TestInteractiveGenerates(t *testing.T) {
	app := NewInteractiveApp()
	app.cfg = config.DefaultConfig()
	app.cfg.Integration.M13BinWidth = 0.05
	app.cfg.Integration.M23BinWidth = 0.05
	app.params["events"] = 50
	app.params["seed"] = 3

	app.start()
	require.NoError(t, app.err)
	for i := 0; i < 100 && !app.done; i++ {
		app.step()
	}
	require.True(t, app.done)
	require.NoError(t, app.err)
	assert.Equal(t, 50, app.events)
	require.NotNil(t, app.out)
	assert.Equal(t, []string{"NonReson"}, app.out.Names)

	app.state = stateGen
	assert.Contains(t, app.View(), "done")
}

func analysisPoint(x float64) analysis.Point2 { return analysis.Point2{X: x, Y: x} }
