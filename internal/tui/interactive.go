package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/dalitz/internal/analysis"
	"github.com/san-kum/dalitz/internal/config"
	"github.com/san-kum/dalitz/internal/experiment"
	"github.com/san-kum/dalitz/internal/generator"
	"github.com/spf13/afero"
)

const (
	trialsPerTick = 400
	maxRestarts   = 10
)

type state int

const (
	stateMenu state = iota
	stateConfig
	stateGen
)

type entry struct {
	model, preset string
}

type model struct {
	state   state
	cursor  int
	entries []entry
	cfg     *config.Config

	params      map[string]float64
	paramNames  []string
	paramCursor int
	editing     bool
	editBuf     string

	exp      *experiment.Experiment
	running  bool
	paused   bool
	done     bool
	err      error
	events   int
	restarts int
	maxIter  int
	points   []analysis.Point2
	history  []float64
	out      *experiment.Outcome

	width  int
	height int
}

func NewInteractiveApp() *model {
	var entries []entry
	for _, name := range config.ListModels() {
		for _, p := range config.ListPresets(name) {
			entries = append(entries, entry{name, p})
		}
	}
	return &model{
		state:   stateMenu,
		entries: entries,
		params: map[string]float64{
			"events": 2000, "seed": 1, "asq_max": config.DefaultASqMax,
		},
		paramNames: []string{"events", "seed", "asq_max"},
		history:    make([]float64, 0, 60),
		width:      80,
		height:     24,
	}
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateGen {
			return m, nil
		}
		if m.running && !m.paused && !m.done {
			m.step()
		}
		if m.running && !m.done {
			return m, tick()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateGen:
		return m.genKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.entries) == 0 {
			return m, nil
		}
		e := m.entries[m.cursor]
		m.cfg = config.GetPreset(e.model, e.preset)
		m.state = stateConfig
		m.paramCursor = 0
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			var val float64
			fmt.Sscanf(m.editBuf, "%f", &val)
			m.params[m.paramNames[m.paramCursor]] = val
			m.editing = false
			m.editBuf = ""
		case "esc":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.paramNames)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		m.editing = true
		m.editBuf = fmt.Sprintf("%g", m.params[m.paramNames[m.paramCursor]])
	case "s":
		m.start()
		m.state = stateGen
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

func (m model) genKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.running = false
		m.state = stateMenu
		m.reset()
		return m, tea.ClearScreen
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.start()
		return m, tea.Batch(tea.ClearScreen, tick())
	case "c":
		m.running = false
		m.state = stateConfig
		m.reset()
		return m, tea.ClearScreen
	}
	return m, nil
}

func (m *model) start() {
	m.reset()
	cfg := m.cfg.Clone()
	if n := int(m.params["events"]); n > 0 {
		cfg.Generation.Events = n
	}
	cfg.Generation.Seed = int64(m.params["seed"])
	if v := m.params["asq_max"]; v > 0 {
		cfg.Generation.ASqMax = v
	}

	exp := experiment.New(cfg)
	reg := experiment.NewRegistry()
	if err := exp.Setup(afero.NewOsFs(), reg, reg.DefaultMetrics()); err != nil {
		m.err = err
		m.done = true
		return
	}
	m.cfg = cfg
	m.exp = exp
	m.running = true
	m.paused = false
}

func (m *model) reset() {
	m.exp = nil
	m.out = nil
	m.err = nil
	m.done = false
	m.events = 0
	m.restarts = 0
	m.maxIter = 0
	m.points = nil
	m.history = make([]float64, 0, 60)
}

// step runs one batch of trials. An envelope raise discards the events
// collected so far, the same way generator.Run restarts.
func (m *model) step() {
	gen := m.exp.Generator()
	target := m.cfg.Generation.Events
	for i := 0; i < trialsPerTick && m.events < target; i++ {
		ev, status, err := gen.Generate()
		if err != nil {
			m.err = err
			m.done = true
			return
		}
		switch status {
		case generator.GenOK:
			m.events++
			m.points = append(m.points, analysis.Point2{X: ev.M13Sq, Y: ev.M23Sq})
		case generator.ASqMaxError:
			if m.restarts < maxRestarts {
				m.restarts++
				m.events = 0
				m.points = m.points[:0]
			}
		case generator.MaxIterError:
			m.maxIter++
		}
	}

	m.history = append(m.history, gen.Stats().AcceptanceRate())
	if len(m.history) > 60 {
		m.history = m.history[1:]
	}

	if m.events >= target {
		eng := m.exp.Model().Engine
		names := make([]string, 0, eng.NAmp())
		for _, r := range eng.Resonances() {
			names = append(names, r.Name())
		}
		m.out = &experiment.Outcome{Config: m.cfg, Extra: eng.GenerationInfo(), Names: names}
		m.done = true
	}
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateGen:
		return m.viewGen()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("d a l i t z") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, e := range m.entries {
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-14s", e.model)) + dim.Render(e.preset) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-14s", e.model)) + dimmer.Render(e.preset) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter configure   q quit") + "\n")
	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(ResonanceTable(m.cfg))
	b.WriteString("\n")

	for i, name := range m.paramNames {
		val := fmt.Sprintf("%10g", m.params[name])
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"▋")
		}
		if i == m.paramCursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-10s", name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-10s", name)) + dim.Render(val) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select  enter edit  s generate  esc back") + "\n")
	return b.String()
}

func (m model) viewGen() string {
	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("generating")
	switch {
	case m.err != nil:
		statusIcon = red.Render("●")
		statusText = red.Render(m.err.Error())
	case m.done:
		statusText = cyan.Render("done")
	case m.paused:
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n", statusIcon, cyan.Render(m.cfg.Model), statusText))
	if m.exp == nil {
		b.WriteString("\n" + dim.Render("   c config  q quit") + "\n")
		return b.String()
	}

	target := m.cfg.Generation.Events
	count := fmt.Sprintf("%d/%d", m.events, target)
	b.WriteString(fmt.Sprintf("   %s %s\n\n", progressBar(float64(m.events)/float64(target), 36), dim.Render(count)))

	cw, ch := m.width-6, m.height-14
	if cw < 40 {
		cw = 40
	}
	if ch < 10 {
		ch = 10
	}
	if m.done && m.out != nil {
		b.WriteString(FitFractionTable(m.out.Names, m.out.Extra))
	} else {
		for _, row := range strings.Split(strings.TrimRight(analysis.ScatterToASCII(m.points, m.exp.Model().Kin, cw, ch), "\n"), "\n") {
			b.WriteString("   " + row + "\n")
		}
	}

	gen := m.exp.Generator()
	stats := gen.Stats()
	b.WriteString(fmt.Sprintf("\n   %s%s  %s%s  %s%d  %s%d\n",
		dim.Render("envelope="), white.Render(fmt.Sprintf("%.4g", gen.ASqMax())),
		dim.Render("max="), white.Render(fmt.Sprintf("%.4g", gen.MaxObserved())),
		dim.Render("restarts="), m.restarts,
		dim.Render("max-iter="), m.maxIter))
	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s %s\n", dim.Render("acc"), cyan.Render(sparkline(m.history, 24)),
			white.Render(fmt.Sprintf("%.3f", stats.AcceptanceRate()))))
	}

	b.WriteString("\n" + dim.Render("   space pause  r restart  c config  q quit") + "\n")
	return b.String()
}

func RunInteractive() error {
	p := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
