package dynamo

import (
	"fmt"

	"github.com/san-kum/dalitz/internal/barrier"
	"github.com/san-kum/dalitz/internal/efficiency"
	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/san-kum/dalitz/internal/kmatrix"
	"github.com/san-kum/dalitz/internal/lineshape"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("pkg", "dynamo")

// Engine owns the resonance components of one decay, their coefficients
// and the normalisation integrals.
type Engine struct {
	kin   *kinematics.Kinematics
	eff   efficiency.Model
	opts  Options
	radii *barrier.Radii
	props *kmatrix.Set

	resonances []*lineshape.Resonance
	index      map[string]int
	coeffs     []complex128

	state    State
	observer Observer

	grids  []*grid
	sums   *sums
	fNorm  []float64
	dpNorm float64

	// bookkeeping for partial recomputation
	revisions  []uint64
	radiiSnap  []float64
	changed    map[int]bool
	effChanged bool
	pending    []int

	extra     ExtraInfo
	initExtra ExtraInfo

	data    []cachedEvent
	current int
}

// New creates an engine for the decay described by kin. A nil eff means
// unit efficiency.
func New(kin *kinematics.Kinematics, eff efficiency.Model, opts Options) *Engine {
	if eff == nil {
		eff = efficiency.Constant(1)
	}
	radii := opts.Radii
	if radii == nil {
		radii = barrier.NewRadii()
	}
	return &Engine{
		kin:     kin,
		eff:     eff,
		opts:    opts,
		radii:   radii,
		props:   kmatrix.NewSet(),
		index:   make(map[string]int),
		changed: make(map[int]bool),
		current: -1,
	}
}

func (e *Engine) State() State                       { return e.state }
func (e *Engine) Kinematics() *kinematics.Kinematics { return e.kin }
func (e *Engine) Efficiency() efficiency.Model       { return e.eff }
func (e *Engine) Radii() *barrier.Radii              { return e.radii }
func (e *Engine) Propagators() *kmatrix.Set          { return e.props }
func (e *Engine) Options() Options                   { return e.opts }
func (e *Engine) NAmp() int                          { return len(e.resonances) }
func (e *Engine) DPNorm() float64                    { return e.dpNorm }
func (e *Engine) SetObserver(o Observer)             { e.observer = o }
func (e *Engine) Resonances() []*lineshape.Resonance { return append([]*lineshape.Resonance(nil), e.resonances...) }
func (e *Engine) Coeffs() []complex128               { return append([]complex128(nil), e.coeffs...) }
func (e *Engine) FNorm() []float64                   { return append([]float64(nil), e.fNorm...) }

// Resonance looks up a component by name.
func (e *Engine) Resonance(name string) (*lineshape.Resonance, bool) {
	i, ok := e.index[name]
	if !ok {
		return nil, false
	}
	return e.resonances[i], true
}

func (e *Engine) setState(s State) {
	if s == e.state {
		return
	}
	from := e.state
	e.state = s
	log.WithFields(logrus.Fields{"from": from, "to": s}).Debug("state change")
	if e.observer != nil {
		e.observer.OnStateChange(from, s)
	}
}

// AddResonance builds a component from spec and appends it to the model.
// Names must be unique. Components can only be added before the engine is
// Ready.
func (e *Engine) AddResonance(spec lineshape.Spec) (*lineshape.Resonance, error) {
	if e.state == Ready {
		return nil, fmt.Errorf("%w: cannot add %s to a ready engine", ErrWrongState, spec.Name)
	}
	if _, dup := e.index[spec.Name]; dup {
		return nil, &ResonanceError{Name: spec.Name, Wrapped: ErrDuplicateResonance}
	}
	r, err := lineshape.New(spec, e.kin, e.radii)
	if err != nil {
		return nil, &ResonanceError{Name: spec.Name, Wrapped: err}
	}

	e.index[spec.Name] = len(e.resonances)
	e.resonances = append(e.resonances, r)
	e.grids = nil

	log.WithFields(logrus.Fields{
		"name":     r.Name(),
		"kind":     r.Kind(),
		"bachelor": r.Bachelor(),
		"nAmp":     len(e.resonances),
	}).Info("resonance added")
	return r, nil
}

// DefineKMatrixPropagator registers a named propagator for the pair
// opposite the given bachelor. Production terms refer to it by name.
func (e *Engine) DefineKMatrixPropagator(name string, params *kmatrix.Params, pair, row int) (*kmatrix.Propagator, error) {
	p, err := e.props.Define(name, params, pair, row)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"name":     name,
		"pair":     pair,
		"channels": p.NChannels(),
		"poles":    p.NPoles(),
		"row":      row,
	}).Info("K-matrix propagator defined")
	return p, nil
}

func (e *Engine) propagator(name string) (*kmatrix.Propagator, error) {
	p, err := e.props.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPropagator, name)
	}
	return p, nil
}

// AddKMatrixProdPole adds a production pole term on the named propagator.
// pole is 1-based.
func (e *Engine) AddKMatrixProdPole(name, propName string, pole int, useProdAdler bool) (*lineshape.Resonance, error) {
	p, err := e.propagator(propName)
	if err != nil {
		return nil, err
	}
	return e.AddResonance(lineshape.Spec{
		Name:       name,
		Kind:       lineshape.KMatrixPole,
		Propagator: p,
		Index:      pole,
		ProdAdler:  useProdAdler,
	})
}

// AddKMatrixProdSVP adds a slowly-varying production term on the named
// propagator. channel is 1-based.
func (e *Engine) AddKMatrixProdSVP(name, propName string, channel int, useProdAdler bool) (*lineshape.Resonance, error) {
	p, err := e.propagator(propName)
	if err != nil {
		return nil, err
	}
	return e.AddResonance(lineshape.Spec{
		Name:       name,
		Kind:       lineshape.KMatrixSVP,
		Propagator: p,
		Index:      channel,
		ProdAdler:  useProdAdler,
	})
}

// SetEfficiency replaces the efficiency model. The cached efficiency values
// are refreshed on the next initialisation.
func (e *Engine) SetEfficiency(m efficiency.Model) {
	if m == nil {
		m = efficiency.Constant(1)
	}
	e.eff = m
	e.effChanged = true
}

// MarkChanged flags a resonance, or every term of a K-matrix propagator,
// whose parameters changed in a way the engine cannot see. Only flagged
// components are re-evaluated on the cached grid.
func (e *Engine) MarkChanged(name string) error {
	if i, ok := e.index[name]; ok {
		e.changed[i] = true
		return nil
	}
	p, err := e.props.Get(name)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownResonance, name)
	}
	p.Invalidate()
	for i, r := range e.resonances {
		if r.Propagator() == name {
			e.changed[i] = true
		}
	}
	return nil
}

func (e *Engine) checkCoeffs(coeffs []complex128) error {
	if len(coeffs) != len(e.resonances) {
		return fmt.Errorf("%w: got %d, want %d", ErrCoeffCount, len(coeffs), len(e.resonances))
	}
	return nil
}

// Initialise binds one coefficient per resonance, recomputes the
// normalisation if the model changed structurally and derives the
// generation fit fractions.
func (e *Engine) Initialise(coeffs []complex128) error {
	if len(e.resonances) == 0 {
		return ErrNoResonances
	}
	if err := e.checkCoeffs(coeffs); err != nil {
		return err
	}
	e.setState(Initialised)

	if e.structureChanged() {
		e.calcNormalisation()
		e.setState(NormalisationComputed)
	} else {
		log.Debug("model structure unchanged, rescaling cached integrals")
	}

	e.coeffs = append(e.coeffs[:0], coeffs...)
	e.CalcSigDPNorm()
	e.CalcExtraInfo(true)
	e.setState(Ready)
	return nil
}

// UpdateCoeffs replaces the coefficients and rescales the normalisation.
// The integrals themselves are not recomputed.
func (e *Engine) UpdateCoeffs(coeffs []complex128) error {
	if e.state < NormalisationComputed {
		return fmt.Errorf("%w: %s", ErrWrongState, e.state)
	}
	if err := e.checkCoeffs(coeffs); err != nil {
		return err
	}
	e.coeffs = append(e.coeffs[:0], coeffs...)
	e.CalcSigDPNorm()
	e.setState(Ready)
	return nil
}

// structureChanged reports whether the cached grid amplitudes or
// efficiencies are out of date.
func (e *Engine) structureChanged() bool {
	return e.grids == nil || e.effChanged || len(e.toRecalculate()) > 0
}

// toRecalculate returns the components whose cached amplitudes are stale:
// flagged ones, ones whose parameters moved and ones whose barrier radius
// changed.
func (e *Engine) toRecalculate() []int {
	if e.grids == nil {
		return allIndices(len(e.resonances))
	}

	snap := e.radii.Snapshot()
	movedRadius := func(f *barrier.Factor) bool {
		if f == nil {
			return false
		}
		h := int(f.Handle())
		return h >= len(e.radiiSnap) || e.radiiSnap[h] != snap[h]
	}

	var out []int
	for i, r := range e.resonances {
		if e.changed[i] || r.Revision() != e.revisions[i] ||
			movedRadius(r.ResFactor()) || movedRadius(r.ParFactor()) {
			out = append(out, i)
		}
	}
	return out
}

func (e *Engine) snapshotStructure() {
	e.revisions = make([]uint64, len(e.resonances))
	for i, r := range e.resonances {
		e.revisions[i] = r.Revision()
	}
	e.radiiSnap = e.radii.Snapshot()
	e.changed = make(map[int]bool)
	e.effChanged = false
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
