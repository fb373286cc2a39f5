package experiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/dalitz/internal/barrier"
	"github.com/san-kum/dalitz/internal/config"
	"github.com/san-kum/dalitz/internal/efficiency"
	"github.com/san-kum/dalitz/internal/generator"
	"github.com/san-kum/dalitz/internal/lineshape"
	"github.com/san-kum/dalitz/internal/metrics"
	"github.com/san-kum/dalitz/internal/spline"
)

// SpecFactory turns a resonance entry into a lineshape spec.
type SpecFactory func(rc config.ResonanceConfig) (lineshape.Spec, error)

type Registry struct {
	kinds        map[string]SpecFactory
	efficiencies map[string]func(config.EfficiencyConfig) (efficiency.Model, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		kinds:        make(map[string]SpecFactory),
		efficiencies: make(map[string]func(config.EfficiencyConfig) (efficiency.Model, error)),
	}

	for _, k := range []lineshape.Kind{lineshape.RelBW, lineshape.GS, lineshape.FlatNR} {
		r.kinds[k.String()] = baseSpec
	}
	r.kinds[lineshape.Flatte.String()] = func(rc config.ResonanceConfig) (lineshape.Spec, error) {
		spec, err := baseSpec(rc)
		spec.G1, spec.G2 = rc.G1, rc.G2
		return spec, err
	}
	for _, k := range []lineshape.Kind{lineshape.MIPWMagPhase, lineshape.MIPWRealImag} {
		r.kinds[k.String()] = func(rc config.ResonanceConfig) (lineshape.Spec, error) {
			spec, err := baseSpec(rc)
			spec.Knots, spec.Values1, spec.Values2 = rc.Knots, rc.Values1, rc.Values2
			return spec, err
		}
	}
	for _, k := range []lineshape.Kind{lineshape.KMatrixPole, lineshape.KMatrixSVP} {
		r.kinds[k.String()] = func(rc config.ResonanceConfig) (lineshape.Spec, error) {
			spec, err := baseSpec(rc)
			spec.Index, spec.ProdAdler = rc.Index, rc.ProdAdler
			return spec, err
		}
	}

	r.efficiencies["constant"] = func(ec config.EfficiencyConfig) (efficiency.Model, error) {
		return efficiency.Constant(ec.Constant), nil
	}
	r.efficiencies["histogram"] = func(ec config.EfficiencyConfig) (efficiency.Model, error) {
		h := ec.Histogram
		if h == nil {
			return nil, fmt.Errorf("%w: histogram efficiency without a histogram", config.ErrInvalid)
		}
		grid := spline.Grid{
			XMin: h.XMin, XMax: h.XMax,
			YMin: h.YMin, YMax: h.YMax,
			NX: h.NX, NY: h.NY,
			Content: h.Content,
		}
		return efficiency.NewHistogram(grid, h.SquareDP, h.UpperHalf)
	}

	return r
}

// baseSpec maps the fields shared by every kind.
func baseSpec(rc config.ResonanceConfig) (lineshape.Spec, error) {
	kind, err := lineshape.ParseKind(rc.Kind)
	if err != nil {
		return lineshape.Spec{}, err
	}
	spec := lineshape.Spec{
		Name:                 rc.Name,
		State:                rc.State,
		Bachelor:             rc.Bachelor,
		Kind:                 kind,
		Mass:                 rc.Mass,
		Width:                rc.Width,
		Spin:                 rc.Spin,
		FlipHelicity:         rc.FlipHelicity,
		IgnoreMomenta:        rc.IgnoreMomenta,
		IgnoreSpin:           rc.IgnoreSpin,
		IgnoreBarrierScaling: rc.IgnoreBarrierScaling,
	}
	if rc.Category != "" {
		if spec.Category, err = barrier.ParseCategory(rc.Category); err != nil {
			return spec, err
		}
	}
	if rc.Formalism != "" {
		if spec.Formalism, err = lineshape.ParseSpinFormalism(rc.Formalism); err != nil {
			return spec, err
		}
	}
	if rc.BarrierForm != "" {
		if spec.BarrierForm, err = barrier.ParseForm(rc.BarrierForm); err != nil {
			return spec, err
		}
	}
	if rc.RestFrame != "" {
		if spec.RestFrame, err = barrier.ParseRestFrame(rc.RestFrame); err != nil {
			return spec, err
		}
	}
	return spec, nil
}

// GetSpec builds the lineshape spec of a resonance entry.
func (r *Registry) GetSpec(rc config.ResonanceConfig) (lineshape.Spec, error) {
	fn, ok := r.kinds[strings.ToLower(rc.Kind)]
	if !ok {
		return lineshape.Spec{}, fmt.Errorf("%w: %q for %s", lineshape.ErrUnknownKind, rc.Kind, rc.Name)
	}
	return fn(rc)
}

// GetEfficiency builds the efficiency model: a histogram when one is
// configured, otherwise the constant.
func (r *Registry) GetEfficiency(ec config.EfficiencyConfig) (efficiency.Model, error) {
	name := "constant"
	if ec.Histogram != nil {
		name = "histogram"
	}
	return r.efficiencies[name](ec)
}

func (r *Registry) ListKinds() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []generator.Metric {
	return []generator.Metric{
		metrics.NewAcceptance(),
		metrics.NewMeanEfficiency(),
		metrics.NewEnvelopeHeadroom(),
		metrics.NewEnvelopeRaises(),
	}
}
