package lineshape

import (
	"fmt"

	"github.com/san-kum/dalitz/internal/barrier"
	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/san-kum/dalitz/internal/kmatrix"
	"github.com/sirupsen/logrus"
)

// Spec describes a resonance to build. Zero values select the catalogue
// defaults: Mass, Width and G1/G2 of 0, a nil Spin and a Category of
// barrier.Parent (never a resonance category) all mean "not overridden".
type Spec struct {
	Name     string
	State    string
	Bachelor int
	Kind     Kind

	Mass     float64
	Width    float64
	Spin     *int
	Category barrier.Category

	Formalism            SpinFormalism
	BarrierForm          barrier.Form
	RestFrame            barrier.RestFrame
	FlipHelicity         bool
	IgnoreMomenta        bool
	IgnoreSpin           bool
	IgnoreBarrierScaling bool

	// Flatté couplings.
	G1, G2 float64

	// K-matrix production terms. Index is the 1-based pole (KMatrixPole)
	// or channel (KMatrixSVP).
	Propagator *kmatrix.Propagator
	Index      int
	ProdAdler  bool

	// Partial waves.
	Knots            []float64
	Values1, Values2 []float64
	Spline1, Spline2 *PartialWaveConfig
}

// Placeholder catalogue entries for kinds that need no physical state.
var genericStates = map[Kind]string{
	FlatNR:       "NonReson",
	KMatrixPole:  "KMatrix",
	KMatrixSVP:   "KMatrix",
	MIPWMagPhase: "Spline_S0",
	MIPWRealImag: "Spline_S0",
}

// pairDaughters returns the daughters forming the pair opposite bachelor.
func pairDaughters(bachelor int) ([2]int, error) {
	switch bachelor {
	case 1:
		return [2]int{2, 3}, nil
	case 2:
		return [2]int{1, 3}, nil
	case 3:
		return [2]int{1, 2}, nil
	}
	return [2]int{}, fmt.Errorf("%w: got %d", ErrBadBachelor, bachelor)
}

func lookupState(spec Spec) (Info, error) {
	state := spec.State
	if state == "" {
		state = spec.Name
	}
	info, err := Lookup(state)
	if err == nil || spec.State != "" {
		return info, err
	}
	if generic, ok := genericStates[spec.Kind]; ok {
		return Lookup(generic)
	}
	return info, err
}

// New builds a resonance for the decay described by kin. Barrier radii are
// allocated in radii: one shared slot per category plus the parent slot.
func New(spec Spec, kin *kinematics.Kinematics, radii *barrier.Radii) (*Resonance, error) {
	if kin == nil {
		return nil, fmt.Errorf("lineshape: %s: nil kinematics", spec.Name)
	}
	if spec.Name == "" {
		return nil, fmt.Errorf("lineshape: resonance name must not be empty")
	}

	bachelor := spec.Bachelor
	if spec.Kind == KMatrixPole || spec.Kind == KMatrixSVP {
		if spec.Propagator == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoPropagator, spec.Name)
		}
		if bachelor == 0 {
			bachelor = spec.Propagator.Pair()
		}
	}
	daughters, err := pairDaughters(bachelor)
	if err != nil {
		return nil, fmt.Errorf("lineshape: %s: %w", spec.Name, err)
	}

	info, err := lookupState(spec)
	if err != nil {
		return nil, err
	}

	r := &Resonance{
		name:                 spec.Name,
		state:                info.Name,
		kind:                 spec.Kind,
		bachelor:             bachelor,
		daughters:            daughters,
		mass:                 info.Mass,
		width:                info.Width,
		spin:                 info.Spin,
		charge:               info.Charge,
		category:             info.Category,
		formalism:            spec.Formalism,
		flipHelicity:         spec.FlipHelicity,
		ignoreMomenta:        spec.IgnoreMomenta,
		ignoreSpin:           spec.IgnoreSpin,
		ignoreBarrierScaling: spec.IgnoreBarrierScaling,
		mParent:              kin.Parent(),
		mBach:                kin.Daughter(bachelor),
		mDaugA:               kin.Daughter(daughters[0]),
		mDaugB:               kin.Daughter(daughters[1]),
	}
	if spec.Spin != nil {
		r.spin = *spec.Spin
	}
	if spec.Category != barrier.Parent {
		r.category = spec.Category
	}

	if err := r.buildPayload(spec); err != nil {
		return nil, fmt.Errorf("lineshape: %s: %w", spec.Name, err)
	}
	if spec.Mass > 0 {
		r.mass = spec.Mass
	}
	if spec.Width > 0 {
		r.width = spec.Width
	}

	if err := r.buildFactors(spec, radii); err != nil {
		return nil, fmt.Errorf("lineshape: %s: %w", spec.Name, err)
	}

	log.WithFields(logrus.Fields{
		"name":     r.name,
		"state":    r.state,
		"kind":     r.kind,
		"bachelor": r.bachelor,
		"spin":     r.spin,
		"mass":     r.mass,
		"width":    r.width,
	}).Info("resonance created")
	return r, nil
}

func (r *Resonance) buildPayload(spec Spec) error {
	switch spec.Kind {
	case RelBW:
		r.bw = &relBWShape{stale: true}
	case GS:
		if r.spin != 1 {
			log.WithField("name", r.name).Warnf("spin %d forced to 1 for Gounaris-Sakurai", r.spin)
			r.spin = 1
		}
		r.gs = &gsShape{stale: true}
	case Flatte:
		f, m, err := flatteDefaults(r.state)
		if err != nil {
			return err
		}
		if r.spin != 0 {
			log.WithField("name", r.name).Warnf("spin %d forced to 0 for Flatté", r.spin)
			r.spin = 0
		}
		r.mass = m
		if spec.G1 > 0 {
			f.g1 = spec.G1
		}
		if spec.G2 > 0 {
			f.g2 = spec.G2
		}
		r.flatte = f
	case KMatrixPole, KMatrixSVP:
		limit := spec.Propagator.NPoles()
		if spec.Kind == KMatrixSVP {
			limit = spec.Propagator.NChannels()
		}
		if spec.Index < 1 || spec.Index > limit {
			return fmt.Errorf("%w: %d not between 1 and %d", ErrBadIndex, spec.Index, limit)
		}
		if spec.Kind == KMatrixPole || spec.Spin == nil {
			r.spin = 0
		}
		r.kmat = &kmatrixTerm{prop: spec.Propagator, index: spec.Index - 1, prodAdler: spec.ProdAdler}
	case MIPWMagPhase, MIPWRealImag:
		c1, c2 := DefaultPartialWaveConfig(), DefaultPartialWaveConfig()
		if spec.Spline1 != nil {
			c1 = *spec.Spline1
		}
		if spec.Spline2 != nil {
			c2 = *spec.Spline2
		}
		w, err := newPartialWave(spec.Kind, spec.Knots, spec.Values1, spec.Values2,
			r.mDaugA+r.mDaugB, r.mParent-r.mBach, c1, c2)
		if err != nil {
			return err
		}
		r.mipw = w
	case FlatNR:
		r.spin = 0
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(spec.Kind))
	}
	return nil
}

func (r *Resonance) buildFactors(spec Spec, radii *barrier.Radii) error {
	if r.spin == 0 || radii == nil {
		return nil
	}
	resH := radii.Handle(r.category, r.name)
	resFactor, err := barrier.NewFactor(radii, resH, r.spin, spec.BarrierForm, barrier.ResonanceFrame)
	if err != nil {
		return err
	}
	parH := radii.Handle(barrier.Parent, "")
	parFactor, err := barrier.NewFactor(radii, parH, r.spin, spec.BarrierForm, spec.RestFrame)
	if err != nil {
		return err
	}
	r.resFactor, r.parFactor = resFactor, parFactor
	return nil
}
