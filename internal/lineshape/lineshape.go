// Package lineshape implements the mass-dependent dynamical amplitudes of
// two-body resonances in a three-body decay. A Resonance is a closed
// tagged variant over the supported kinds; the amplitude of each kind is
// computed by a plain switch so the innermost normalisation loop makes no
// indirect calls.
package lineshape

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/dalitz/internal/barrier"
	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("pkg", "lineshape")

// Kind selects the lineshape formula.
type Kind int

const (
	RelBW Kind = iota
	Flatte
	GS
	KMatrixPole
	KMatrixSVP
	MIPWMagPhase
	MIPWRealImag
	FlatNR
)

var kindNames = [...]string{
	RelBW:        "relbw",
	Flatte:       "flatte",
	GS:           "gs",
	KMatrixPole:  "kmatrix-pole",
	KMatrixSVP:   "kmatrix-svp",
	MIPWMagPhase: "mipw-magphase",
	MIPWRealImag: "mipw-realimag",
	FlatNR:       "flatnr",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a case-insensitive name such as "relbw" to a Kind.
func ParseKind(s string) (Kind, error) {
	lower := strings.ToLower(s)
	for i, n := range kindNames {
		if n == lower {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// SpinFormalism selects how the angular term is built.
type SpinFormalism int

const (
	ZemachP SpinFormalism = iota
	ZemachPstar
	Covariant
	Legendre
)

var formalismNames = [...]string{
	ZemachP:     "zemach-p",
	ZemachPstar: "zemach-pstar",
	Covariant:   "covariant",
	Legendre:    "legendre",
}

func (f SpinFormalism) String() string {
	if f < 0 || int(f) >= len(formalismNames) {
		return fmt.Sprintf("SpinFormalism(%d)", int(f))
	}
	return formalismNames[f]
}

// ParseSpinFormalism maps a case-insensitive name to a SpinFormalism.
func ParseSpinFormalism(s string) (SpinFormalism, error) {
	lower := strings.ToLower(s)
	for i, n := range formalismNames {
		if n == lower {
			return SpinFormalism(i), nil
		}
	}
	return 0, fmt.Errorf("lineshape: unknown spin formalism %q", s)
}

// Resonance is one isobar component. Exactly one of the payload pointers
// matching kind is set.
type Resonance struct {
	name  string
	state string
	kind  Kind

	bachelor  int
	daughters [2]int

	mass   float64
	width  float64
	spin   int
	charge int

	category  barrier.Category
	formalism SpinFormalism

	flipHelicity         bool
	ignoreMomenta        bool
	ignoreSpin           bool
	ignoreBarrierScaling bool

	resFactor *barrier.Factor
	parFactor *barrier.Factor

	mParent, mBach float64
	mDaugA, mDaugB float64

	// revision is bumped by every setter that changes the lineshape.
	revision uint64

	bw     *relBWShape
	gs     *gsShape
	flatte *flatteShape
	kmat   *kmatrixTerm
	mipw   *partialWave
}

func (r *Resonance) Name() string               { return r.name }
func (r *Resonance) State() string              { return r.state }
func (r *Resonance) Kind() Kind                 { return r.kind }
func (r *Resonance) Bachelor() int              { return r.bachelor }
func (r *Resonance) Daughters() [2]int          { return r.daughters }
func (r *Resonance) Mass() float64              { return r.mass }
func (r *Resonance) Width() float64             { return r.width }
func (r *Resonance) Spin() int                  { return r.spin }
func (r *Resonance) Charge() int                { return r.charge }
func (r *Resonance) Category() barrier.Category { return r.category }
func (r *Resonance) Formalism() SpinFormalism   { return r.formalism }
func (r *Resonance) Revision() uint64           { return r.revision }

// ResFactor returns the resonance barrier factor, nil for spin 0 shapes
// that carry none.
func (r *Resonance) ResFactor() *barrier.Factor { return r.resFactor }

// ParFactor returns the parent barrier factor.
func (r *Resonance) ParFactor() *barrier.Factor { return r.parFactor }

// IsKMatrix reports whether the component is a K-matrix production term.
func (r *Resonance) IsKMatrix() bool { return r.kind == KMatrixPole || r.kind == KMatrixSVP }

// Propagator returns the name of the shared propagator of a K-matrix term.
func (r *Resonance) Propagator() string {
	if r.kmat == nil {
		return ""
	}
	return r.kmat.prop.Name()
}

// SetMass changes the pole mass. Shapes that cache quantities at the pole
// recompute them on the next evaluation.
func (r *Resonance) SetMass(m float64) error {
	if m <= 0 {
		return fmt.Errorf("lineshape: %s: mass must be positive, got %g", r.name, m)
	}
	if m == r.mass {
		return nil
	}
	r.mass = m
	r.touch()
	return nil
}

// SetWidth changes the nominal width.
func (r *Resonance) SetWidth(w float64) error {
	if w < 0 {
		return fmt.Errorf("lineshape: %s: width must not be negative, got %g", r.name, w)
	}
	if w == r.width {
		return nil
	}
	r.width = w
	r.touch()
	return nil
}

func (r *Resonance) touch() {
	r.revision++
	switch r.kind {
	case RelBW:
		r.bw.stale = true
	case GS:
		r.gs.stale = true
	}
}

// Amplitude evaluates the full dynamical amplitude at a DP point,
// excluding the production coefficient.
func (r *Resonance) Amplitude(p kinematics.Point) complex128 {
	if r.kind == FlatNR {
		return 1
	}
	pk := p.Pair(r.bachelor)
	return r.ResAmp(pk, r.SpinTerm(pk))
}

// SpinTerm returns the angular factor for the pair kinematics.
func (r *Resonance) SpinTerm(pk kinematics.PairKinematics) float64 {
	if r.ignoreSpin || r.spin == 0 {
		return 1.0
	}
	c := pk.CosHel
	if r.flipHelicity {
		c = -c
	}
	q, p, pstar, erm := pk.Q, pk.P, pk.PStar, pk.Erm
	if r.ignoreMomenta {
		q, p, pstar, erm = 1, 1, 1, 1
	}

	leg := legendre(r.spin, c)
	l := float64(r.spin)
	switch r.formalism {
	case ZemachP:
		return math.Pow(q*p, l) * leg
	case ZemachPstar:
		return math.Pow(q*pstar, l) * leg
	case Covariant:
		return math.Pow(q*pstar, l) * barrier.CovFactor(r.spin, erm) * leg
	}
	return leg
}

// legendre returns the Zemach-normalised angular polynomial of order l.
func legendre(l int, c float64) float64 {
	switch l {
	case 1:
		return -2.0 * c
	case 2:
		return 4.0 * (3.0*c*c - 1.0) / 3.0
	case 3:
		return -8.0 * (5.0*c*c*c - 3.0*c) / 5.0
	case 4:
		c2 := c * c
		return 16.0 * (35.0*c2*c2 - 30.0*c2 + 3.0) / 35.0
	case 5:
		c2 := c * c
		return -32.0 * (63.0*c2*c2*c - 70.0*c2*c + 15.0*c) / 63.0
	}
	return 1.0
}

// ResAmp evaluates the lineshape for the given pair kinematics and a
// precomputed spin term.
func (r *Resonance) ResAmp(pk kinematics.PairKinematics, spinTerm float64) complex128 {
	var amp complex128
	switch r.kind {
	case RelBW:
		amp = r.relBWAmp(pk, spinTerm)
	case GS:
		amp = r.gsAmp(pk, spinTerm)
	case Flatte:
		amp = r.flatteAmp(pk, spinTerm)
	case KMatrixPole:
		amp = r.kmatrixPoleAmp(pk)
	case KMatrixSVP:
		amp = r.kmatrixSVPAmp(pk, spinTerm)
	case MIPWMagPhase, MIPWRealImag:
		amp = r.partialWaveAmp(pk, spinTerm)
	case FlatNR:
		amp = 1
	}
	if isBad(amp) {
		log.WithFields(logrus.Fields{"resonance": r.name, "mass": pk.Mass}).Warn("non-finite amplitude, returning zero")
		return 0
	}
	return amp
}

// barrierFactors returns the resonance and parent form factors at pk.
func (r *Resonance) barrierFactors(pk kinematics.PairKinematics) (fr, fb float64) {
	fr, fb = 1.0, 1.0
	if r.spin == 0 {
		return fr, fb
	}
	if r.resFactor != nil {
		fr = r.resFactor.Raw(pk.Q)
	}
	if r.parFactor != nil {
		fb = r.parFactor.Raw(r.parFactor.BachelorMomentum(pk))
	}
	return fr, fb
}

func isBad(z complex128) bool {
	return math.IsNaN(real(z)) || math.IsNaN(imag(z)) || math.IsInf(real(z), 0) || math.IsInf(imag(z), 0)
}

// twoBodyMomentum returns the daughter momentum in the rest frame of a
// system of mass m decaying to ma and mb, or 0 below threshold.
func twoBodyMomentum(m, ma, mb float64) float64 {
	if m <= 0 {
		return 0
	}
	sum := ma + mb
	diff := ma - mb
	t := (m*m - sum*sum) * (m*m - diff*diff)
	if t <= 0 {
		return 0
	}
	return math.Sqrt(t) / (2.0 * m)
}
