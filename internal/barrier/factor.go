// Package barrier implements Blatt-Weisskopf style angular-momentum barrier
// factors and the arena of radius parameters they share.
package barrier

import (
	"fmt"
	"math"

	"github.com/san-kum/dalitz/internal/kinematics"
)

// MaxSpin is the highest spin with a barrier formula.
const MaxSpin = 5

// Form selects the barrier functional form.
type Form int

const (
	BlattWeisskopf Form = iota
	BlattWeisskopfPrime
	Exponential
)

func (f Form) String() string {
	switch f {
	case BlattWeisskopf:
		return "bw"
	case BlattWeisskopfPrime:
		return "bwprime"
	case Exponential:
		return "exp"
	}
	return fmt.Sprintf("Form(%d)", int(f))
}

// ParseForm maps "bw", "bwprime" or "exp" to a Form.
func ParseForm(s string) (Form, error) {
	for _, f := range []Form{BlattWeisskopf, BlattWeisskopfPrime, Exponential} {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("barrier: unknown form %q", s)
}

// RestFrame selects which momentum the parent barrier factor uses.
type RestFrame int

const (
	ResonanceFrame RestFrame = iota
	ParentFrame
	Covariant
)

func (r RestFrame) String() string {
	switch r {
	case ResonanceFrame:
		return "resonance"
	case ParentFrame:
		return "parent"
	case Covariant:
		return "covariant"
	}
	return fmt.Sprintf("RestFrame(%d)", int(r))
}

// ParseRestFrame maps "resonance", "parent" or "covariant" to a RestFrame.
func ParseRestFrame(s string) (RestFrame, error) {
	for _, r := range []RestFrame{ResonanceFrame, ParentFrame, Covariant} {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("barrier: unknown rest frame %q", s)
}

// Numerator constants of the Blatt-Weisskopf form, chosen so the
// unnormalised factor tends to 1 at large z.
var bwNumerator = [MaxSpin + 1]float64{1, 2, 13, 277, 12746, 998881}

// Factor is an immutable barrier factor of one spin and form. Its radius
// lives in a shared Radii slot and is the only value that can change.
type Factor struct {
	radii  *Radii
	handle RadiusHandle
	spin   int
	form   Form
	frame  RestFrame
}

// NewFactor builds a factor reading its radius from slot h of radii.
func NewFactor(radii *Radii, h RadiusHandle, spin int, form Form, frame RestFrame) (*Factor, error) {
	if radii == nil {
		return nil, ErrNoRadii
	}
	if spin < 0 || spin > MaxSpin {
		return nil, fmt.Errorf("%w: spin %d", ErrSpinTooHigh, spin)
	}
	return &Factor{radii: radii, handle: h, spin: spin, form: form, frame: frame}, nil
}

// WithSpin returns a factor sharing this radius slot with a different spin.
func (f *Factor) WithSpin(spin int) (*Factor, error) {
	return NewFactor(f.radii, f.handle, spin, f.form, f.frame)
}

func (f *Factor) Spin() int            { return f.spin }
func (f *Factor) Form() Form           { return f.form }
func (f *Factor) RestFrame() RestFrame { return f.frame }
func (f *Factor) Handle() RadiusHandle { return f.handle }

// Radius returns the current value of the shared radius.
func (f *Factor) Radius() float64 { return f.radii.Value(f.handle) }

// denominator returns D_L(z).
func (f *Factor) denominator(z float64) float64 {
	switch f.spin {
	case 1:
		return z + 1.0
	case 2:
		return (z+3.0)*z + 9.0
	case 3:
		return ((z+6.0)*z+45.0)*z + 225.0
	case 4:
		return (((z+10.0)*z+135.0)*z+1575.0)*z + 11025.0
	case 5:
		return ((((z+15.0)*z+315.0)*z+6300.0)*z+99225.0)*z + 893025.0
	}
	return 1.0
}

// Raw returns the conventional unnormalised factor. Lineshapes use it in
// ratios F(q)/F(q0) and in the product of resonance and parent factors.
func (f *Factor) Raw(p float64) float64 {
	if f.spin == 0 {
		return 1.0
	}
	r := f.Radius()
	z := r * r * p * p

	switch f.form {
	case BlattWeisskopf:
		return math.Sqrt(bwNumerator[f.spin] * math.Pow(z, float64(f.spin)) / f.denominator(z))
	case BlattWeisskopfPrime:
		return math.Sqrt(1.0 / f.denominator(z))
	case Exponential:
		return math.Exp(-math.Pow(z, 0.5*float64(f.spin)))
	}
	return 1.0
}

// FormFactor returns the damping factor normalised to 1 at p = 0. It lies
// in (0, 1] and is identically 1 for spin 0. The threshold behaviour q^L
// is carried by the spin term, so both Blatt-Weisskopf forms damp as
// sqrt(D_L(0)/D_L(z)).
func (f *Factor) FormFactor(p float64) float64 {
	if f.spin == 0 {
		return 1.0
	}
	r := f.Radius()
	z := r * r * p * p

	switch f.form {
	case BlattWeisskopf, BlattWeisskopfPrime:
		return math.Sqrt(f.denominator(0) / f.denominator(z))
	case Exponential:
		return math.Exp(-math.Pow(z, 0.5*float64(f.spin)))
	}
	return 1.0
}

// BachelorMomentum picks the momentum the parent factor is evaluated at.
func (f *Factor) BachelorMomentum(pk kinematics.PairKinematics) float64 {
	switch f.frame {
	case ParentFrame:
		return pk.PStar
	case Covariant:
		cov := CovFactor(f.spin, pk.Erm)
		switch {
		case f.spin > 2:
			cov = math.Pow(cov, 1.0/float64(f.spin))
		case f.spin == 2:
			cov = math.Sqrt(cov)
		}
		return pk.PStar * cov
	}
	return pk.P
}

// CovFactor is the spin-dependent covariant factor f_L(E/m). Spin 5 and
// above return 1.
func CovFactor(spin int, erm float64) float64 {
	switch spin {
	case 1:
		return erm
	case 2:
		return erm*erm + 0.5
	case 3:
		return erm * (erm*erm + 1.5)
	case 4:
		e2 := erm * erm
		return (8.0*e2*e2 + 24.0*e2 + 3.0) / 35.0
	}
	return 1.0
}
