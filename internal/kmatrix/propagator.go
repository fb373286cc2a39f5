package kmatrix

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// mPiSq scales the Adler zero constant sA.
const mPiSq = mPi * mPi

// Propagator evaluates one row of Γ(I - iKρΓ²)⁻¹ as a function of s. The
// last evaluation is cached and reused while s stays within a relative
// 1e-6 of it.
type Propagator struct {
	name   string
	pair   int
	row    int // 0-based
	params *Params

	sAConst      float64
	gamAInvRadSq []float64

	ev *Evaluation
}

// Evaluation is the state of a propagator at one value of s.
type Evaluation struct {
	S         float64
	PoleDenom []float64
	Adler     float64
	ScattSVP  float64
	ProdSVP   float64
	Rho       []complex128
	Gamma     []float64
	K         *mat.Dense
	// Prop is the full complex propagator Γ(I - iKρΓ²)⁻¹.
	Prop [][]complex128

	row int
}

// NewPropagator builds a propagator for the resonance pair (1, 2 or 3,
// the bachelor index) reading row (1-based) of the propagator matrix.
func NewPropagator(name string, params *Params, pair, row int) (*Propagator, error) {
	if params == nil {
		return nil, fmt.Errorf("kmatrix: %s: nil parameters", name)
	}
	if row < 1 || row > params.NChannels {
		return nil, fmt.Errorf("%w: %d not between 1 and %d", ErrBadRow, row, params.NChannels)
	}

	p := &Propagator{
		name:         name,
		pair:         pair,
		row:          row - 1,
		params:       params,
		sAConst:      0.5 * params.SA * mPiSq,
		gamAInvRadSq: make([]float64, params.NChannels),
	}
	for i := range p.gamAInvRadSq {
		r := params.Radii[i]
		p.gamAInvRadSq[i] = params.BarrierA[i] / (r * r)
	}

	log.WithFields(logrus.Fields{
		"name":     name,
		"channels": params.NChannels,
		"poles":    params.NPoles,
		"row":      row,
	}).Debug("K-matrix propagator defined")
	return p, nil
}

func (p *Propagator) Name() string { return p.name }
func (p *Propagator) Pair() int { return p.pair }
func (p *Propagator) Row() int { return p.row + 1 }
func (p *Propagator) NChannels() int { return p.params.NChannels }
func (p *Propagator) NPoles() int { return p.params.NPoles }
func (p *Propagator) Params() *Params { return p.params }

// Coupling returns g for the 0-based pole and channel.
func (p *Propagator) Coupling(pole, channel int) float64 {
	if pole < 0 || pole >= p.params.NPoles || channel < 0 || channel >= p.params.NChannels {
		return 0
	}
	return p.params.Couplings[pole][channel]
}

// Invalidate drops the cached evaluation, e.g. after a parameter change.
func (p *Propagator) Invalidate() {
	p.sAConst = 0.5 * p.params.SA * mPiSq
	p.ev = nil
}

// At returns the evaluation at s, reusing the cache when possible.
func (p *Propagator) At(s float64) *Evaluation {
	if p.ev != nil && math.Abs(s-p.ev.S) < 1e-6*s {
		return p.ev
	}
	p.ev = p.evaluate(s)
	return p.ev
}

func svpTerm(mSq0, s, s0 float64) float64 {
	ds := s - s0
	if math.Abs(ds) > 1e-6 {
		return (mSq0 - s0) / ds
	}
	return 0
}

func (p *Propagator) evaluate(s float64) *Evaluation {
	par := p.params
	n := par.NChannels

	ev := &Evaluation{
		S:         s,
		PoleDenom: make([]float64, par.NPoles),
		Rho:       make([]complex128, n),
		Gamma:     make([]float64, n),
		K:         mat.NewDense(n, n, nil),
		Prop:      make([][]complex128, n),
		row:       p.row,
	}

	for i, mSq := range par.PoleMassSq {
		if d := mSq - s; math.Abs(d) > 1e-6 {
			ev.PoleDenom[i] = 1.0 / d
		}
	}
	if ds := s - par.SA0; math.Abs(ds) > 1e-6 {
		ev.Adler = (s - p.sAConst) * (1.0 - par.SA0) / ds
	}
	ev.ScattSVP = svpTerm(par.MSq0, s, par.S0Scatt)
	ev.ProdSVP = svpTerm(par.MSq0, s, par.S0Prod)

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var kij float64
			for pole := 0; pole < par.NPoles; pole++ {
				kij += ev.PoleDenom[pole] * par.Couplings[pole][i] * par.Couplings[pole][j]
			}
			kij += par.Scattering[i][j] * ev.ScattSVP
			kij *= ev.Adler
			ev.K.Set(i, j, kij)
			ev.K.Set(j, i, kij)
		}
	}

	for i, c := range par.Channels {
		ev.Rho[i] = Rho(c, s)
		ev.Gamma[i] = 1.0
		if l := par.L[i]; l != 0 {
			q := momentum(c, s)
			ev.Gamma[i] = math.Pow(q, float64(l)) / math.Pow(q*q+p.gamAInvRadSq[i], 0.5*float64(l))
		}
	}

	// I - iKρΓ² = A + iB with A = I + K Im(ρ)Γ² and B = -K Re(ρ)Γ², inverted
	// through the real block form [[A, -B], [B, A]].
	block := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			g2 := ev.Gamma[j] * ev.Gamma[j]
			a := ev.K.At(i, j) * imag(ev.Rho[j]) * g2
			if i == j {
				a += 1
			}
			b := -ev.K.At(i, j) * real(ev.Rho[j]) * g2
			block.Set(i, j, a)
			block.Set(i+n, j+n, a)
			block.Set(i, j+n, -b)
			block.Set(i+n, j, b)
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(block); err != nil {
		log.WithFields(logrus.Fields{"name": p.name, "s": s}).WithError(err).Warn("singular K-matrix propagator")
	}

	for i := 0; i < n; i++ {
		ev.Prop[i] = make([]complex128, n)
		for j := 0; j < n; j++ {
			c := inv.At(i, j)
			d := inv.At(i+n, j)
			ev.Prop[i][j] = complex(ev.Gamma[i]*c, ev.Gamma[i]*d)
		}
	}
	return ev
}

// PropTerm returns element (row, channel) of the propagator, channel 0-based.
func (e *Evaluation) PropTerm(channel int) complex128 {
	if channel < 0 || channel >= len(e.Prop) {
		return 0
	}
	return e.Prop[e.row][channel]
}

// THat returns element (row, channel) of the Lorentz-invariant transition
// matrix (I - iKρ)⁻¹K, channel 1-based.
func (e *Evaluation) THat(channel int) complex128 {
	n := len(e.Prop)
	if channel < 1 || channel > n {
		return 0
	}
	var t complex128
	for k := 0; k < n; k++ {
		t += e.Prop[e.row][k] * complex(e.K.At(k, channel-1), 0)
	}
	return t
}

// TransitionAmp returns element (row, channel) of the unitary transition
// matrix conj(√ρ) T̂ √ρ, channel 1-based.
func (e *Evaluation) TransitionAmp(channel int) complex128 {
	n := len(e.Prop)
	if channel < 1 || channel > n {
		return 0
	}
	left := cmplx.Conj(cmplx.Sqrt(e.Rho[e.row]))
	right := cmplx.Sqrt(e.Rho[channel-1])
	return left * e.THat(channel) * right
}
