package dynamo

import (
	"github.com/san-kum/dalitz/internal/barrier"
	"github.com/san-kum/dalitz/internal/kinematics"
)

// State is a stage of the engine lifecycle.
type State int

const (
	Uninitialised State = iota
	Initialised
	NormalisationComputed
	Ready
)

var stateNames = [...]string{"uninitialised", "initialised", "normalisation-computed", "ready"}

func (s State) String() string {
	if s < Uninitialised || s > Ready {
		return "unknown"
	}
	return stateNames[s]
}

// Observer is notified of every lifecycle transition.
type Observer interface {
	OnStateChange(from, to State)
}

// Options tunes the integration and the symmetry treatment of an engine.
type Options struct {
	// Default bin widths of the conventional grid, in GeV.
	M13BinWidth float64
	M23BinWidth float64

	// Bin widths of the square-DP grid.
	MPrimeBinWidth     float64
	ThetaPrimeBinWidth float64

	// Resonances with 0 < Γ <= NarrowWidth get a fine window of
	// bin width Γ/BinningFactor.
	NarrowWidth   float64
	BinningFactor float64

	// Precision is the tolerance on the Gauss-Legendre weight totals.
	Precision float64

	// Symmetric adds the 1<->2 exchanged amplitude; FullySymmetric adds all
	// six daughter permutations and takes precedence.
	Symmetric      bool
	FullySymmetric bool

	// ForceSquareDP integrates over the square DP even without a narrow
	// resonance in m12.
	ForceSquareDP bool

	// Radii is the barrier-radius registry shared by the resonances. A nil
	// value gets a fresh registry with default radii.
	Radii *barrier.Radii

	// DaughterNames label the integrals dump.
	DaughterNames [3]string
}

func DefaultOptions() Options {
	return Options{
		M13BinWidth:        0.005,
		M23BinWidth:        0.005,
		MPrimeBinWidth:     0.001,
		ThetaPrimeBinWidth: 0.001,
		NarrowWidth:        0.020,
		BinningFactor:      100.0,
		Precision:          1e-6,
		DaughterNames:      [3]string{"daughter1", "daughter2", "daughter3"},
	}
}

// Event is one entry of a data sample.
type Event struct {
	M13Sq  float64
	M23Sq  float64
	TagCat int
}

// Info is the amplitude information at one DP point.
type Info struct {
	Point kinematics.Point

	// FF holds the unnormalised, symmetrised dynamical amplitudes.
	FF  []complex128
	Amp complex128

	// ASq is |Amp|², multiplied by Eff where the efficiency applies.
	ASq        float64
	Eff        float64
	Likelihood float64
}

// ExtraInfo holds fit fractions and rates derived from the integrals.
// Fraction matrices are upper triangular: [i][i] is the fraction of
// component i and [i][j], j > i, the interference term.
type ExtraInfo struct {
	FitFrac          [][]float64
	FitFracEffUnCorr [][]float64
	FitFracTotal     float64
	DPRate           float64
	MeanEff          float64
	KMatrixFitFrac   map[string]float64
}

func (x ExtraInfo) clone() ExtraInfo {
	c := x
	c.FitFrac = cloneMatrix(x.FitFrac)
	c.FitFracEffUnCorr = cloneMatrix(x.FitFracEffUnCorr)
	if x.KMatrixFitFrac != nil {
		c.KMatrixFitFrac = make(map[string]float64, len(x.KMatrixFitFrac))
		for k, v := range x.KMatrixFitFrac {
			c.KMatrixFitFrac[k] = v
		}
	}
	return c
}

func cloneMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	c := make([][]float64, len(m))
	for i := range m {
		c[i] = append([]float64(nil), m[i]...)
	}
	return c
}
