// Package config describes a Dalitz-plot model as a yaml document: the
// decay, its isobar components and the integration and generation
// settings.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEvents        = 1000
	DefaultIterationsMax = 100000
	DefaultASqMax        = 1.25
	DefaultBinWidth      = 0.005
	DefaultSqBinWidth    = 0.001
	DefaultNarrowWidth   = 0.020
	DefaultBinningFactor = 100.0
	DefaultPrecision     = 1e-6
	DefaultEfficiency    = 1.0
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid model")

type Config struct {
	Model       string            `yaml:"model"`
	Parent      string            `yaml:"parent"`
	Daughters   []string          `yaml:"daughters"`
	Resonances  []ResonanceConfig `yaml:"resonances"`
	KMatrix     []KMatrixConfig   `yaml:"kmatrix,omitempty"`
	Radii       []RadiusConfig    `yaml:"radii,omitempty"`
	Efficiency  EfficiencyConfig  `yaml:"efficiency"`
	Integration IntegrationConfig `yaml:"integration"`
	Generation  GenerationConfig  `yaml:"generation"`

	// BaseDir resolves relative K-matrix file paths. Load sets it to the
	// directory of the model file.
	BaseDir string `yaml:"-"`
}

// ResonanceConfig is one isobar component. Empty strings and zero values
// select the catalogue defaults.
type ResonanceConfig struct {
	Name     string  `yaml:"name"`
	State    string  `yaml:"state,omitempty"`
	Kind     string  `yaml:"kind"`
	Bachelor int     `yaml:"bachelor,omitempty"`
	Mass     float64 `yaml:"mass,omitempty"`
	Width    float64 `yaml:"width,omitempty"`
	Spin     *int    `yaml:"spin,omitempty"`
	Category string  `yaml:"category,omitempty"`

	Formalism            string `yaml:"formalism,omitempty"`
	BarrierForm          string `yaml:"barrier_form,omitempty"`
	RestFrame            string `yaml:"rest_frame,omitempty"`
	FlipHelicity         bool   `yaml:"flip_helicity,omitempty"`
	IgnoreMomenta        bool   `yaml:"ignore_momenta,omitempty"`
	IgnoreSpin           bool   `yaml:"ignore_spin,omitempty"`
	IgnoreBarrierScaling bool   `yaml:"ignore_barrier_scaling,omitempty"`

	G1 float64 `yaml:"g1,omitempty"`
	G2 float64 `yaml:"g2,omitempty"`

	Propagator string `yaml:"propagator,omitempty"`
	Index      int    `yaml:"index,omitempty"`
	ProdAdler  bool   `yaml:"prod_adler,omitempty"`

	Knots   []float64 `yaml:"knots,omitempty"`
	Values1 []float64 `yaml:"values1,omitempty"`
	Values2 []float64 `yaml:"values2,omitempty"`

	Coeff Coeff `yaml:"coeff"`
}

// Coeff is a complex isobar coefficient.
type Coeff struct {
	Re float64 `yaml:"re"`
	Im float64 `yaml:"im"`
}

func (c Coeff) Complex() complex128 { return complex(c.Re, c.Im) }

// KMatrixConfig defines a propagator from a parameter file.
type KMatrixConfig struct {
	Name     string `yaml:"name"`
	File     string `yaml:"file"`
	Pair     int    `yaml:"pair"`
	Channels int    `yaml:"channels"`
	Poles    int    `yaml:"poles"`
	Row      int    `yaml:"row,omitempty"`
}

// RadiusConfig sets the barrier radius of a category.
type RadiusConfig struct {
	Category string  `yaml:"category"`
	Value    float64 `yaml:"value"`
	Fixed    bool    `yaml:"fixed,omitempty"`
}

// EfficiencyConfig selects a constant efficiency, or a histogram when
// Histogram is set.
type EfficiencyConfig struct {
	Constant  float64          `yaml:"constant"`
	Histogram *HistogramConfig `yaml:"histogram,omitempty"`
}

type HistogramConfig struct {
	XMin      float64   `yaml:"x_min"`
	XMax      float64   `yaml:"x_max"`
	YMin      float64   `yaml:"y_min"`
	YMax      float64   `yaml:"y_max"`
	NX        int       `yaml:"nx"`
	NY        int       `yaml:"ny"`
	Content   []float64 `yaml:"content"`
	SquareDP  bool      `yaml:"square_dp,omitempty"`
	UpperHalf bool      `yaml:"upper_half,omitempty"`
}

type IntegrationConfig struct {
	M13BinWidth        float64 `yaml:"m13_bin_width"`
	M23BinWidth        float64 `yaml:"m23_bin_width"`
	MPrimeBinWidth     float64 `yaml:"mprime_bin_width"`
	ThetaPrimeBinWidth float64 `yaml:"thetaprime_bin_width"`
	NarrowWidth        float64 `yaml:"narrow_width"`
	BinningFactor      float64 `yaml:"binning_factor"`
	Precision          float64 `yaml:"precision"`
	ForceSquareDP      bool    `yaml:"force_square_dp,omitempty"`
}

type GenerationConfig struct {
	Events        int     `yaml:"events"`
	Seed          int64   `yaml:"seed"`
	IterationsMax int     `yaml:"iterations_max"`
	ASqMax        float64 `yaml:"asq_max"`
	SquareDP      bool    `yaml:"square_dp,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:     "d_pipik",
		Parent:    "D+",
		Daughters: []string{"pi+", "pi+", "K-"},
		Resonances: []ResonanceConfig{
			{Name: "NonReson", Kind: "flatnr", Bachelor: 3, Coeff: Coeff{Re: 1}},
		},
		Efficiency: EfficiencyConfig{Constant: DefaultEfficiency},
		Integration: IntegrationConfig{
			M13BinWidth:        DefaultBinWidth,
			M23BinWidth:        DefaultBinWidth,
			MPrimeBinWidth:     DefaultSqBinWidth,
			ThetaPrimeBinWidth: DefaultSqBinWidth,
			NarrowWidth:        DefaultNarrowWidth,
			BinningFactor:      DefaultBinningFactor,
			Precision:          DefaultPrecision,
		},
		Generation: GenerationConfig{
			Events:        DefaultEvents,
			IterationsMax: DefaultIterationsMax,
			ASqMax:        DefaultASqMax,
		},
	}
}

// Load reads a model file from the OS filesystem.
func Load(path string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs reads a model file on top of DefaultConfig, so omitted settings
// keep their defaults. A resonance list in the file replaces the default
// one.
func LoadFs(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading model file %s", path)
	}
	cfg := DefaultConfig()
	cfg.Resonances = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing model file %s", path)
	}
	cfg.BaseDir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "model file %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	return SaveFs(afero.NewOsFs(), path, cfg)
}

func SaveFs(fs afero.Fs, path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encoding model")
	}
	return errors.Wrapf(afero.WriteFile(fs, path, data, 0644), "writing model file %s", path)
}

// Clone returns a deep copy, so presets can be modified safely.
func (c *Config) Clone() *Config {
	out := *c
	out.Daughters = append([]string(nil), c.Daughters...)
	out.KMatrix = append([]KMatrixConfig(nil), c.KMatrix...)
	out.Radii = append([]RadiusConfig(nil), c.Radii...)
	out.Resonances = make([]ResonanceConfig, len(c.Resonances))
	for i, r := range c.Resonances {
		if r.Spin != nil {
			spin := *r.Spin
			r.Spin = &spin
		}
		r.Knots = append([]float64(nil), r.Knots...)
		r.Values1 = append([]float64(nil), r.Values1...)
		r.Values2 = append([]float64(nil), r.Values2...)
		out.Resonances[i] = r
	}
	if c.Efficiency.Histogram != nil {
		h := *c.Efficiency.Histogram
		h.Content = append([]float64(nil), h.Content...)
		out.Efficiency.Histogram = &h
	}
	return &out
}

// Symmetric reports whether daughters 1 and 2 are identical.
func (c *Config) Symmetric() bool {
	return len(c.Daughters) == 3 && strings.EqualFold(c.Daughters[0], c.Daughters[1])
}

// FullySymmetric reports whether all three daughters are identical.
func (c *Config) FullySymmetric() bool {
	return c.Symmetric() && strings.EqualFold(c.Daughters[1], c.Daughters[2])
}

// Coeffs collects the resonance coefficients in declaration order.
func (c *Config) Coeffs() []complex128 {
	out := make([]complex128, len(c.Resonances))
	for i, r := range c.Resonances {
		out[i] = r.Coeff.Complex()
	}
	return out
}

// Validate checks the structural rules that do not need the catalogues:
// particle and physics names are resolved when the model is built.
func (c *Config) Validate() error {
	if c.Parent == "" {
		return fmt.Errorf("%w: parent must be set", ErrInvalid)
	}
	if len(c.Daughters) != 3 {
		return fmt.Errorf("%w: need 3 daughters, got %d", ErrInvalid, len(c.Daughters))
	}
	if len(c.Resonances) == 0 {
		return fmt.Errorf("%w: no resonances", ErrInvalid)
	}

	props := make(map[string]bool, len(c.KMatrix))
	for _, k := range c.KMatrix {
		if k.Name == "" || k.File == "" {
			return fmt.Errorf("%w: K-matrix propagator needs a name and a file", ErrInvalid)
		}
		if k.Pair < 1 || k.Pair > 3 {
			return fmt.Errorf("%w: K-matrix %s: pair %d not in 1..3", ErrInvalid, k.Name, k.Pair)
		}
		props[k.Name] = true
	}

	names := make(map[string]bool, len(c.Resonances))
	for _, r := range c.Resonances {
		if r.Name == "" {
			return fmt.Errorf("%w: resonance without a name", ErrInvalid)
		}
		if names[r.Name] {
			return fmt.Errorf("%w: duplicate resonance %s", ErrInvalid, r.Name)
		}
		names[r.Name] = true

		if r.Propagator != "" {
			if !props[r.Propagator] {
				return fmt.Errorf("%w: %s: unknown propagator %s", ErrInvalid, r.Name, r.Propagator)
			}
			continue
		}
		if r.Bachelor < 1 || r.Bachelor > 3 {
			return fmt.Errorf("%w: %s: bachelor %d not in 1..3", ErrInvalid, r.Name, r.Bachelor)
		}
	}

	eff := c.Efficiency
	if eff.Histogram == nil && (eff.Constant < 0 || eff.Constant > 1) {
		return fmt.Errorf("%w: efficiency %g not in [0, 1]", ErrInvalid, eff.Constant)
	}
	if c.Generation.IterationsMax <= 0 || c.Generation.ASqMax <= 0 {
		return fmt.Errorf("%w: iterations_max and asq_max must be positive", ErrInvalid)
	}
	return nil
}
