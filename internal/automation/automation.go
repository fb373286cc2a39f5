// Package automation runs scripted sequences of toy generations and sweeps
// of isobar coefficients.
package automation

import (
	"context"
	"fmt"
	"math/cmplx"

	"github.com/pkg/errors"
	"github.com/san-kum/dalitz/internal/config"
	"github.com/san-kum/dalitz/internal/experiment"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var log = logrus.WithField("pkg", "automation")

// Scenario defines a scripted generation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one generation. Config, when set, is a model file
// resolved against the scenario's directory; otherwise Model and Preset
// select a built-in preset.
type ScenarioStep struct {
	Model    string  `yaml:"model"`
	Preset   string  `yaml:"preset"`
	Config   string  `yaml:"config"`
	Events   int     `yaml:"events"`
	Seed     int64   `yaml:"seed"`
	ASqMax   float64 `yaml:"asq_max"`
	SquareDP bool    `yaml:"square_dp"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(fs afero.Fs, path string) (*Scenario, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario %s", path)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, errors.Wrapf(err, "parsing scenario %s", path)
	}
	if len(scenario.Steps) == 0 {
		return nil, errors.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

func (s ScenarioStep) resolve(fs afero.Fs) (*config.Config, error) {
	var cfg *config.Config
	if s.Config != "" {
		c, err := config.LoadFs(fs, s.Config)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.GetPreset(s.Model, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %s/%s", s.Model, s.Preset)
		}
	}

	if s.Events > 0 {
		cfg.Generation.Events = s.Events
	}
	if s.Seed != 0 {
		cfg.Generation.Seed = s.Seed
	}
	if s.ASqMax > 0 {
		cfg.Generation.ASqMax = s.ASqMax
	}
	if s.SquareDP {
		cfg.Generation.SquareDP = true
	}
	return cfg, nil
}

// RunScenario executes all steps in a scenario
func RunScenario(ctx context.Context, fs afero.Fs, scenario *Scenario, registry *experiment.Registry) ([]*experiment.Outcome, error) {
	results := make([]*experiment.Outcome, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.WithFields(logrus.Fields{
			"scenario": scenario.Name,
			"step":     i + 1,
			"of":       len(scenario.Steps),
			"model":    step.Model,
			"preset":   step.Preset,
		}).Info("running step")

		cfg, err := step.resolve(fs)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(fs, registry, registry.DefaultMetrics()); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, result)
	}

	return results, nil
}

// CoefficientSweep scales the magnitude of one isobar coefficient between
// Min and Max, keeping its phase, and records the fit fractions at each
// step. No events are generated.
type CoefficientSweep struct {
	Resonance string
	Min       float64
	Max       float64
	NumSteps  int
}

// SweepResult holds the fit fractions at one sweep point
type SweepResult struct {
	Magnitude    float64
	FitFractions []float64
	Total        float64
}

// RunSweep executes a coefficient sweep
func RunSweep(ctx context.Context, fs afero.Fs, cfg *config.Config, sweep *CoefficientSweep, registry *experiment.Registry) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, errors.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	idx := -1
	for i, r := range cfg.Resonances {
		if r.Name == sweep.Resonance {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.Errorf("no resonance %q in model %s", sweep.Resonance, cfg.Model)
	}
	phase := cmplx.Phase(cfg.Resonances[idx].Coeff.Complex())

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		mag := sweep.Min + float64(i)*paramStep
		c := cmplx.Rect(mag, phase)

		stepCfg := cfg.Clone()
		stepCfg.Resonances[idx].Coeff = config.Coeff{Re: real(c), Im: imag(c)}

		model, err := experiment.Build(fs, stepCfg, registry)
		if err != nil {
			return results, fmt.Errorf("sweep step %d: %w", i+1, err)
		}

		extra := model.Engine.ExtraInfo()
		ff := make([]float64, len(extra.FitFrac))
		for j := range extra.FitFrac {
			ff[j] = extra.FitFrac[j][j]
		}
		results = append(results, SweepResult{
			Magnitude:    mag,
			FitFractions: ff,
			Total:        extra.FitFracTotal,
		})

		log.WithFields(logrus.Fields{"step": i + 1, "of": sweep.NumSteps, "magnitude": mag}).Debug("sweep step")
	}

	return results, nil
}
