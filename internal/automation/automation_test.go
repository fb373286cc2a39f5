package automation

import (
	"context"
	"testing"

	"github.com/san-kum/dalitz/internal/config"
	"github.com/san-kum/dalitz/internal/experiment"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
name: smoke
description: two quick samples
steps:
  - model: d_pipik
    preset: nr
    events: 50
    seed: 3
  - config: models/flat.yaml
    events: 20
    seed: 4
`

func coarse(cfg *config.Config) *config.Config {
	cfg.Integration.M13BinWidth = 0.02
	cfg.Integration.M23BinWidth = 0.02
	cfg.Integration.MPrimeBinWidth = 0.01
	cfg.Integration.ThetaPrimeBinWidth = 0.01
	return cfg
}

func TestScenario(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "scenario.yaml", []byte(scenarioYAML), 0644))
	require.NoError(t, config.SaveFs(fs, "models/flat.yaml", coarse(config.DefaultConfig())))

	sc, err := LoadScenario(fs, "scenario.yaml")
	require.NoError(t, err)
	assert.Equal(t, "smoke", sc.Name)
	require.Len(t, sc.Steps, 2)

	outs, err := RunScenario(context.Background(), fs, sc, experiment.NewRegistry())
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Len(t, outs[0].Result.Events, 50)
	assert.Equal(t, int64(3), outs[0].Config.Generation.Seed)
	assert.Len(t, outs[1].Result.Events, 20)
}

func TestScenarioErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := LoadScenario(fs, "missing.yaml")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "empty.yaml", []byte("name: empty\n"), 0644))
	_, err = LoadScenario(fs, "empty.yaml")
	assert.Error(t, err)

	sc := &Scenario{Steps: []ScenarioStep{{Model: "d_pipik", Preset: "nope"}}}
	outs, err := RunScenario(context.Background(), fs, sc, experiment.NewRegistry())
	assert.Error(t, err)
	assert.Empty(t, outs)
}

func TestCoefficientSweep(t *testing.T) {
	cfg := coarse(config.GetPreset("d_pipik", "kstar"))
	sweep := &CoefficientSweep{Resonance: "NonReson", Min: 0, Max: 4, NumSteps: 3}

	res, err := RunSweep(context.Background(), afero.NewMemMapFs(), cfg, sweep, experiment.NewRegistry())
	require.NoError(t, err)
	require.Len(t, res, 3)

	// NonReson is the second component
	assert.InDelta(t, 0, res[0].FitFractions[1], 1e-9)
	assert.InDelta(t, 1, res[0].FitFractions[0], 1e-6)
	assert.Greater(t, res[2].FitFractions[1], res[1].FitFractions[1])
	assert.Less(t, res[2].FitFractions[0], res[1].FitFractions[0])
	assert.Equal(t, 2.0, res[1].Magnitude)
}

func TestCoefficientSweepErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	reg := experiment.NewRegistry()
	_, err := RunSweep(context.Background(), afero.NewMemMapFs(), cfg, &CoefficientSweep{Resonance: "x", NumSteps: 3}, reg)
	assert.Error(t, err)
	_, err = RunSweep(context.Background(), afero.NewMemMapFs(), cfg, &CoefficientSweep{Resonance: "NonReson", NumSteps: 1}, reg)
	assert.Error(t, err)
}
