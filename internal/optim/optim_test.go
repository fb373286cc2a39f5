package optim

import (
	"context"
	"testing"

	"github.com/san-kum/dalitz/internal/config"
	"github.com/san-kum/dalitz/internal/experiment"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Integration.M13BinWidth = 0.02
	cfg.Integration.M23BinWidth = 0.02
	cfg.Integration.MPrimeBinWidth = 0.01
	cfg.Integration.ThetaPrimeBinWidth = 0.01
	cfg.Generation.Events = 200
	cfg.Generation.Seed = 5
	return cfg
}

func TestScanASqMaxFlat(t *testing.T) {
	model, err := experiment.Build(afero.NewMemMapFs(), flatConfig(), experiment.NewRegistry())
	require.NoError(t, err)

	peak, err := ScanASqMax(model.Engine, 40, false)
	require.NoError(t, err)
	// flat model normalised over the DP area
	assert.InDelta(t, 0.3123, peak.Value, 5e-3)
	assert.True(t, model.Kin.WithinDPLimits(peak.Point.M13Sq, peak.Point.M23Sq))

	sq, err := ScanASqMax(model.Engine, 40, true)
	require.NoError(t, err)
	assert.Greater(t, sq.Value, 0.0)

	_, err = ScanASqMax(model.Engine, 1, false)
	assert.ErrorIs(t, err, ErrBadGrid)
}

func TestGridSearch(t *testing.T) {
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := flatConfig()
		cfg.Generation.ASqMax = params["asq_max"]
		exp := experiment.New(cfg)
		reg := experiment.NewRegistry()
		if err := exp.Setup(afero.NewMemMapFs(), reg, reg.DefaultMetrics()); err != nil {
			return nil, err
		}
		return exp, nil
	}

	gs := NewGridSearch([]string{"asq_max"}, [][]float64{{1e-3, 1.25}})
	best, val, err := gs.Search(context.Background(), build, "envelope_raises")
	require.NoError(t, err)
	assert.Equal(t, 1.25, best["asq_max"])
	assert.Equal(t, 0.0, val)
}

func TestGridSearchErrors(t *testing.T) {
	gs := NewGridSearch([]string{"a", "b"}, [][]float64{{1}})
	_, _, err := gs.Search(context.Background(), nil, "x")
	assert.Error(t, err)

	failing := func(map[string]float64) (*experiment.Experiment, error) {
		return nil, assert.AnError
	}
	gs = NewGridSearch([]string{"a"}, [][]float64{{1, 2}})
	_, _, err = gs.Search(context.Background(), failing, "x")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = gs.Search(ctx, failing, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
