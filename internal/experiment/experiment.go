// Package experiment assembles amplitude models from configuration and runs
// toy experiments on them.
package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/dalitz/internal/config"
	"github.com/san-kum/dalitz/internal/dynamo"
	"github.com/san-kum/dalitz/internal/generator"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

var log = logrus.WithField("pkg", "experiment")

type Experiment struct {
	cfg        *config.Config
	model      *Model
	gen        *generator.Generator
	randSource *rand.Rand
}

// Outcome is a finished toy experiment.
type Outcome struct {
	Config *config.Config
	Result *generator.Result
	Extra  dynamo.ExtraInfo
	Names  []string
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:        cfg,
		randSource: rand.New(rand.NewSource(cfg.Generation.Seed)),
	}
}

// Setup builds the model and its generator and attaches the metrics.
func (e *Experiment) Setup(fs afero.Fs, reg *Registry, metrics []generator.Metric) error {
	model, err := Build(fs, e.cfg, reg)
	if err != nil {
		return err
	}

	opts := generator.DefaultOptions()
	opts.IterationsMax = e.cfg.Generation.IterationsMax
	opts.ASqMax = e.cfg.Generation.ASqMax
	opts.SquareDP = e.cfg.Generation.SquareDP
	gen, err := generator.New(model.Engine, e.randSource, opts)
	if err != nil {
		return err
	}
	for _, m := range metrics {
		gen.AddMetric(m)
	}

	e.model, e.gen = model, gen
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	if e.gen == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	res, err := e.gen.Run(ctx, e.cfg.Generation.Events)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, e.model.Engine.NAmp())
	for _, r := range e.model.Engine.Resonances() {
		names = append(names, r.Name())
	}
	return &Outcome{
		Config: e.cfg,
		Result: res,
		Extra:  e.model.Engine.GenerationInfo(),
		Names:  names,
	}, nil
}

// Generator returns the underlying generator for adding observers.
func (e *Experiment) Generator() *generator.Generator { return e.gen }

func (e *Experiment) Model() *Model { return e.model }
