package experiment

import (
	"context"
	"runtime"
	"sync"

	"github.com/san-kum/dalitz/internal/config"
	"github.com/san-kum/dalitz/internal/generator"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Ensemble runs independent toy experiments of one model concurrently,
// with consecutive seeds. Each toy builds its own engine; at most Workers
// toys are in flight at once.
type Ensemble struct {
	cfg       *config.Config
	fs        afero.Fs
	reg       *Registry
	numRuns   int
	seedStart int64
	metrics   func() []generator.Metric

	// Workers caps concurrent toys. NewEnsemble sets it to runtime.NumCPU().
	Workers int
}

// NewEnsemble prepares numRuns toys seeded from seedStart. metrics is
// called once per toy, since metrics hold per-run state.
func NewEnsemble(fs afero.Fs, cfg *config.Config, reg *Registry, numRuns int, seedStart int64, metrics func() []generator.Metric) *Ensemble {
	return &Ensemble{
		cfg:       cfg,
		fs:        fs,
		reg:       reg,
		numRuns:   numRuns,
		seedStart: seedStart,
		metrics:   metrics,
		Workers:   runtime.NumCPU(),
	}
}

func (e *Ensemble) Run(ctx context.Context) ([]*Outcome, error) {
	results := make([]*Outcome, e.numRuns)
	errs := make([]error, e.numRuns)

	workers := min(max(e.Workers, 1), e.numRuns)
	jobs := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx], errs[idx] = e.runToy(ctx, idx)
			}
		}()
	}
	for i := 0; i < e.numRuns; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{"toys": e.numRuns, "workers": workers}).Info("ensemble finished")
	return results, nil
}

func (e *Ensemble) runToy(ctx context.Context, idx int) (*Outcome, error) {
	cfgCopy := e.cfg.Clone()
	cfgCopy.Generation.Seed = e.seedStart + int64(idx)

	var metrics []generator.Metric
	if e.metrics != nil {
		metrics = e.metrics()
	}
	exp := New(cfgCopy)
	if err := exp.Setup(e.fs, e.reg, metrics); err != nil {
		return nil, err
	}
	return exp.Run(ctx)
}
