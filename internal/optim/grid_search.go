package optim

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/san-kum/dalitz/internal/experiment"
	"github.com/sirupsen/logrus"
)

// GridSearch runs one experiment per point of a parameter grid and keeps
// the point with the smallest value of a metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search returns the best parameters and metric value. Grid points whose
// experiment fails to build or run are skipped; an error is returned only
// when no point succeeded or ctx was cancelled.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, errors.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64

	g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &best, &bestParams)

	if err := ctx.Err(); err != nil {
		return bestParams, best, err
	}
	if bestParams == nil {
		return nil, best, errors.Errorf("optim: no grid point produced metric %q", metricName)
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(g.paramNames) {
		exp, err := buildExperiment(current)
		if err != nil {
			log.WithError(err).WithField("params", current).Warn("skipping grid point")
			return
		}

		out, err := exp.Run(ctx)
		if err != nil {
			log.WithError(err).WithField("params", current).Warn("skipping grid point")
			return
		}

		val, ok := out.Result.Metrics[metricName]
		if !ok {
			return
		}
		log.WithFields(logrus.Fields{"params": current, metricName: val}).Debug("grid point")
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, best, bestParams)
	}
}
