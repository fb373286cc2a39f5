package generator

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/dalitz/internal/dynamo"
	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("pkg", "generator")

// envelopeMargin scales a new or lowered envelope above the value that set it.
const envelopeMargin = 1.01

type Generator struct {
	engine *dynamo.Engine
	kin    *kinematics.Kinematics
	rng    *rand.Rand
	opts   Options

	aSqMax        float64
	maxObserved   float64
	iterationsMax int

	stats     Stats
	metrics   []Metric
	observers []Observer
}

// New returns a generator sampling the model of engine, which must be Ready.
// The generator takes ownership of rng.
func New(engine *dynamo.Engine, rng *rand.Rand, opts Options) (*Generator, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	if engine == nil || engine.State() != dynamo.Ready {
		return nil, ErrEngineNotReady
	}
	return &Generator{
		engine:        engine,
		kin:           engine.Kinematics(),
		rng:           rng,
		opts:          opts,
		aSqMax:        opts.ASqMax,
		iterationsMax: opts.IterationsMax,
		metrics:       make([]Metric, 0),
		observers:     make([]Observer, 0),
	}, nil
}

func validateOptions(opts Options) error {
	if opts.IterationsMax <= 0 {
		return fmt.Errorf("%w: iterations max must be positive, got %d", ErrBadOptions, opts.IterationsMax)
	}
	if opts.ASqMax <= 0 {
		return fmt.Errorf("%w: envelope must be positive, got %g", ErrBadOptions, opts.ASqMax)
	}
	if opts.MaxRetries < 0 || opts.MaxRestarts < 0 {
		return fmt.Errorf("%w: retry budgets must not be negative", ErrBadOptions)
	}
	return nil
}

func (g *Generator) AddMetric(m Metric)     { g.metrics = append(g.metrics, m) }
func (g *Generator) AddObserver(o Observer) { g.observers = append(g.observers, o) }

// ASqMax is the current envelope.
func (g *Generator) ASqMax() float64 { return g.aSqMax }

// SetASqMax replaces the envelope, for example with the result of a scan.
// It is never set below the largest value already seen.
func (g *Generator) SetASqMax(v float64) error {
	if v <= 0 {
		return fmt.Errorf("%w: envelope must be positive, got %g", ErrBadOptions, v)
	}
	if v < g.maxObserved {
		v = envelopeMargin * g.maxObserved
	}
	g.aSqMax = v
	return nil
}

// MaxObserved is the largest value seen so far. It never decreases.
func (g *Generator) MaxObserved() float64 { return g.maxObserved }

// IterationsMax is the current per-attempt iteration budget.
func (g *Generator) IterationsMax() int { return g.iterationsMax }

func (g *Generator) Stats() Stats { return g.stats }

// draw picks a flat point and returns the event and the value compared to
// the envelope.
func (g *Generator) draw() (Event, float64, bool, error) {
	var ev Event
	if g.opts.SquareDP {
		mPrime, thetaPrime := g.kin.GenFlatSqDP(g.rng)
		p := g.kin.UpdateSqDPKinematics(mPrime, thetaPrime)
		ev = Event{M13Sq: p.M13Sq, M23Sq: p.M23Sq, MPrime: mPrime, ThetaPrime: thetaPrime, Jacobian: p.Jacobian}
	} else {
		m13Sq, m23Sq, _, ok := g.kin.GenFlatPhaseSpace(g.rng)
		if !ok {
			return ev, 0, false, nil
		}
		ev = Event{M13Sq: m13Sq, M23Sq: m23Sq, Jacobian: 1}
	}

	opts := g.engine.Options()
	if opts.Symmetric && !opts.FullySymmetric && ev.M13Sq > ev.M23Sq {
		ev.M13Sq, ev.M23Sq = ev.M23Sq, ev.M13Sq
		// exchanging daughters 1 and 2 reverses cos(theta12) and keeps m12
		if g.opts.SquareDP {
			ev.ThetaPrime = 1 - ev.ThetaPrime
		}
	}

	info, err := g.engine.CalcLikelihoodInfo(ev.M13Sq, ev.M23Sq)
	if err != nil {
		return ev, 0, false, err
	}
	ev.ASq, ev.Eff = info.ASq, info.Eff
	return ev, info.ASq * ev.Jacobian, true, nil
}

func (g *Generator) notify(tr Trial) {
	for _, m := range g.metrics {
		m.Observe(tr)
	}
	for _, obs := range g.observers {
		obs.OnTrial(tr)
	}
}

// Generate runs one accept/reject attempt. A GenOK or ASqMaxError status
// comes with an accepted event; MaxIterError comes with none.
func (g *Generator) Generate() (Event, Status, error) {
	status := GenOK
	for iter := 0; iter < g.iterationsMax; iter++ {
		ev, value, ok, err := g.draw()
		if err != nil {
			return Event{}, status, err
		}
		if !ok {
			continue
		}
		g.stats.Trials++

		tr := Trial{M13Sq: ev.M13Sq, M23Sq: ev.M23Sq, Value: value, Eff: ev.Eff}
		if value > g.maxObserved {
			g.maxObserved = value
		}
		if value > g.aSqMax {
			old := g.aSqMax
			g.aSqMax = envelopeMargin * value
			g.stats.EnvelopeRaises++
			status = ASqMaxError
			tr.Raised = true
			log.WithFields(logrus.Fields{
				"old":   old,
				"new":   g.aSqMax,
				"m13Sq": ev.M13Sq,
				"m23Sq": ev.M23Sq,
			}).Warn("amplitude squared above envelope, raising it")
		} else if g.rng.Float64() < value/g.aSqMax {
			tr.Accepted = true
		}
		tr.Envelope, tr.MaxObserved = g.aSqMax, g.maxObserved
		g.notify(tr)

		if tr.Accepted {
			g.stats.Accepted++
			if status == ASqMaxError {
				g.stats.ASqMaxErrors++
			}
			return ev, status, nil
		}
	}

	g.stats.MaxIterErrors++
	if g.maxObserved > 0 && g.aSqMax > envelopeMargin*g.maxObserved {
		old := g.aSqMax
		g.aSqMax = envelopeMargin * g.maxObserved
		log.WithFields(logrus.Fields{"old": old, "new": g.aSqMax}).
			Warn("iteration budget exhausted, lowering envelope")
	} else {
		g.iterationsMax *= 2
		log.WithField("iterationsMax", g.iterationsMax).
			Warn("iteration budget exhausted, doubling it")
	}
	if status == ASqMaxError {
		g.stats.ASqMaxErrors++
	}
	return Event{}, MaxIterError, nil
}

// Run generates n events. MaxIterError attempts are retried up to
// MaxRetries times per event. When RestartOnASqMax is set, an envelope
// raise discards the events generated so far and the run starts again with
// the raised envelope.
func (g *Generator) Run(ctx context.Context, n int) (*Result, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: event count must not be negative, got %d", ErrBadOptions, n)
	}

	for _, m := range g.metrics {
		m.Reset()
	}
	result := &Result{
		Events:   make([]Event, 0, n),
		Statuses: make(map[Status]int),
		Metrics:  make(map[string]float64),
	}

	retries := 0
	for len(result.Events) < n {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		ev, status, err := g.Generate()
		if err != nil {
			return result, err
		}
		result.Statuses[status]++

		switch status {
		case MaxIterError:
			retries++
			if retries > g.opts.MaxRetries {
				return result, fmt.Errorf("%w: event %d failed %d times", ErrGaveUp, len(result.Events), retries)
			}
			continue
		case ASqMaxError:
			if g.opts.RestartOnASqMax && result.Restarts < g.opts.MaxRestarts {
				result.Restarts++
				log.WithFields(logrus.Fields{
					"discarded": len(result.Events),
					"envelope":  g.aSqMax,
					"restart":   result.Restarts,
				}).Info("envelope raised, restarting generation")
				result.Events = result.Events[:0]
				retries = 0
				continue
			}
		}
		retries = 0
		result.Events = append(result.Events, ev)
	}

	result.Stats = g.stats
	result.ASqMax = g.aSqMax
	for _, m := range g.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	log.WithFields(logrus.Fields{
		"events":     len(result.Events),
		"trials":     g.stats.Trials,
		"acceptance": g.stats.AcceptanceRate(),
		"envelope":   g.aSqMax,
		"restarts":   result.Restarts,
	}).Info("generation finished")
	return result, nil
}
