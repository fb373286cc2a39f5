package dynamo

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// cachedEvent holds the per-event quantities that do not depend on the
// coefficients.
type cachedEvent struct {
	Event
	mPrime, thetaPrime float64
	eff, jacobian      float64
	ff                 []complex128
}

// totalAmp combines the normalised components with the coefficients.
func (e *Engine) totalAmp(ff []complex128, eff float64, useEff bool) (complex128, float64) {
	var amp complex128
	for i, f := range ff {
		amp += e.coeffs[i] * f * complex(e.fNorm[i], 0)
	}
	aSq := absSq(amp)
	if useEff {
		aSq *= eff
	}
	return amp, aSq
}

func (e *Engine) likelihood(aSq float64) float64 {
	if e.dpNorm > 1e-10 {
		return aSq / e.dpNorm
	}
	return 0
}

func (e *Engine) requireReady() error {
	if e.state != Ready {
		return fmt.Errorf("%w: engine is %s", ErrWrongState, e.state)
	}
	return nil
}

// evaluate computes the amplitudes and efficiency at (m13², m23²).
func (e *Engine) evaluate(m13Sq, m23Sq float64, useEff bool) Info {
	p := e.kin.UpdateKinematics(m13Sq, m23Sq)
	perms := e.permutations(p)
	ff := make([]complex128, len(e.resonances))
	for i := range e.resonances {
		ff[i] = e.amplitude(i, perms)
	}
	eff := e.eff.Efficiency(p)
	amp, aSq := e.totalAmp(ff, eff, useEff)
	return Info{Point: p, FF: ff, Amp: amp, ASq: aSq, Eff: eff}
}

// CalcLikelihoodInfo evaluates the model at (m13², m23²). ASq includes the
// efficiency and Likelihood is ASq divided by the DP normalisation.
func (e *Engine) CalcLikelihoodInfo(m13Sq, m23Sq float64) (Info, error) {
	if err := e.requireReady(); err != nil {
		return Info{}, err
	}
	info := e.evaluate(m13Sq, m23Sq, true)
	info.Likelihood = e.likelihood(info.ASq)
	return info, nil
}

// EventWeight returns |A|² at (m13², m23²) without the efficiency.
func (e *Engine) EventWeight(m13Sq, m23Sq float64) (float64, error) {
	if err := e.requireReady(); err != nil {
		return 0, err
	}
	return e.evaluate(m13Sq, m23Sq, false).ASq, nil
}

// GotReweightedEvent decides whether an externally generated point at
// (m13², m23²) is kept when reweighting to this model: it is accepted with
// probability |A|²/aSqMax. The returned value is |A|², so the caller can
// track the largest value seen.
func (e *Engine) GotReweightedEvent(m13Sq, m23Sq, aSqMax float64, rng *rand.Rand) (bool, float64, error) {
	w, err := e.EventWeight(m13Sq, m23Sq)
	if err != nil {
		return false, 0, err
	}
	return rng.Float64() < w/aSqMax, w, nil
}

// FillDataCache evaluates and stores the component amplitudes of every
// event so that later likelihood evaluations only recombine them.
func (e *Engine) FillDataCache(events []Event) error {
	if err := e.requireReady(); err != nil {
		return err
	}
	e.data = make([]cachedEvent, len(events))
	for k, ev := range events {
		info := e.evaluate(ev.M13Sq, ev.M23Sq, true)
		c := cachedEvent{Event: ev, eff: info.Eff, ff: info.FF}
		if e.kin.SquareDP() {
			c.mPrime, c.thetaPrime = info.Point.MPrime, info.Point.ThetaPrime
			c.jacobian = info.Point.Jacobian
		}
		e.data[k] = c
	}
	e.current = -1
	log.WithField("events", len(events)).Info("data cache filled")
	return nil
}

// NDataEvents returns the size of the cached sample.
func (e *Engine) NDataEvents() int { return len(e.data) }

// SetDataEventNo selects a cached event as the current one.
func (e *Engine) SetDataEventNo(i int) error {
	if i < 0 || i >= len(e.data) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrEventIndex, i, len(e.data))
	}
	e.current = i
	return nil
}

// CurrentEvent returns the selected cached event.
func (e *Engine) CurrentEvent() (Event, bool) {
	if e.current < 0 {
		return Event{}, false
	}
	return e.data[e.current].Event, true
}

// CalcLikelihoodInfoCached returns the likelihood of cached event i from
// the stored amplitudes only.
func (e *Engine) CalcLikelihoodInfoCached(i int) (Info, error) {
	if err := e.requireReady(); err != nil {
		return Info{}, err
	}
	if err := e.SetDataEventNo(i); err != nil {
		return Info{}, err
	}
	c := &e.data[i]
	amp, aSq := e.totalAmp(c.ff, c.eff, true)
	return Info{FF: c.ff, Amp: amp, ASq: aSq, Eff: c.eff, Likelihood: e.likelihood(aSq)}, nil
}

// ModifyDataCache re-evaluates, for every cached event, the components
// recomputed by the last normalisation.
func (e *Engine) ModifyDataCache() error {
	if err := e.requireReady(); err != nil {
		return err
	}
	if len(e.pending) == 0 || len(e.data) == 0 {
		return nil
	}
	for k := range e.data {
		c := &e.data[k]
		p := e.kin.UpdateKinematics(c.M13Sq, c.M23Sq)
		perms := e.permutations(p)
		for _, i := range e.pending {
			c.ff[i] = e.amplitude(i, perms)
		}
	}
	log.WithFields(logrus.Fields{
		"events":     len(e.data),
		"components": len(e.pending),
	}).Debug("data cache updated")
	return nil
}
