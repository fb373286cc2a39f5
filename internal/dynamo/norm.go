package dynamo

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/sirupsen/logrus"
)

// minChunk is the smallest number of grid points handed to one worker.
const minChunk = 4096

// permutations returns the points whose amplitudes are summed for a
// symmetrised component: p alone, p and its 1<->2 flip, or all six
// daughter orderings.
func (e *Engine) permutations(p kinematics.Point) []kinematics.Point {
	switch {
	case e.opts.FullySymmetric:
		r1 := e.kin.RotateAndUpdate(p)
		r2 := e.kin.RotateAndUpdate(r1)
		f := e.kin.FlipAndUpdate(p)
		fr1 := e.kin.RotateAndUpdate(f)
		fr2 := e.kin.RotateAndUpdate(fr1)
		return []kinematics.Point{p, r1, r2, f, fr1, fr2}
	case e.opts.Symmetric:
		return []kinematics.Point{p, e.kin.FlipAndUpdate(p)}
	}
	return []kinematics.Point{p}
}

// amplitude evaluates component i at p, symmetrised over perms.
func (e *Engine) amplitude(i int, perms []kinematics.Point) complex128 {
	var amp complex128
	for _, q := range perms {
		amp += e.resonances[i].Amplitude(q)
	}
	return amp
}

// CalcDPNormalisation recomputes the integrals of every component over the
// whole integration scheme, then rescales with the bound coefficients.
func (e *Engine) CalcDPNormalisation() error {
	if e.state == Uninitialised {
		return fmt.Errorf("%w: coefficients must be bound first", ErrWrongState)
	}
	e.grids = nil
	e.calcNormalisation()
	e.setState(NormalisationComputed)
	e.CalcSigDPNorm()
	e.setState(Ready)
	return nil
}

// calcNormalisation builds the scheme if needed, refreshes the stale
// cached values and accumulates the integrals.
func (e *Engine) calcNormalisation() {
	nAmp := len(e.resonances)
	recalc := e.toRecalculate()
	refreshEff := e.effChanged
	if e.grids == nil {
		for _, r := range e.buildScheme() {
			g := newGrid(r, e.kin, nAmp, e.opts.Precision)
			if len(g.points) == 0 {
				continue
			}
			e.grids = append(e.grids, g)
		}
		refreshEff = true
	}

	if len(recalc) > 0 || refreshEff {
		for _, g := range e.grids {
			for k := range g.points {
				gp := &g.points[k]
				p := g.point(e.kin, gp)
				if refreshEff {
					gp.eff = e.eff.Efficiency(p)
				}
				if len(recalc) == 0 {
					continue
				}
				perms := e.permutations(p)
				for _, i := range recalc {
					gp.ff[i] = e.amplitude(i, perms)
				}
			}
		}
	}

	total := newSums(nAmp)
	for _, g := range e.grids {
		points := g.points
		part := parallelSums(len(points), minChunk, nAmp, func(acc *sums, start, end int) {
			for _, gp := range points[start:end] {
				acc.addPoint(gp.ff, gp.eff, gp.weight)
			}
		})
		total.add(part)
	}
	e.sums = total

	e.fNorm = make([]float64, nAmp)
	for i, s := range total.fSq {
		if s > 0 {
			e.fNorm[i] = math.Sqrt(1.0 / s)
		}
	}

	e.pending = recalc
	e.snapshotStructure()

	log.WithFields(logrus.Fields{
		"grids":        len(e.grids),
		"recalculated": len(recalc),
		"nAmp":         nAmp,
	}).Info("DP normalisation computed")
	for i, r := range e.resonances {
		log.WithFields(logrus.Fields{
			"name":      r.Name(),
			"fSqSum":    total.fSq[i],
			"fSqEffSum": total.fSqEff[i],
			"fNorm":     e.fNorm[i],
		}).Debug("component integral")
	}
}

// Scheme describes the partial integration grids in use.
func (e *Engine) Scheme() []GridSummary {
	out := make([]GridSummary, len(e.grids))
	for i, g := range e.grids {
		out[i] = g.summary()
	}
	return out
}

// FSqSum returns Σ w·|f_i|² for every component.
func (e *Engine) FSqSum() []float64 {
	if e.sums == nil {
		return nil
	}
	return append([]float64(nil), e.sums.fSq...)
}

// FSqEffSum returns Σ w·ε·|f_i|² for every component.
func (e *Engine) FSqEffSum() []float64 {
	if e.sums == nil {
		return nil
	}
	return append([]float64(nil), e.sums.fSqEff...)
}

// CalcSigDPNorm recomputes the efficiency-weighted normalisation of the
// total amplitude from the cached integrals.
func (e *Engine) CalcSigDPNorm() float64 {
	if e.sums == nil || len(e.coeffs) != len(e.resonances) {
		return 0
	}
	norm := 0.0
	for i, ai := range e.coeffs {
		norm += absSq(ai) * real(e.sums.fifjEff[i][i]) * e.fNorm[i] * e.fNorm[i]
		for j := i + 1; j < len(e.coeffs); j++ {
			norm += 2.0 * real(ai*cmplx.Conj(e.coeffs[j])*e.sums.fifjEff[i][j]) * e.fNorm[i] * e.fNorm[j]
		}
	}
	e.dpNorm = norm
	return norm
}

func absSq(z complex128) float64 { return real(z)*real(z) + imag(z)*imag(z) }

// CalcExtraInfo derives fit fractions, the DP rate and the mean efficiency
// from the integrals and the current coefficients. With init set the
// result is also stored as the generation values.
func (e *Engine) CalcExtraInfo(init bool) ExtraInfo {
	n := len(e.resonances)
	if e.sums == nil || len(e.coeffs) != n {
		return ExtraInfo{}
	}

	term := func(fifj [][]complex128, i, j int) float64 {
		if i == j {
			return absSq(e.coeffs[i]) * real(fifj[i][i]) * e.fNorm[i] * e.fNorm[i]
		}
		return 2.0 * real(e.coeffs[i]*cmplx.Conj(e.coeffs[j])*fifj[i][j]) * e.fNorm[i] * e.fNorm[j]
	}

	info := ExtraInfo{
		FitFrac:          make([][]float64, n),
		FitFracEffUnCorr: make([][]float64, n),
	}
	var tot, effTot float64
	for i := 0; i < n; i++ {
		info.FitFrac[i] = make([]float64, n)
		info.FitFracEffUnCorr[i] = make([]float64, n)
		for j := i; j < n; j++ {
			info.FitFrac[i][j] = term(e.sums.fifj, i, j)
			info.FitFracEffUnCorr[i][j] = term(e.sums.fifjEff, i, j)
			tot += info.FitFrac[i][j]
			effTot += info.FitFracEffUnCorr[i][j]
		}
	}

	if math.Abs(tot) > 1e-10 {
		info.MeanEff = effTot / tot
	}
	info.DPRate = tot

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if math.Abs(tot) > 1e-10 {
				info.FitFrac[i][j] /= tot
			}
			if math.Abs(effTot) > 1e-10 {
				info.FitFracEffUnCorr[i][j] /= effTot
			}
		}
		info.FitFracTotal += info.FitFrac[i][i]
	}

	for _, name := range e.props.Names() {
		var ff float64
		for i := 0; i < n; i++ {
			if e.resonances[i].Propagator() != name {
				continue
			}
			for j := i; j < n; j++ {
				if e.resonances[j].Propagator() == name {
					ff += term(e.sums.fifj, i, j)
				}
			}
		}
		if info.KMatrixFitFrac == nil {
			info.KMatrixFitFrac = make(map[string]float64)
		}
		if math.Abs(tot) > 1e-10 {
			ff /= tot
		}
		info.KMatrixFitFrac[name] = ff
	}

	e.extra = info.clone()
	if init {
		e.initExtra = info.clone()
	}

	for i, r := range e.resonances {
		log.WithFields(logrus.Fields{
			"name":       r.Name(),
			"fitFrac":    info.FitFrac[i][i],
			"fitFracEff": info.FitFracEffUnCorr[i][i],
		}).Debug("fit fraction")
	}
	log.WithFields(logrus.Fields{"dpRate": info.DPRate, "meanEff": info.MeanEff}).Info("extra info computed")
	return info
}

// ExtraInfo returns the most recently derived fit fractions.
func (e *Engine) ExtraInfo() ExtraInfo { return e.extra.clone() }

// GenerationInfo returns the fit fractions stored at initialisation.
func (e *Engine) GenerationInfo() ExtraInfo { return e.initExtra.clone() }
