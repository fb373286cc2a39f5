// Package dynamo implements the isobar dynamics engine: it owns the
// resonance components of a three-body decay and their complex production
// coefficients, integrates the amplitude over the Dalitz plot and caches
// per-event amplitudes for repeated likelihood evaluation.
//
// An [Engine] moves through a fixed lifecycle:
//
//	Uninitialised -> Initialised -> NormalisationComputed -> Ready
//
// Resonances are added while the engine is not Ready. [Engine.Initialise]
// binds one coefficient per resonance and either recomputes the
// normalisation integrals (after a structural change such as a new
// resonance, a moved barrier radius or a new efficiency model) or only
// rescales the cached integrals with the new coefficients.
//
// # Integration scheme
//
// The DP is split into rectangular regions, each integrated with a
// Gauss-Legendre grid in the invariant masses m13 and m23. Narrow
// resonances (width below [Options.NarrowWidth]) get a window of ±5Γ with
// a bin width of Γ/[Options.BinningFactor]; the rest of the plot keeps the
// default bin widths. A narrow resonance in m12 switches to a single grid
// over the square DP instead.
//
// # Example
//
//	kin, _ := kinematics.New(lineshape.MD, lineshape.MK, lineshape.MPi, lineshape.MPi, false)
//	eng := dynamo.New(kin, efficiency.Constant(1), dynamo.DefaultOptions())
//	eng.AddResonance(lineshape.Spec{Name: "K*0(892)", Bachelor: 2, Kind: lineshape.RelBW})
//	eng.AddResonance(lineshape.Spec{Name: "NonReson", Kind: lineshape.FlatNR, Bachelor: 1})
//	_ = eng.Initialise([]complex128{1, 0.5i})
//	info := eng.ExtraInfo()
//
// # Thread Safety
//
// An Engine is NOT thread-safe. Lineshapes cache derived quantities and the
// kinematics hold the current point, so a single goroutine must drive each
// engine. The final reduction of the grid sums is split across workers
// internally; its result does not depend on scheduling.
package dynamo
