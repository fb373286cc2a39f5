// Package kinematics provides the three-body phase-space transforms of a
// Dalitz plot (DP) for a fixed parent mass and a fixed triple of daughter
// masses.
//
// The package is built around two types:
//
//   - [Kinematics]: immutable masses and DP bounds, plus the conversion
//     routines between (m13², m23²) and the square-DP coordinates (m′, θ′)
//   - [Point]: an immutable snapshot of every quantity derived from one DP
//     point (invariant masses, helicity cosines, momenta, Jacobian)
//
// Downstream code receives a [Point] value and never reads the current
// point of a [Kinematics] directly.
//
// Pairs are labelled by their bachelor daughter: pair 1 is the (2,3)
// system, pair 2 is (1,3) and pair 3 is (1,2).
//
// # Example
//
//	kin, _ := kinematics.New(1.86483, 0.497611, 0.13957039, 0.13957039, false)
//	if kin.WithinDPLimits(1.0, 0.8) {
//		p := kin.UpdateKinematics(1.0, 0.8)
//		fmt.Println(p.M12Sq, p.C23)
//	}
//
// # Out-of-boundary input
//
// UpdateKinematics does not validate its input. Points outside the DP give
// finite but physically meaningless values: momentum square roots are
// clamped at zero and helicity cosines at ±1. Callers check
// [Kinematics.WithinDPLimits] first.
package kinematics
