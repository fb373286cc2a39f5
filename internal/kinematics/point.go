package kinematics

// Point is the full set of kinematic quantities at one DP location.
// All fields are computed together by [Kinematics.UpdateKinematics] or
// [Kinematics.UpdateSqDPKinematics].
type Point struct {
	M12Sq, M13Sq, M23Sq float64
	M12, M13, M23       float64

	// Helicity cosines. C12 is the angle between 1 and 3 in the 12 frame,
	// C23 between 3 and 1 in the 23 frame, C13 between 3 and 2 in the 13 frame.
	C12, C13, C23 float64

	// Daughter momenta in the two-body rest frames.
	P1In12, P3In12 float64
	P2In23, P1In23 float64
	P1In13, P2In13 float64

	// Daughter momenta in the parent rest frame.
	P1Parent, P2Parent, P3Parent float64

	// Square-DP coordinates and the Jacobian |∂(m13²,m23²)/∂(m′,θ′)|.
	// Zero unless the point came from a square-DP update or the
	// kinematics was built with square-DP support.
	MPrime, ThetaPrime float64
	Jacobian           float64

	// Covariant factors E/m of each pair in the parent frame.
	Cov12, Cov13, Cov23 float64
}

// PairKinematics are the quantities a lineshape needs for one two-body
// system.
type PairKinematics struct {
	Mass   float64
	MassSq float64
	CosHel float64
	// Q is the momentum of a resonance daughter in the pair rest frame.
	Q float64
	// P is the bachelor momentum in the pair rest frame.
	P float64
	// PStar is the bachelor momentum in the parent rest frame.
	PStar float64
	// Erm is the covariant factor of the pair.
	Erm float64
}

// Pair returns the kinematics of the system opposite the given bachelor
// (1, 2 or 3). Any other bachelor value yields a zero PairKinematics.
func (p Point) Pair(bachelor int) PairKinematics {
	switch bachelor {
	case 1:
		return PairKinematics{
			Mass: p.M23, MassSq: p.M23Sq, CosHel: p.C23,
			Q: p.P2In23, P: p.P1In23, PStar: p.P1Parent, Erm: p.Cov23,
		}
	case 2:
		return PairKinematics{
			Mass: p.M13, MassSq: p.M13Sq, CosHel: p.C13,
			Q: p.P1In13, P: p.P2In13, PStar: p.P2Parent, Erm: p.Cov13,
		}
	case 3:
		return PairKinematics{
			Mass: p.M12, MassSq: p.M12Sq, CosHel: p.C12,
			Q: p.P1In12, P: p.P3In12, PStar: p.P3Parent, Erm: p.Cov12,
		}
	}
	return PairKinematics{}
}
