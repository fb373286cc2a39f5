package kinematics

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/integrate/quad"
)

var log = logrus.WithField("pkg", "kinematics")

const (
	// thetaPrimeNudge keeps θ′ off the exact 0/1 edges.
	thetaPrimeNudge = 1e-10

	// m12SqFloorOffset is added when m12² falls below its kinematic minimum.
	m12SqFloorOffset = 1e-3

	areaQuadPoints = 400
)

// Kinematics holds the masses of a three-body decay and converts between
// DP coordinate systems. Pair index i (0, 1, 2) refers to the system
// opposite daughter i+1, i.e. m23, m13, m12.
type Kinematics struct {
	mParent   float64
	mParentSq float64
	mass      [3]float64
	mSq       [3]float64
	mSqDTot   float64

	mMin, mMax, mDiff       [3]float64
	mSqMin, mSqMax, mSqDiff [3]float64

	squareDP bool
	current  Point
}

// New creates the kinematics for parent -> 1 2 3. When squareDP is set,
// every update also computes m′, θ′ and the square-DP Jacobian.
func New(mParent, m1, m2, m3 float64, squareDP bool) (*Kinematics, error) {
	if mParent <= 0 || m1 <= 0 || m2 <= 0 || m3 <= 0 {
		return nil, ErrNonPositiveMass
	}
	if m1+m2+m3 >= mParent {
		return nil, fmt.Errorf("%w: %g + %g + %g >= %g", ErrImpossibleMasses, m1, m2, m3, mParent)
	}

	k := &Kinematics{
		mParent:   mParent,
		mParentSq: mParent * mParent,
		mass:      [3]float64{m1, m2, m3},
		squareDP:  squareDP,
	}
	for i, m := range k.mass {
		k.mSq[i] = m * m
		k.mSqDTot += m * m
	}

	// Pair i excludes daughter i.
	for i := 0; i < 3; i++ {
		j, l := (i+1)%3, (i+2)%3
		k.mMin[i] = k.mass[j] + k.mass[l]
		k.mMax[i] = mParent - k.mass[i]
		k.mDiff[i] = k.mMax[i] - k.mMin[i]
		k.mSqMin[i] = k.mMin[i] * k.mMin[i]
		k.mSqMax[i] = k.mMax[i] * k.mMax[i]
		k.mSqDiff[i] = k.mSqMax[i] - k.mSqMin[i]
	}

	log.WithFields(logrus.Fields{
		"parent": mParent, "m1": m1, "m2": m2, "m3": m3, "squareDP": squareDP,
	}).Debug("kinematics created")

	return k, nil
}

// Parent returns the parent mass.
func (k *Kinematics) Parent() float64 { return k.mParent }

// Daughter returns the mass of daughter i (1, 2 or 3).
func (k *Kinematics) Daughter(i int) float64 { return k.mass[i-1] }

// SquareDP reports whether updates compute square-DP quantities.
func (k *Kinematics) SquareDP() bool { return k.squareDP }

// SetSquareDP switches the square-DP computation on or off for later
// updates.
func (k *Kinematics) SetSquareDP(on bool) { k.squareDP = on }

// Current returns the most recently computed point.
func (k *Kinematics) Current() Point { return k.current }

func (k *Kinematics) M13SqMin() float64 { return k.mSqMin[1] }
func (k *Kinematics) M13SqMax() float64 { return k.mSqMax[1] }
func (k *Kinematics) M23SqMin() float64 { return k.mSqMin[0] }
func (k *Kinematics) M23SqMax() float64 { return k.mSqMax[0] }
func (k *Kinematics) M12SqMin() float64 { return k.mSqMin[2] }
func (k *Kinematics) M12SqMax() float64 { return k.mSqMax[2] }

func (k *Kinematics) M13Min() float64 { return k.mMin[1] }
func (k *Kinematics) M13Max() float64 { return k.mMax[1] }
func (k *Kinematics) M23Min() float64 { return k.mMin[0] }
func (k *Kinematics) M23Max() float64 { return k.mMax[0] }
func (k *Kinematics) M12Min() float64 { return k.mMin[2] }
func (k *Kinematics) M12Max() float64 { return k.mMax[2] }

// PairMassRange returns the kinematic mass limits of the pair opposite the
// given bachelor.
func (k *Kinematics) PairMassRange(bachelor int) (lo, hi float64) {
	return k.mMin[bachelor-1], k.mMax[bachelor-1]
}

// UpdateKinematics recomputes every derived quantity for (m13², m23²).
// The input is not validated; see the package documentation.
func (k *Kinematics) UpdateKinematics(m13Sq, m23Sq float64) Point {
	var p Point
	k.updateMassSquares(&p, m13Sq, m23Sq)
	k.calcHelicities(&p)
	if k.squareDP {
		k.calcSqDPVars(&p)
		p.Jacobian = k.CalcSqDPJacobian(p.MPrime, p.ThetaPrime)
	}
	k.current = p
	return p
}

// UpdateSqDPKinematics recomputes every derived quantity from the
// square-DP coordinates. The Jacobian is always filled in.
func (k *Kinematics) UpdateSqDPKinematics(mPrime, thetaPrime float64) Point {
	var p Point
	p.MPrime, p.ThetaPrime = mPrime, thetaPrime

	m12 := 0.5*k.mDiff[2]*(1.0+math.Cos(math.Pi*mPrime)) + k.mMin[2]
	c12 := math.Cos(math.Pi * thetaPrime)

	m12Sq := m12 * m12
	m13Sq := k.mFromC(m12Sq, c12, m12, 0, 1, 2)
	m23Sq := k.CalcThirdMassSq(m12Sq, m13Sq)

	k.setMassSquares(&p, m12Sq, m13Sq, m23Sq)
	k.calcParentFrameMomenta(&p)
	k.calcHelicities(&p)
	p.Jacobian = k.CalcSqDPJacobian(mPrime, thetaPrime)

	k.current = p
	return p
}

// FlipAndUpdate swaps daughters 1 and 2, i.e. exchanges m13² and m23².
func (k *Kinematics) FlipAndUpdate(p Point) Point {
	return k.UpdateKinematics(p.M23Sq, p.M13Sq)
}

// RotateAndUpdate cyclically relabels the daughters so that m12² becomes
// m13² and m13² becomes m23², for DPs with three identical daughters.
func (k *Kinematics) RotateAndUpdate(p Point) Point {
	return k.UpdateKinematics(p.M12Sq, p.M13Sq)
}

// CalcThirdMassSq returns the remaining invariant mass squared.
func (k *Kinematics) CalcThirdMassSq(firstSq, secondSq float64) float64 {
	return k.mParentSq + k.mSqDTot - firstSq - secondSq
}

// DistanceFromDPCentre is the distance in (m13², m23²) from the point
// where all three invariant masses squared are equal.
func (k *Kinematics) DistanceFromDPCentre(p Point) float64 {
	centre := (k.mParentSq + k.mSqDTot) / 3.0
	d13 := p.M13Sq - centre
	d23 := p.M23Sq - centre
	return math.Sqrt(d13*d13 + d23*d23)
}

// M23SqRange returns the local m23² limits for the given m13².
func (k *Kinematics) M23SqRange(m13Sq float64) (lo, hi float64) {
	m13 := math.Sqrt(math.Max(m13Sq, 0))
	if m13 == 0 {
		return 0, 0
	}
	e3 := (m13Sq - k.mSq[0] + k.mSq[2]) / (2.0 * m13)
	p3 := pCalc(e3, k.mSq[2])
	e2 := (k.mParentSq - m13Sq - k.mSq[1]) / (2.0 * m13)
	p2 := pCalc(e2, k.mSq[1])

	term := 2.0*e2*e3 + k.mSq[1] + k.mSq[2]
	return term - 2.0*p2*p3, term + 2.0*p2*p3
}

// WithinDPLimits reports whether (m13², m23²) lies inside or on the
// kinematic boundary.
func (k *Kinematics) WithinDPLimits(m13Sq, m23Sq float64) bool {
	if m13Sq < k.mSqMin[1] || m13Sq > k.mSqMax[1] {
		return false
	}
	lo, hi := k.M23SqRange(m13Sq)
	return m23Sq >= lo && m23Sq <= hi
}

// WithinSqDPLimits reports whether (m′, θ′) lies in the unit square.
func (k *Kinematics) WithinSqDPLimits(mPrime, thetaPrime float64) bool {
	return mPrime >= 0 && mPrime <= 1 && thetaPrime >= 0 && thetaPrime <= 1
}

// CalcSqDPJacobian returns |∂(m13²,m23²)/∂(m′,θ′)|.
func (k *Kinematics) CalcSqDPJacobian(mPrime, thetaPrime float64) float64 {
	m12 := 0.5*k.mDiff[2]*(1.0+math.Cos(math.Pi*mPrime)) + k.mMin[2]
	m12Sq := m12 * m12

	e1 := (m12Sq - k.mSq[1] + k.mSq[0]) / (2.0 * m12)
	e3 := (k.mParentSq - m12Sq - k.mSq[2]) / (2.0 * m12)
	p1 := pCalc(e1, k.mSq[0])
	p3 := pCalc(e3, k.mSq[2])

	deriv1 := 0.5 * math.Pi * k.mDiff[2] * math.Sin(math.Pi*mPrime)
	deriv2 := math.Pi * math.Sin(math.Pi*thetaPrime)

	return math.Abs(4.0 * p1 * p3 * m12 * deriv1 * deriv2)
}

// DPArea integrates the local m23² range over m13².
func (k *Kinematics) DPArea() float64 {
	f := func(m13Sq float64) float64 {
		lo, hi := k.M23SqRange(m13Sq)
		return hi - lo
	}
	return quad.Fixed(f, k.mSqMin[1], k.mSqMax[1], areaQuadPoints, quad.Legendre{}, 0)
}

func (k *Kinematics) updateMassSquares(p *Point, m13Sq, m23Sq float64) {
	m12Sq := k.CalcThirdMassSq(m13Sq, m23Sq)
	if m12Sq < k.mSqMin[2] {
		m12Sq = k.mSqMin[2] + m12SqFloorOffset
		m13Sq = k.CalcThirdMassSq(m12Sq, m23Sq)
	}
	k.setMassSquares(p, m12Sq, m13Sq, m23Sq)
	k.calcParentFrameMomenta(p)
}

func (k *Kinematics) setMassSquares(p *Point, m12Sq, m13Sq, m23Sq float64) {
	p.M12Sq, p.M13Sq, p.M23Sq = m12Sq, m13Sq, m23Sq
	p.M12 = safeSqrt(m12Sq)
	p.M13 = safeSqrt(m13Sq)
	p.M23 = safeSqrt(m23Sq)
}

func (k *Kinematics) calcParentFrameMomenta(p *Point) {
	e1 := (k.mParentSq + k.mSq[0] - p.M23Sq) / (2.0 * k.mParent)
	e2 := (k.mParentSq + k.mSq[1] - p.M13Sq) / (2.0 * k.mParent)
	e3 := (k.mParentSq + k.mSq[2] - p.M12Sq) / (2.0 * k.mParent)

	p.P1Parent = pCalc(e1, k.mSq[0])
	p.P2Parent = pCalc(e2, k.mSq[1])
	p.P3Parent = pCalc(e3, k.mSq[2])

	p.Cov12 = k.covFactor(p.M12Sq, p.M12, 2)
	p.Cov13 = k.covFactor(p.M13Sq, p.M13, 1)
	p.Cov23 = k.covFactor(p.M23Sq, p.M23, 0)
}

func (k *Kinematics) covFactor(mSq, m float64, bachelor int) float64 {
	if m <= 0 {
		return 1.0
	}
	return (k.mParentSq + mSq - k.mSq[bachelor]) / (2.0 * k.mParent * m)
}

func (k *Kinematics) calcHelicities(p *Point) {
	p.C12, p.P1In12, p.P3In12 = k.cFromM(p.M12Sq, p.M13Sq, p.M12, 0, 1, 2)
	p.C23, p.P2In23, p.P1In23 = k.cFromM(p.M23Sq, p.M12Sq, p.M23, 1, 2, 0)
	// In the 13 frame |p1| = |p3|.
	p.C13, p.P1In13, p.P2In13 = k.cFromM(p.M13Sq, p.M23Sq, p.M13, 2, 0, 1)
}

func (k *Kinematics) calcSqDPVars(p *Point) {
	value := 2.0*(p.M12-k.mMin[2])/k.mDiff[2] - 1.0
	value = math.Max(-1.0, math.Min(1.0, value))
	p.MPrime = math.Acos(value) / math.Pi
	p.ThetaPrime = math.Acos(p.C12) / math.Pi
	switch p.ThetaPrime {
	case 0.0:
		p.ThetaPrime += thetaPrimeNudge
	case 1.0:
		p.ThetaPrime -= thetaPrimeNudge
	}
}

// cFromM returns the helicity cosine of pair ij (angle between i and k in
// the ij frame) together with the momenta of i and k in that frame.
func (k *Kinematics) cFromM(mijSq, mikSq, mij float64, i, j, l int) (cosHel, qi, ql float64) {
	if mij <= 0 {
		return 0, 0, 0
	}
	ei := (mijSq - k.mSq[j] + k.mSq[i]) / (2.0 * mij)
	el := (k.mParentSq - mijSq - k.mSq[l]) / (2.0 * mij)
	if ei < k.mass[i] || el < k.mass[l] {
		return 0, 0, 0
	}

	qi = pCalc(ei, k.mSq[i])
	ql = pCalc(el, k.mSq[l])
	if qi == 0 || ql == 0 {
		return 0, qi, ql
	}

	cosHel = -(mikSq - k.mSq[i] - k.mSq[l] - 2.0*ei*el) / (2.0 * qi * ql)
	cosHel = math.Max(-1.0, math.Min(1.0, cosHel))
	// Keeps the m13 <-> m23 symmetry for identical daughters.
	if i == 1 {
		cosHel = -cosHel
	}
	return cosHel, qi, ql
}

// mFromC is the inverse of cFromM: the invariant mass squared of pair il
// from the mass of pair ij and its helicity cosine.
func (k *Kinematics) mFromC(mijSq, cij, mij float64, i, j, l int) float64 {
	cosHel := cij
	if i == 1 {
		cosHel = -cosHel
	}
	ei := (mijSq - k.mSq[j] + k.mSq[i]) / (2.0 * mij)
	el := (k.mParentSq - mijSq - k.mSq[l]) / (2.0 * mij)

	qi := pCalc(ei, k.mSq[i])
	ql := pCalc(el, k.mSq[l])

	massSq := k.mSq[i] + k.mSq[l] + 2.0*ei*el - 2.0*qi*ql*cosHel
	if massSq < k.mSqMin[j] {
		massSq = k.mSqMin[j]
	}
	return massSq
}

func pCalc(energy, massSq float64) float64 {
	return math.Sqrt(math.Max(energy*energy-massSq, 0))
}

func safeSqrt(x float64) float64 {
	if x > 0 {
		return math.Sqrt(x)
	}
	return 0
}
