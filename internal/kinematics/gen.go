package kinematics

import "math/rand"

// MaxGenAttempts bounds the rejection loop of GenFlatPhaseSpace.
const MaxGenAttempts = 10000

// GenFlatPhaseSpace draws a point uniformly in the conventional DP by
// sampling the bounding box and rejecting points outside the boundary.
// It reports the number of box draws used; ok is false if no point was
// found within MaxGenAttempts draws.
func (k *Kinematics) GenFlatPhaseSpace(rng *rand.Rand) (m13Sq, m23Sq float64, attempts int, ok bool) {
	for attempts = 1; attempts <= MaxGenAttempts; attempts++ {
		m13Sq = k.mSqMin[1] + rng.Float64()*k.mSqDiff[1]
		m23Sq = k.mSqMin[0] + rng.Float64()*k.mSqDiff[0]
		if k.WithinDPLimits(m13Sq, m23Sq) {
			return m13Sq, m23Sq, attempts, true
		}
	}
	log.WithField("attempts", MaxGenAttempts).Warn("no phase-space point inside the DP boundary")
	return 0, 0, MaxGenAttempts, false
}

// GenFlatSqDP draws a point uniformly in the square DP.
func (k *Kinematics) GenFlatSqDP(rng *rand.Rand) (mPrime, thetaPrime float64) {
	return rng.Float64(), rng.Float64()
}
