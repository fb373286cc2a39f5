// Package kmatrix implements the multi-channel K-matrix propagator used by
// the K-matrix production pole and slowly-varying production terms.
package kmatrix

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("pkg", "kmatrix")

// Channel selects the phase-space factor of a scattering channel. The
// numeric values are those used in parameter files.
type Channel int

const (
	PiPi Channel = iota + 1
	KK
	FourPi
	EtaEta
	EtaEtaP
	KPi
	KEtaP
	KThreePi
	D0K
	Dstar0K
)

var channelNames = map[Channel]string{
	PiPi:     "PiPi",
	KK:       "KK",
	FourPi:   "FourPi",
	EtaEta:   "EtaEta",
	EtaEtaP:  "EtaEtaP",
	KPi:      "KPi",
	KEtaP:    "KEtaP",
	KThreePi: "KThreePi",
	D0K:      "D0K",
	Dstar0K:  "Dstar0K",
}

func (c Channel) String() string {
	if n, ok := channelNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool { return c >= PiPi && c <= Dstar0K }

// Particle masses in GeV.
const (
	mPi       = 0.13957039
	mK        = 0.493677
	mEta      = 0.547862
	mEtaPrime = 0.95778
	mD0       = 1.86483
	mDstar0   = 2.00685
)

var (
	m2PiSq        = 4.0 * mPi * mPi
	m2KSq         = 4.0 * mK * mK
	m2EtaSq       = 4.0 * mEta * mEta
	mEtaEtaPSumSq = (mEta + mEtaPrime) * (mEta + mEtaPrime)
	mKPiSumSq     = (mK + mPi) * (mK + mPi)
	mKPiDiffSq    = (mK - mPi) * (mK - mPi)
	mKEtaPSumSq   = (mK + mEtaPrime) * (mK + mEtaPrime)
	mKEtaPDiffSq  = (mK - mEtaPrime) * (mK - mEtaPrime)
	mK3PiDiffSq   = (mK - 3.0*mPi) * (mK - 3.0*mPi)
	k3PiFactor    = math.Pow((1.44-mK3PiDiffSq)/1.44, -2.5)
	fourPiFactor  = 16.0 * mPi * mPi
	mD0KSumSq     = (mD0 + mK) * (mD0 + mK)
	mD0KDiffSq    = (mD0 - mK) * (mD0 - mK)
	mDst0KSumSq   = (mDstar0 + mK) * (mDstar0 + mK)
	mDst0KDiffSq  = (mDstar0 - mK) * (mDstar0 - mK)
)

// sqrtTerm returns sqrt(t), continued to i*sqrt(-t) below threshold.
func sqrtTerm(t float64) complex128 {
	if t < 0 {
		return complex(0, math.Sqrt(-t))
	}
	return complex(math.Sqrt(t), 0)
}

// Rho returns the phase-space factor of channel c at invariant mass squared s.
func Rho(c Channel, s float64) complex128 {
	if math.Abs(s) < 1e-10 {
		return 0
	}

	switch c {
	case PiPi:
		return sqrtTerm(1.0 - m2PiSq/s)
	case KK:
		return sqrtTerm(1.0 - m2KSq/s)
	case EtaEta:
		return sqrtTerm(1.0 - m2EtaSq/s)
	case EtaEtaP:
		// Only the sum threshold; the mass difference term has no
		// s-channel continuation.
		return sqrtTerm(1.0 - mEtaEtaPSumSq/s)
	case KPi:
		return sqrtTerm((1.0 - mKPiSumSq/s) * (1.0 - mKPiDiffSq/s))
	case KEtaP:
		return sqrtTerm((1.0 - mKEtaPSumSq/s) * (1.0 - mKEtaPDiffSq/s))
	case D0K:
		return sqrtTerm((1.0 - mD0KSumSq/s) * (1.0 - mD0KDiffSq/s))
	case Dstar0K:
		return sqrtTerm((1.0 - mDst0KSumSq/s) * (1.0 - mDst0KDiffSq/s))
	case FourPi:
		if s <= 1.0 {
			// polynomial fit to the multi-body phase-space integral
			t := ((1.07885*s+0.13655)*s-0.29744)*s - 0.20840
			t = ((t*s+0.13851)*s-0.01933)*s + 0.00051
			return complex(math.Max(t, 0), 0)
		}
		return complex(math.Sqrt(1.0-fourPiFactor/s), 0)
	case KThreePi:
		if s < 1.44 {
			t := 1.0 - mK3PiDiffSq/s
			if t < 0 {
				return complex(0, k3PiFactor*math.Pow(-t, 2.5))
			}
			return complex(k3PiFactor*math.Pow(t, 2.5), 0)
		}
		return 1
	}
	log.WithField("channel", int(c)).Error("unknown phase-space channel")
	return 0
}

// momentum returns the channel break-up momentum q = sqrt(s)|rho|/2.
func momentum(c Channel, s float64) float64 {
	return 0.5 * math.Sqrt(math.Abs(s)) * cmplx.Abs(Rho(c, s))
}
