// Package optim searches model and generator settings: the envelope for
// accept/reject generation and grid scans over configuration parameters.
package optim

import (
	"github.com/pkg/errors"
	"github.com/san-kum/dalitz/internal/dynamo"
	"github.com/san-kum/dalitz/internal/kinematics"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("pkg", "optim")

// ErrBadGrid is returned for scans with fewer than two points per axis.
var ErrBadGrid = errors.New("optim: scan needs at least 2 points per axis")

// Peak is the largest sampled generation weight.
type Peak struct {
	Value float64
	Point kinematics.Point
}

// ScanASqMax samples the generation weight on an n×n grid and returns its
// maximum. The weight is |A|² times efficiency, times the Jacobian when
// squareDP is set, matching what the generator compares to its envelope.
// Grid cell centres are used, so the result underestimates narrow peaks.
func ScanASqMax(eng *dynamo.Engine, n int, squareDP bool) (Peak, error) {
	if n < 2 {
		return Peak{}, ErrBadGrid
	}
	kin := eng.Kinematics()

	var best Peak
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var p kinematics.Point
			jac := 1.0
			if squareDP {
				p = kin.UpdateSqDPKinematics((float64(i)+0.5)/float64(n), (float64(j)+0.5)/float64(n))
				jac = p.Jacobian
			} else {
				m13 := kin.M13SqMin() + (float64(i)+0.5)*(kin.M13SqMax()-kin.M13SqMin())/float64(n)
				m23 := kin.M23SqMin() + (float64(j)+0.5)*(kin.M23SqMax()-kin.M23SqMin())/float64(n)
				if !kin.WithinDPLimits(m13, m23) {
					continue
				}
				p = kinematics.Point{M13Sq: m13, M23Sq: m23}
			}

			info, err := eng.CalcLikelihoodInfo(p.M13Sq, p.M23Sq)
			if err != nil {
				return Peak{}, err
			}
			if v := info.ASq * jac; v > best.Value {
				best = Peak{Value: v, Point: info.Point}
			}
		}
	}

	log.WithFields(logrus.Fields{
		"n":        n,
		"squareDP": squareDP,
		"max":      best.Value,
		"m13Sq":    best.Point.M13Sq,
		"m23Sq":    best.Point.M23Sq,
	}).Debug("envelope scan")
	return best, nil
}
