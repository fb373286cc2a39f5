package kinematics

import "errors"

var (
	// ErrNonPositiveMass indicates a parent or daughter mass that is zero or negative.
	ErrNonPositiveMass = errors.New("kinematics: masses must be positive")

	// ErrImpossibleMasses indicates daughters heavier than the parent.
	ErrImpossibleMasses = errors.New("kinematics: daughter masses exceed parent mass")
)
