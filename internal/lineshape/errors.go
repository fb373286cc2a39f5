package lineshape

import "errors"

var (
	// ErrUnknownState indicates a name missing from the catalogue.
	ErrUnknownState = errors.New("lineshape: unknown resonance state")

	// ErrBadBachelor indicates a bachelor index other than 1, 2 or 3.
	ErrBadBachelor = errors.New("lineshape: bachelor must be 1, 2 or 3")

	// ErrUnsupportedFlatte indicates a Flatté shape for a state without
	// coupled-channel constants.
	ErrUnsupportedFlatte = errors.New("lineshape: no Flatté parameterisation for state")

	// ErrNoPropagator indicates a K-matrix term without a propagator.
	ErrNoPropagator = errors.New("lineshape: K-matrix term needs a propagator")

	// ErrBadIndex indicates a K-matrix pole or channel index out of range.
	ErrBadIndex = errors.New("lineshape: K-matrix index out of range")

	// ErrBadKnots indicates partial-wave knots outside the kinematic limits.
	ErrBadKnots = errors.New("lineshape: partial-wave knots outside kinematic range")

	// ErrUnknownKind indicates an unrecognised lineshape kind.
	ErrUnknownKind = errors.New("lineshape: unknown kind")
)
