package dynamo

import "errors"

// Domain errors for engine operations.
var (
	// ErrWrongState indicates an operation not allowed in the current lifecycle state.
	ErrWrongState = errors.New("dynamo: operation not allowed in current state")

	// ErrDuplicateResonance indicates a resonance name that is already in use.
	ErrDuplicateResonance = errors.New("dynamo: duplicate resonance name")

	// ErrCoeffCount indicates a coefficient slice whose length differs from the number of resonances.
	ErrCoeffCount = errors.New("dynamo: coefficient count does not match resonance count")

	// ErrNoResonances indicates an engine initialised without any component.
	ErrNoResonances = errors.New("dynamo: no resonances defined")

	// ErrUnknownPropagator indicates a K-matrix propagator name that was never defined.
	ErrUnknownPropagator = errors.New("dynamo: unknown K-matrix propagator")

	// ErrUnknownResonance indicates a resonance name that is not in the engine.
	ErrUnknownResonance = errors.New("dynamo: unknown resonance")

	// ErrEventIndex indicates an index outside the cached data sample.
	ErrEventIndex = errors.New("dynamo: event index out of range")
)

// ResonanceError wraps an error with the name of the resonance involved.
type ResonanceError struct {
	Name    string
	Wrapped error
}

func (e *ResonanceError) Error() string {
	return "dynamo: " + e.Name + ": " + e.Wrapped.Error()
}

func (e *ResonanceError) Unwrap() error {
	return e.Wrapped
}
