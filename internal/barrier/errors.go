package barrier

import "errors"

var (
	// ErrSpinTooHigh indicates a spin above the supported maximum of 5.
	ErrSpinTooHigh = errors.New("barrier: spin above 5 is not supported")

	// ErrNegativeRadius indicates a negative barrier radius.
	ErrNegativeRadius = errors.New("barrier: radius must not be negative")

	// ErrUnknownCategory indicates an unrecognised category name.
	ErrUnknownCategory = errors.New("barrier: unknown radius category")

	// ErrNoRadii indicates a factor built without a radius arena.
	ErrNoRadii = errors.New("barrier: nil radius arena")
)
