package kmatrix

import (
	"errors"
	"fmt"
)

var (
	// ErrBadDimensions indicates a non-positive channel or pole count.
	ErrBadDimensions = errors.New("kmatrix: channel and pole counts must be positive")

	// ErrBadRow indicates a propagator row outside 1..nChannels.
	ErrBadRow = errors.New("kmatrix: row index out of range")

	// ErrUnknownPropagator indicates a lookup of an undefined propagator.
	ErrUnknownPropagator = errors.New("kmatrix: unknown propagator")

	// ErrDuplicatePropagator indicates a second definition under one name.
	ErrDuplicatePropagator = errors.New("kmatrix: propagator already defined")

	// ErrMissingChannels indicates a parameter file without a channels line.
	ErrMissingChannels = errors.New("kmatrix: no channels line in parameter file")
)

// ParseError reports a malformed line of a parameter file.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("kmatrix: line %d: %s", e.Line, e.Msg)
}
