package spline

import "errors"

var (
	// ErrTooFewKnots indicates fewer than three knots.
	ErrTooFewKnots = errors.New("spline: at least 3 knots are required")

	// ErrKnotsNotIncreasing indicates knots that are not strictly increasing.
	ErrKnotsNotIncreasing = errors.New("spline: knots must be strictly increasing")

	// ErrLengthMismatch indicates x and y slices of different length.
	ErrLengthMismatch = errors.New("spline: knot and value counts differ")

	// ErrBadGrid indicates a histogram grid with inconsistent dimensions.
	ErrBadGrid = errors.New("spline: invalid histogram grid")
)
