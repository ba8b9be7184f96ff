package domain

import "errors"

var (
	// ErrOutOfRange indicates a latitude or longitude the projection or
	// the UTM grid cannot represent.
	ErrOutOfRange = errors.New("coordinate out of range")

	// ErrDegenerateViewport indicates a viewport with zero or negative
	// extent or non-finite coordinates.
	ErrDegenerateViewport = errors.New("degenerate viewport")

	// ErrInvariantViolation indicates a programming defect, such as a zone
	// walk that did not terminate within its bound.
	ErrInvariantViolation = errors.New("internal invariant violation")
)
