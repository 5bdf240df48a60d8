package projection

import "errors"

var (
	// ErrInvalidDimension is returned when the image size or the number of
	// directions is not positive
	ErrInvalidDimension = errors.New("projection: image size and direction count must be positive")

	// ErrDimensionMismatch is returned when an image or vector does not match
	// the operator shape
	ErrDimensionMismatch = errors.New("projection: dimension mismatch")

	// ErrInvalidNoise is returned for a negative noise standard deviation
	ErrInvalidNoise = errors.New("projection: noise standard deviation must be non-negative")
)
