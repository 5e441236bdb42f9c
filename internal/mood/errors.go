package mood

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is the root of every "nothing to summarize" failure.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNoSamples means no usable sample ever contributed.
	ErrNoSamples = fmt.Errorf("%w: no samples contributed", ErrInsufficientData)

	// ErrZeroSignal means samples contributed but every score summed to zero.
	ErrZeroSignal = fmt.Errorf("%w: accumulated scores are all zero", ErrInsufficientData)

	ErrInvalidCapacity = errors.New("frame buffer capacity must be at least 1")
)
