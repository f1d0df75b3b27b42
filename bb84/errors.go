package bb84

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a configuration value outside its domain.
	ErrInvalidConfig = errors.New("bb84: invalid config")

	// ErrInsufficientSiftedBits indicates that no transmission slot survived
	// sifting, so the error rate cannot be estimated.
	ErrInsufficientSiftedBits = errors.New("bb84: no sifted bits to sample")

	// ErrInsufficientRawKey indicates that the raw key is too short for the
	// configured extractor to produce the requested output.
	ErrInsufficientRawKey = errors.New("bb84: raw key too short for extractor")
)

// A StageError records the protocol stage in which a run failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("bb84 %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
