package langmodel

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientInput is returned when a corpus holds fewer characters
	// than the model's window length.
	ErrInsufficientInput = errors.New("insufficient input for window length")
	// ErrUninitializedModel is returned when generation is attempted before
	// the model was trained and its probabilities calculated.
	ErrUninitializedModel = errors.New("model is not trained or probabilities are not calculated")
	// ErrInvalidWindowLength is returned for a non-positive window length.
	ErrInvalidWindowLength = errors.New("window length must be positive")
	// ErrInvalidLength is returned for a negative generation length.
	ErrInvalidLength = errors.New("generation length must not be negative")
	// ErrDeadEnd is returned by Generate when WithDeadEndError is enabled and
	// generation reached a window that was never followed by a character.
	ErrDeadEnd = errors.New("generation reached a window with no successors")
	// ErrWindowLengthMismatch is returned when merging data built with a
	// different window length.
	ErrWindowLengthMismatch = errors.New("window length mismatch")
)

// CorpusReadError wraps an I/O failure of the corpus being trained on,
// together with the name of the resource that failed.
type CorpusReadError struct {
	Resource string
	Err      error
}

func (e *CorpusReadError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("corpus read error: %v", e.Err)
	}
	return fmt.Sprintf("corpus read error in %s: %v", e.Resource, e.Err)
}

func (e *CorpusReadError) Unwrap() error {
	return e.Err
}
