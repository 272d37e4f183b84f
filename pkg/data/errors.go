package data

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors.
var (
	ErrValidation    = errors.New("validation failed")
	ErrQueryConsumed = errors.New("query set has already been executed")
	ErrUnknownLookup = errors.New("unknown field lookup")
	ErrUnknownField  = errors.New("unknown field")
	ErrNoAdaptor     = errors.New("no storage adaptor configured")
	ErrNotWatchable  = errors.New("storage adaptor does not support watching")
	ErrStalled       = errors.New("query stalled")
)

// ValidationError reports the messages a Field produced for a rejected value.
// It unwraps to ErrValidation.
type ValidationError struct {
	Model    string
	Field    string
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Model, e.Field, strings.Join(e.Messages, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ValidationErrors extracts every ValidationError contained in err,
// including the members of a joined error.
func ValidationErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}

	var out []*ValidationError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, ValidationErrors(e)...)
		}
		return out
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		out = append(out, ve)
	}
	return out
}
