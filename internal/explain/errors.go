package explain

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors through errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrComputation   = errors.New("computation error")
	ErrClosed        = errors.New("explainer is closed")
)

// ConfigurationError reports an explainer that cannot be built from the
// given model and Config. It is only returned by New.
type ConfigurationError struct {
	Field string // Config field or "model"
	Err   error  // Underlying cause
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("explain: configuration error: %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ValidationError reports inputs or labels that cannot be explained.
// It is returned before any gradient is computed.
type ValidationError struct {
	Arg     string // "inputs", "labels" or "model output"
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("explain: invalid %s: %s", e.Arg, e.Details)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ComputationError reports a failure inside the forward or backward pass of
// one chunk. No partial result accompanies it.
type ComputationError struct {
	Offset int   // Index of the chunk's first sample
	Size   int   // Number of samples in the chunk
	Err    error // Underlying cause
}

// Error implements the error interface.
func (e *ComputationError) Error() string {
	return fmt.Sprintf("explain: computation failed for samples [%d, %d): %v", e.Offset, e.Offset+e.Size, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ComputationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrComputation.
func (e *ComputationError) Is(target error) bool {
	return target == ErrComputation
}

func validationErrorf(arg, format string, args ...any) error {
	return &ValidationError{Arg: arg, Details: fmt.Sprintf(format, args...)}
}
