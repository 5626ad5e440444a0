package dynamo

import (
	"errors"
	"fmt"
)

// Error taxonomy for model assembly and simulation.
var (
	// ErrConfiguration indicates malformed or inconsistent input: bad compositions,
	// unknown species, negative dimensions, wrong connector arity, duplicate names.
	ErrConfiguration = errors.New("dynamo: configuration error")

	// ErrInvariant indicates a broken post-build invariant, e.g. an index table that
	// no longer resolves. It is a programming bug, not a user error.
	ErrInvariant = errors.New("dynamo: invariant violation")

	// ErrNumericalDomain indicates evaluation outside a model's validity range, such
	// as a temperature outside the species polynomial fits.
	ErrNumericalDomain = errors.New("dynamo: numerical domain error")

	// ErrSampleCapacity indicates a sample buffer reached its configured ceiling.
	ErrSampleCapacity = errors.New("dynamo: sample buffer capacity exceeded")
)

// ObjectError wraps an error with the name of the object and the operation that
// produced it.
type ObjectError struct {
	Object string
	Op     string
	Err    error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Object, e.Err)
}

func (e *ObjectError) Unwrap() error {
	return e.Err
}

// Configf builds an ErrConfiguration with context.
func Configf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// Invariantf builds an ErrInvariant with context.
func Invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// Domainf builds an ErrNumericalDomain with context.
func Domainf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNumericalDomain, fmt.Sprintf(format, args...))
}
