package metrics

import (
	"errors"
	"fmt"
)

const Namespace = "vmclient"

var (
	ErrMissingName     = errors.New(Namespace + ": metric name is missing")
	ErrInvalidName     = errors.New(Namespace + ": invalid metric name")
	ErrEmptyName       = fmt.Errorf("%w: metric name cannot be empty", ErrInvalidName)
	ErrInvalidQuantile = errors.New(Namespace + ": quantile must be between 0.0 and 1.0")
	ErrInvalidConfig   = errors.New(Namespace + ": invalid configuration")
	ErrMissingSupplier = errors.New(Namespace + ": gauge supplier is missing")
	ErrKindMismatch    = errors.New(Namespace + ": metric is registered with another kind")
)

// SerializationError is returned by Registry.Write when the sink rejects a metric.
type SerializationError struct {
	Kind Kind
	Name string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s: unable to serialize %s metric %s: %v", Namespace, e.Kind, e.Name, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
