package vicsek

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a configuration rejected by validation.
	ErrInvalidConfig = errors.New("vicsek: invalid configuration")

	// ErrNotReady indicates an operation that needs a prior Reset.
	ErrNotReady = errors.New("vicsek: simulation not initialized")

	// ErrParticleCount indicates explicit particles that do not match the
	// configured particle count.
	ErrParticleCount = errors.New("vicsek: particle count mismatch")
)

// ValidationError describes the first offending configuration field.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("vicsek: invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}
