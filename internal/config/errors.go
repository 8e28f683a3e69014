package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError describes a validation failure for a setting.
type ValidationError struct {
	// Field is the flag-style name of the setting.
	Field string
	// Message describes the validation error.
	Message string
	// Value is the invalid value.
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("--%s %s", e.Field, e.Message)
	}
	return fmt.Sprintf("--%s %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}
