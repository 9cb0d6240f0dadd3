package models

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by scales and the conversion service.
// Match them with errors.Is; *GradeError carries the details.
var (
	ErrInvalidScaleData   = errors.New("invalid scale data")
	ErrGradeNotFound      = errors.New("grade not found")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrScaleNotRegistered = errors.New("scale not registered")
)

// GradeError describes a failed scale or conversion operation
type GradeError struct {
	Kind    error
	Scale   string
	Value   string
	Index   int
	Message string
}

func (e *GradeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	switch {
	case e.Value != "":
		return fmt.Sprintf("%s: %q in scale %s", e.Kind, e.Value, e.Scale)
	case e.Index != 0:
		return fmt.Sprintf("%s: index %d in scale %s", e.Kind, e.Index, e.Scale)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Scale)
	}
}

// Unwrap exposes the error kind to errors.Is
func (e *GradeError) Unwrap() error {
	return e.Kind
}

// IsTransient returns false: none of these conditions resolve on retry
func (e *GradeError) IsTransient() bool {
	return false
}

// ValidationError represents invalid caller input such as an unknown policy name
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
