package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when an athlete has no record of the requested kind.
var ErrNotFound = errors.New("not found")

// ValidationError reports an entity that violates a construction invariant.
// Field names the offending attribute using its wire (JSON) name.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
