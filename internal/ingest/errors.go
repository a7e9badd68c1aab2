package ingest

import (
	"errors"
	"fmt"
)

// ErrNoPDF is returned when a conversion reports success but no PDF exists
var ErrNoPDF = errors.New("failed to produce a PDF")

// ValidationError represents input validation failure
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s '%s': %s", e.Field, e.Value, e.Reason)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// SecurityError represents a security violation
type SecurityError struct {
	Type    string // e.g., "path_traversal", "null_byte"
	Details string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security violation (%s): %s", e.Type, e.Details)
}
