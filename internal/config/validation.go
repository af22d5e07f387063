package config

import (
	"fmt"
	"strings"
)

// FieldError is one invalid configuration field.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationErrors collects all validation errors so a bad config reports
// every problem at once.
type ValidationErrors struct {
	Fields []FieldError
}

func (e *ValidationErrors) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// HasErrors returns true if any validation errors exist.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Fields) > 0
}

// Error formats all validation errors into a clear message.
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, f := range e.Fields {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", f.Field, f.Reason))
	}
	return sb.String()
}
