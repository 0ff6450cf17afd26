package timetable

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a malformed timing configuration. No slots are produced.
type ConfigurationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid timing configuration: %s %s", e.Field, e.Reason)
}

// FieldError identifies one offending field of a batch item.
type FieldError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every problem found in a batch.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("entries[%d].%s: %s", fe.Index, fe.Field, fe.Message))
	}
	return "invalid timetable entries: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(index int, field, message string) {
	e.Errors = append(e.Errors, FieldError{Index: index, Field: field, Message: message})
}

func (e *ValidationError) orNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
