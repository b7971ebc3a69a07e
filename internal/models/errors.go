package models

import "fmt"

// InvalidInputError reports input the analysis refuses to score: an empty or
// malformed period sequence, non-finite raw values or an inconsistent config.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// NewInvalidInput creates an InvalidInputError for field.
func NewInvalidInput(field, format string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}
