// Package errors defines the error taxonomy for meter data processing.
//
// Two error classes are fatal and abort a run before any output is written:
// FormatError (structurally invalid input file) and ConfigError (invalid
// time-of-use configuration). Everything else that goes wrong with data
// content is a Warning: recorded, surfaced alongside results, never thrown.
package errors

import (
	"fmt"
)

// FormatError indicates an input file that cannot be parsed at the
// structural level (missing mandatory records, unrecognized format,
// no usable interval data).
type FormatError struct {
	File    string
	Line    int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *FormatError) Error() string {
	if e == nil {
		return "unknown format error"
	}
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("format error in %s line %d: %s", e.File, e.Line, e.Message)
	case e.File != "":
		return fmt.Sprintf("format error in %s: %s", e.File, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("format error at line %d: %s", e.Line, e.Message)
	default:
		return fmt.Sprintf("format error: %s", e.Message)
	}
}

// Unwrap returns the underlying error
func (e *FormatError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewFormatError creates a new format error
func NewFormatError(message string) *FormatError {
	return &FormatError{Message: message}
}

// NewFormatErrorAt creates a new format error tied to a line number
func NewFormatErrorAt(line int, message string) *FormatError {
	return &FormatError{Line: line, Message: message}
}

// WrapFormatError creates a format error wrapping a cause
func WrapFormatError(message string, cause error) *FormatError {
	return &FormatError{Message: message, Cause: cause}
}

// ConfigError indicates a structurally invalid time-of-use configuration
// (empty period name, invalid range, negative price, unknown state).
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e == nil {
		return "unknown config error"
	}
	if e.Field != "" {
		return fmt.Sprintf("config error [%s]: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewConfigError creates a new config error for a named field
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// WrapConfigError creates a config error wrapping a cause
func WrapConfigError(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}
