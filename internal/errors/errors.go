// Package errors provides a lightweight structured error type (SiteGenError)
// for category-based classification and exit-code mapping in the CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a SiteGen error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Build and processing errors
	CategoryRender     ErrorCategory = "render"
	CategoryArtifact   ErrorCategory = "artifact"
	CategoryIndex      ErrorCategory = "index"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// SiteGenError is a structured error with category, severity, and context
type SiteGenError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for SiteGenError
type ContextFields map[string]any

// Error implements the error interface
func (e *SiteGenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *SiteGenError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *SiteGenError) WithContext(key string, value any) *SiteGenError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new SiteGenError
func New(category ErrorCategory, severity ErrorSeverity, message string) *SiteGenError {
	return &SiteGenError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new SiteGenError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *SiteGenError {
	return &SiteGenError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if sge, ok := err.(*SiteGenError); ok {
		return sge.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a SiteGenError
func GetCategory(err error) ErrorCategory {
	if sge, ok := err.(*SiteGenError); ok {
		return sge.Category
	}
	return CategoryInternal
}

// Convenience constructors for common failure shapes.

func ConfigNotFound(path string) *SiteGenError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func OutputError(operation string, cause error) *SiteGenError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "output directory operation failed").
		WithContext("operation", operation)
}

func RenderError(path string, cause error) *SiteGenError {
	return Wrap(cause, CategoryRender, SeverityError, "page render failed").
		WithContext("path", path)
}

func ArtifactError(artifact string, cause error) *SiteGenError {
	return Wrap(cause, CategoryArtifact, SeverityError, "artifact generation failed").
		WithContext("artifact", artifact)
}

func IndexPersistError(cause error) *SiteGenError {
	return Wrap(cause, CategoryIndex, SeverityFatal, "index persistence failed")
}
