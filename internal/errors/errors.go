// Package errors provides centralized error handling for the migration engine.
// Errors carry a component, a category matching the engine's error taxonomy,
// and optional context data.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"time"
)

// ErrorCategory represents the type of error for better categorization.
type ErrorCategory string

const (
	// CategoryConcurrency covers attempts to run a migration or rollback
	// while the exclusive lock is already held. Terminal, never retried.
	CategoryConcurrency ErrorCategory = "concurrency"
	// CategorySchemaLoad covers a missing or unreadable canonical schema
	// definition.
	CategorySchemaLoad ErrorCategory = "schema-load"
	// CategoryTransaction covers statement failures inside a transactional
	// phase. Triggers abort and restore.
	CategoryTransaction ErrorCategory = "transaction"
	// CategoryVerification covers failed post-migration integrity checks.
	// Treated identically to a transaction failure by the executor.
	CategoryVerification ErrorCategory = "verification"
	// CategoryRollbackUnavailable is returned when a rollback is requested
	// but no backup exists to restore from. Terminal, never retried.
	CategoryRollbackUnavailable ErrorCategory = "rollback-unavailable"
	// CategoryCleanup covers a failed cleanup category. Does not abort
	// sibling categories.
	CategoryCleanup ErrorCategory = "cleanup"

	CategoryDatabase      ErrorCategory = "database"
	CategoryValidation    ErrorCategory = "validation"
	CategoryState         ErrorCategory = "state"
	CategoryConflict      ErrorCategory = "conflict"
	CategoryNotFound      ErrorCategory = "not-found"
	CategoryFileIO        ErrorCategory = "file-io"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryGeneric       ErrorCategory = "generic"
)

// ComponentUnknown is used when the component is not set.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with component, category and context metadata.
type EnhancedError struct {
	Err       error          // Original error
	Component string         // Component where the error occurred
	Category  ErrorCategory  // Error category for grouping
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
}

// Error implements the error interface.
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface.
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches another EnhancedError by category, otherwise defers to the
// wrapped error chain.
func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Category == ee2.Category
	}
	return Is(ee.Err, target)
}

// GetContext returns a copy of the error context.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	contextCopy := make(map[string]any, len(ee.Context))
	maps.Copy(contextCopy, ee.Context)
	return contextCopy
}

// ErrorBuilder provides a fluent interface for creating enhanced errors.
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new error builder wrapping err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf creates a new error builder from a formatted message.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component name.
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category.
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds context data to the error.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the EnhancedError.
func (eb *ErrorBuilder) Build() *EnhancedError {
	ee := &EnhancedError{
		Err:       eb.err,
		Component: eb.component,
		Category:  eb.category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
	if ee.Component == "" {
		ee.Component = ComponentUnknown
	}
	if ee.Category == "" {
		// Preserve the category of an already-categorized cause.
		var cause *EnhancedError
		if As(eb.err, &cause) && cause.Category != "" {
			ee.Category = cause.Category
		} else {
			ee.Category = CategoryGeneric
		}
	}
	return ee
}

// Standard library passthrough functions. These allow this package to be a
// drop-in replacement for the standard errors package.

// NewStd creates a new standard error.
func NewStd(text string) error {
	return stderrors.New(text)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join returns an error that wraps the given errors.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// IsCategory checks if an error is an EnhancedError with the given category.
func IsCategory(err error, category ErrorCategory) bool {
	var enhancedErr *EnhancedError
	return As(err, &enhancedErr) && enhancedErr.Category == category
}

// IsConcurrency reports whether err is a lock-contention error.
func IsConcurrency(err error) bool {
	return IsCategory(err, CategoryConcurrency)
}

// IsVerification reports whether err is a failed integrity verification.
func IsVerification(err error) bool {
	return IsCategory(err, CategoryVerification)
}

// IsRollbackUnavailable reports whether err means no backup exists to
// restore from.
func IsRollbackUnavailable(err error) bool {
	return IsCategory(err, CategoryRollbackUnavailable)
}

// IsNotFound checks if an error is an EnhancedError with CategoryNotFound.
func IsNotFound(err error) bool {
	return IsCategory(err, CategoryNotFound)
}
