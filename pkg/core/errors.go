// Package core holds the error model shared by the client, helper and page layers.
package core

import (
	"fmt"
)

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Element not found, not interactable
	ErrCategoryTimeout                         // Operation timed out
	ErrCategoryConnection                      // Appium server unreachable, session lost
	ErrCategoryConfig                          // Invalid configuration, missing required field
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: element_not_found, timeout, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an ExecutionError with the same code.
// Copies made by WithCause/WithMessage/WithDetails still match the predefined value.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	c := *e
	c.Cause = cause
	return &c
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	c := *e
	c.Message = msg
	return &c
}

// WithDetails returns a copy carrying the union of both detail maps; new keys win.
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	c := *e
	c.Details = make(map[string]interface{}, len(e.Details)+len(details))
	for k, v := range e.Details {
		c.Details[k] = v
	}
	for k, v := range details {
		c.Details[k] = v
	}
	return &c
}

// Predefined errors. Match them with errors.Is; derived copies keep the code.
var (
	ErrElementNotFound        = NewExecutionError(ErrCategoryAssertion, "element_not_found", "element not found")
	ErrElementNotInteractable = NewExecutionError(ErrCategoryAssertion, "element_not_interactable", "element is present but not interactable")
	ErrTimeout                = NewExecutionError(ErrCategoryTimeout, "timeout", "operation timed out")
	ErrServerUnreachable      = NewExecutionError(ErrCategoryConnection, "server_unreachable", "could not connect to automation server")
	ErrSessionNotCreated      = NewExecutionError(ErrCategoryConnection, "session_not_created", "automation session could not be created")
	ErrInvalidConfig          = NewExecutionError(ErrCategoryConfig, "invalid_config", "invalid configuration")
)

// NewExecutionError creates an error with no cause or details.
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
