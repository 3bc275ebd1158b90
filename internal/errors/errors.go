// Package errors provides structured error types for client-facing command
// failures. Each error carries a machine-readable code so the protocol layer
// can map it onto a request failure without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a category of error for programmatic handling
type ErrorCode string

const (
	// Thread errors
	CodeThreadNotFound  ErrorCode = "THREAD_NOT_FOUND"
	CodeThreadNotPaused ErrorCode = "THREAD_NOT_PAUSED"

	// Runtime errors
	CodeBreakpointFailed ErrorCode = "BREAKPOINT_FAILED"
	CodeEvaluationFailed ErrorCode = "EVALUATION_FAILED"
	CodeVMServiceFailed  ErrorCode = "VM_SERVICE_FAILED"
)

// DebugError is a structured error type carrying a code, a human-readable
// message and optional context details.
type DebugError struct {
	// Code is a machine-readable error category
	Code ErrorCode `json:"code"`

	// Message is a human-readable description of what went wrong
	Message string `json:"message"`

	// Hint provides actionable guidance on how to fix the error
	Hint string `json:"hint,omitempty"`

	// Details contains additional context (e.g., the invalid value)
	Details map[string]interface{} `json:"details,omitempty"`

	// Cause is the underlying error, if any
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *DebugError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Hint != "" {
		sb.WriteString(" | Hint: ")
		sb.WriteString(e.Hint)
	}

	return sb.String()
}

// Unwrap returns the underlying error for error chaining
func (e *DebugError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to the error
func (e *DebugError) WithDetails(key string, value interface{}) *DebugError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ThreadNotFound creates an error for a thread id that was never observed.
func ThreadNotFound(threadID int) *DebugError {
	return &DebugError{
		Code:    CodeThreadNotFound,
		Message: fmt.Sprintf("thread %d not found", threadID),
		Hint:    "The thread id does not correspond to any isolate seen in this session.",
		Details: map[string]interface{}{
			"threadId": threadID,
		},
	}
}

// ThreadNotPaused creates an error for operations requiring a paused thread.
func ThreadNotPaused(threadID int) *DebugError {
	return &DebugError{
		Code:    CodeThreadNotPaused,
		Message: fmt.Sprintf("thread %d is not paused", threadID),
		Details: map[string]interface{}{
			"threadId": threadID,
		},
	}
}

// BreakpointFailed creates an error for breakpoint failures
func BreakpointFailed(uri string, line int, reason string) *DebugError {
	return &DebugError{
		Code:    CodeBreakpointFailed,
		Message: fmt.Sprintf("could not set breakpoint at %s:%d", uri, line),
		Hint:    fmt.Sprintf("Reason: %s. Ensure the line contains executable code.", reason),
		Details: map[string]interface{}{
			"uri":    uri,
			"line":   line,
			"reason": reason,
		},
	}
}

// EvaluationFailed creates an error for expression evaluation failures
func EvaluationFailed(expression string, err error) *DebugError {
	return &DebugError{
		Code:    CodeEvaluationFailed,
		Message: fmt.Sprintf("failed to evaluate expression '%s': %v", expression, err),
		Cause:   err,
		Details: map[string]interface{}{
			"expression": expression,
		},
	}
}

// VMServiceFailed wraps an unclassified VM service failure.
func VMServiceFailed(operation string, err error) *DebugError {
	return &DebugError{
		Code:    CodeVMServiceFailed,
		Message: fmt.Sprintf("%s failed: %v", operation, err),
		Cause:   err,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// FromError creates a DebugError from a generic error, preserving any
// existing structure.
func FromError(err error) *DebugError {
	var de *DebugError
	if stderrors.As(err, &de) {
		return de
	}
	return &DebugError{
		Code:    "UNKNOWN_ERROR",
		Message: err.Error(),
		Cause:   err,
	}
}
