package errors

import (
	"fmt"
)

// ParseError represents a YAML plan parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures plan or parameter validation issues detected
// before any request leaves the host.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UnsupportedVersionError reports that the connected array's REST API
// version is below the minimum a requested feature needs. It is always
// raised before any mutating call is attempted.
type UnsupportedVersionError struct {
	Feature string
	Needs   string
	Have    string
}

// NewUnsupportedVersionError constructs an UnsupportedVersionError.
func NewUnsupportedVersionError(feature, needs, have string) error {
	return &UnsupportedVersionError{Feature: feature, Needs: needs, Have: have}
}

func (e *UnsupportedVersionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s requires REST API %s, array reports %s", e.Feature, e.Needs, e.Have)
}

// RemoteOperationError reports a non-success response from the array. The
// server-supplied error text is carried verbatim; the operation is never
// retried, and partial state is left as the last successful call produced it.
type RemoteOperationError struct {
	Op         string
	StatusCode int
	Message    string
}

// NewRemoteOperationError constructs a RemoteOperationError.
func NewRemoteOperationError(op string, statusCode int, message string) error {
	return &RemoteOperationError{Op: op, StatusCode: statusCode, Message: message}
}

func (e *RemoteOperationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("remote operation %s failed (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote operation failed (status %d): %s", e.StatusCode, e.Message)
}

// ReconcileError represents a runtime failure while converging a task.
type ReconcileError struct {
	TaskID string
	Err    error
}

// NewReconcileError constructs a ReconcileError.
func NewReconcileError(taskID string, err error) error {
	return &ReconcileError{TaskID: taskID, Err: err}
}

func (e *ReconcileError) Error() string {
	if e == nil {
		return ""
	}
	if e.TaskID != "" {
		return fmt.Sprintf("reconcile error on task %s: %v", e.TaskID, e.Err)
	}
	return fmt.Sprintf("reconcile error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *ReconcileError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
