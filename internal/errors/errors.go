package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a prompt store error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // malformed input at the boundary
	ErrNotFound         ErrorCode = "NOT_FOUND"         // metadata or body absent
	ErrPermissionDenied ErrorCode = "PERMISSION_DENIED" // mutation of a built-in prompt
	ErrStorageFailure   ErrorCode = "STORAGE_FAILURE"   // sqlite I/O or corruption
	ErrCancelled        ErrorCode = "CANCELLED"         // superseded or cancelled computation
	ErrInternal         ErrorCode = "INTERNAL"
)

// PromptError represents a structured error with code and details.
type PromptError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *PromptError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *PromptError) Unwrap() error {
	return e.Err
}

// NewInvalidRequest creates an error for invalid request parameters.
func NewInvalidRequest(msg string) *PromptError {
	return &PromptError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewNotFound creates an error for when a prompt cannot be found.
func NewNotFound(identifier string) *PromptError {
	return &PromptError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("prompt not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates an error for a missing import file.
func NewFileNotFound(path string) *PromptError {
	return &PromptError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewPermissionDenied creates an error for an attempted mutation of a built-in prompt.
func NewPermissionDenied(identifier, action string) *PromptError {
	return &PromptError{
		Code:    ErrPermissionDenied,
		Message: fmt.Sprintf("built-in prompt %s cannot be %s", identifier, action),
		Details: map[string]any{"identifier": identifier, "action": action},
	}
}

// NewStorageFailure wraps an error from the storage engine.
func NewStorageFailure(op string, err error) *PromptError {
	msg := op
	if err != nil {
		msg = fmt.Sprintf("%s: %v", op, err)
	}
	return &PromptError{
		Code:    ErrStorageFailure,
		Message: msg,
		Details: map[string]any{"op": op},
		Err:     err,
	}
}

// NewCancelled creates an error for an operation that was cancelled or superseded.
func NewCancelled(op string) *PromptError {
	return &PromptError{
		Code:    ErrCancelled,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"op": op},
	}
}

// NewInternal creates an error for unexpected internal errors.
func NewInternal(err error) *PromptError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &PromptError{
		Code:    ErrInternal,
		Message: msg,
		Err:     err,
	}
}

// Is checks if err (or anything it wraps) is a PromptError with the given code.
func Is(err error, code ErrorCode) bool {
	var pErr *PromptError
	if stderrors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first PromptError in err's chain, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var pErr *PromptError
	if stderrors.As(err, &pErr) {
		return pErr.Code
	}
	return ErrInternal
}
