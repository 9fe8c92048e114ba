package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Sprout error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrEntryTooLarge  ErrorCode = "ENTRY_TOO_LARGE" // 413
	ErrFileTooLarge   ErrorCode = "FILE_TOO_LARGE"  // 413
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// SproutError represents a structured error with code, status, and details.
type SproutError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SproutError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SproutError {
	return &SproutError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing journal entry.
func NewNotFound(id string) *SproutError {
	return &SproutError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("entry not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *SproutError {
	return &SproutError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error when a journal changed underneath a write.
func NewConflict(user string, expected, actual int64) *SproutError {
	return &SproutError{
		Code:    ErrConflict,
		Status:  409,
		Message: fmt.Sprintf("journal for %q was modified concurrently (expected version %d, found %d)", user, expected, actual),
		Details: map[string]any{"user": user, "expected_version": expected, "actual_version": actual},
	}
}

// NewEntryTooLarge creates a 413 error when an answer exceeds the size limit.
func NewEntryTooLarge(field string, max, actual int) *SproutError {
	return &SproutError{
		Code:    ErrEntryTooLarge,
		Status:  413,
		Message: fmt.Sprintf("%s exceeds maximum size: %d chars (max %d)", field, actual, max),
		Details: map[string]any{"field": field, "max_chars": max, "actual_chars": actual},
	}
}

// NewFileTooLarge creates a 413 error when an import file exceeds the size limit.
func NewFileTooLarge(max, actual int64) *SproutError {
	return &SproutError{
		Code:    ErrFileTooLarge,
		Status:  413,
		Message: fmt.Sprintf("import file exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewCancelled creates a 499 error when an operation's context is done.
func NewCancelled(op string) *SproutError {
	return &SproutError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SproutError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SproutError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if err (or anything it wraps) is a SproutError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SproutError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// As returns the SproutError in err's chain, wrapping unknown errors as INTERNAL.
func As(err error) *SproutError {
	var sErr *SproutError
	if stderrors.As(err, &sErr) {
		return sErr
	}
	return NewInternal(err)
}
