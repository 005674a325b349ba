package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an AppError for transport-level mapping.
type ErrorCode string

const (
	CodeValidation    ErrorCode = "VALIDATION"
	CodeInvalidRange  ErrorCode = "INVALID_RANGE"
	CodeInvalidState  ErrorCode = "INVALID_STATE"
	CodeTerminalState ErrorCode = "TERMINAL_STATE"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeForbidden     ErrorCode = "FORBIDDEN"
	CodeConflict      ErrorCode = "CONFLICT"
	CodeUnavailable   ErrorCode = "UNAVAILABLE"
	CodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	CodeInternal      ErrorCode = "INTERNAL"
)

// AppError is the domain error type shared by all layers. Handlers map the
// Code to an HTTP status; everything below the handlers only sees AppError.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// CodeOf returns the ErrorCode of err, or CodeInternal for non-AppErrors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// NewValidationError creates an error for invalid input data.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewInvalidRangeError creates an error for an invalid booking date range.
func NewInvalidRangeError(message string) *AppError {
	return &AppError{Code: CodeInvalidRange, Message: message}
}

// NewInvalidStateError creates an error for an illegal lifecycle transition.
func NewInvalidStateError(from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("illegal transition from %s to %s", from, to),
	}
}

// NewIllegalTransitionError creates an error for a (state, trigger, actor)
// combination the lifecycle table does not allow.
func NewIllegalTransitionError(message string) *AppError {
	return &AppError{Code: CodeInvalidState, Message: message}
}

// NewTerminalStateError creates an error for a mutation attempted on a
// booking that has already reached a terminal status.
func NewTerminalStateError(status string) *AppError {
	return &AppError{
		Code:    CodeTerminalState,
		Message: fmt.Sprintf("booking is in terminal status %s", status),
	}
}

// NewNotFoundError creates an error for a missing resource.
func NewNotFoundError(resource, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %s not found", resource, id),
	}
}

// NewForbiddenError creates an error for an actor who is not permitted to act.
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

// NewConflictError creates an error for a uniqueness or concurrency conflict.
func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// NewUnavailableError creates an error for a referenced resource that cannot
// be resolved (deleted or unauthorized).
func NewUnavailableError(message string) *AppError {
	return &AppError{Code: CodeUnavailable, Message: message}
}

// NewUnauthorizedError creates an error for a missing or invalid credential.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}
