package domain

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers.
const (
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeInvalidSelection  = "INVALID_SELECTION"
	CodeIllegalState      = "ILLEGAL_STATE"
	CodePersistence       = "PERSISTENCE_FAILURE"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// CodeOf returns the code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given AppError code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// Standard domain error constructors.

func ErrInsufficientFunds(balance, stake int64) *AppError {
	return &AppError{
		Code:    CodeInsufficientFunds,
		Message: fmt.Sprintf("stake %d exceeds balance %d", stake, balance),
		Status:  400,
	}
}

func ErrInvalidSelection(msg string) *AppError {
	return &AppError{Code: CodeInvalidSelection, Message: msg, Status: 400}
}

func ErrIllegalState(msg string) *AppError {
	return &AppError{Code: CodeIllegalState, Message: msg, Status: 409}
}

func ErrPersistence(msg string, cause error) *AppError {
	return &AppError{Code: CodePersistence, Message: msg, Status: 503, Cause: cause}
}

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, Status: 409}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: CodeForbidden, Message: msg, Status: 403}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: CodeRateLimited, Message: msg, Status: 429}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: msg, Status: 500, Cause: cause}
}
