package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid username or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	ErrSubmissionNotDraft = New("SUBMISSION_NOT_DRAFT", http.StatusBadRequest, "cannot update submission that is not in draft status")
	ErrVivaNotApproved    = New("VIVA_NOT_APPROVED", http.StatusBadRequest, "viva team must be approved before scheduling")
	ErrRegistrationExists = New("REGISTRATION_EXISTS", http.StatusConflict, "registration already exists for this student")
	ErrTemplateVariable   = New("TEMPLATE_VARIABLE_MISSING", http.StatusBadRequest, "missing template variable")
	ErrUnknownTemplate    = New("UNKNOWN_TEMPLATE", http.StatusBadRequest, "unknown notification template")
)

// Forbidden builds a role-mismatch error whose message enumerates the
// caller's role, the accepted roles for the operation, and every role the
// system knows about. The verbosity is deliberate: support staff diagnose
// access issues from this string alone.
func Forbidden(callerRole string, accepted []string, systemRoles []string) *Error {
	msg := fmt.Sprintf("Not enough permissions. Your role: '%s'. Valid roles for this endpoint: %s. All available system roles: %s",
		callerRole, strings.Join(accepted, ", "), strings.Join(systemRoles, ", "))
	return New(ErrForbidden.Code, ErrForbidden.Status, msg)
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
