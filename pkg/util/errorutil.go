package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

// NewCSRFError signals a missing or invalid anti-forgery token.
func NewCSRFError(message string) error {
	return NewDomainError("CSRF_FAILED", message, http.StatusForbidden, nil)
}

// NewAuthorizationError carries a discriminated authorization code
// (NOT_MEMBER, INSUFFICIENT_ROLE, OWNER_ONLY, OWNER_REQUIRED_FOR_ROLE,
// OWNER_ASSIGNMENT_FORBIDDEN, LIMIT_EXCEEDED).
func NewAuthorizationError(code, message string) error {
	return NewDomainError(code, message, http.StatusForbidden, nil)
}

// NewRateLimited signals an exceeded rate limit with retry metadata.
func NewRateLimited(limit, remaining int, resetAt int64, retryAfterSeconds int) error {
	return NewDomainError("RATE_LIMITED", "too many requests", http.StatusTooManyRequests, map[string]any{
		"limit":       limit,
		"remaining":   remaining,
		"reset":       resetAt,
		"retry_after": retryAfterSeconds,
	})
}

// NewConfigError signals missing or invalid runtime configuration.
func NewConfigError(message string, err error) error {
	return &DomainError{
		Code:       "CONFIG_ERROR",
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// CodeOf extracts the domain error code, or INTERNAL_ERROR for generic errors.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Code
}
