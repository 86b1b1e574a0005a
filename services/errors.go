package services

import (
	"errors"
	"fmt"

	"github.com/upb/library-api/repositories"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is. Domain errors match by type and message so
// sentinels stay distinguishable within one type.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Message == "" {
		return e.Type == t.Type
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Wrap returns a copy of e carrying err as its cause. Use it on the package
// sentinels so callers never mutate shared values.
func (e *DomainError) Wrap(err error) *DomainError {
	return NewDomainError(e.Type, e.Message, err)
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrAuthorNotFound     = NewDomainError(ErrorTypeNotFound, "author not found", nil)
	ErrBookNotFound       = NewDomainError(ErrorTypeNotFound, "book not found", nil)
	ErrUserNotFound       = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrAuditTrailNotFound = NewDomainError(ErrorTypeNotFound, "audit trail not found", nil)

	// Validation Errors
	ErrInvalidInput  = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrUnknownAuthor = NewDomainError(ErrorTypeValidation, "author does not exist", nil)
	ErrInvalidRole   = NewDomainError(ErrorTypeValidation, "invalid role", nil)
	ErrInvalidEmail  = NewDomainError(ErrorTypeValidation, "invalid email format", nil)
	ErrWeakPassword  = NewDomainError(ErrorTypeValidation, "password does not meet requirements", nil)

	// Authentication Errors
	ErrUnauthorized       = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "invalid username or password", nil)

	// Permission Errors
	ErrForbidden        = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrCannotDeleteSelf = NewDomainError(ErrorTypeForbidden, "cannot delete your own account", nil)

	// Conflict Errors
	ErrDuplicateISBN     = NewDomainError(ErrorTypeConflict, "isbn already exists", nil)
	ErrDuplicateUsername = NewDomainError(ErrorTypeConflict, "username or email already exists", nil)
	ErrConcurrentUpdate  = NewDomainError(ErrorTypeConflict, "concurrent update detected", nil)

	// Internal Errors
	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// validationError builds a validation error for a single field
func validationError(field string, err error) error {
	return ErrInvalidInput.Wrap(err).WithDetail(field, err.Error())
}

// fromRepository translates repository sentinels into domain errors.
// conflict may be nil when the operation cannot conflict.
func fromRepository(err error, notFound, conflict *DomainError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound) && notFound != nil:
		return notFound.Wrap(err)
	case errors.Is(err, repositories.ErrConflict) && conflict != nil:
		return conflict.Wrap(err)
	case errors.Is(err, repositories.ErrConflict):
		return ErrConcurrentUpdate.Wrap(err)
	default:
		var domainErr *DomainError
		if errors.As(err, &domainErr) {
			return err
		}
		return ErrDatabaseError.Wrap(err)
	}
}
