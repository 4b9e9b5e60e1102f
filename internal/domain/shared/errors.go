package shared

import "fmt"

// Error codes used across the document engine
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeStateConflict   = "STATE_CONFLICT"
	CodeNumberCollision = "NUMBER_COLLISION"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError carrying the same code,
// so that errors.Is(err, shared.ErrNotFound) matches any not-found error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports malformed or missing input.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewStateConflictError reports an operation refused by the current document state.
func NewStateConflictError(format string, args ...any) *DomainError {
	return NewDomainError(CodeStateConflict, fmt.Sprintf(format, args...))
}

// NewNumberCollisionError reports a document number that could not be allocated uniquely.
func NewNumberCollisionError(format string, args ...any) *DomainError {
	return NewDomainError(CodeNumberCollision, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(format string, args ...any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrValidation      = NewDomainError(CodeValidation, "Invalid input provided")
	ErrStateConflict   = NewDomainError(CodeStateConflict, "Operation not allowed in current state")
	ErrNumberCollision = NewDomainError(CodeNumberCollision, "Document number already in use")
	ErrNotFound        = NewDomainError(CodeNotFound, "Resource not found")
	ErrUnauthorized    = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden       = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
)
