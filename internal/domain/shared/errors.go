package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError carrying the same code.
// This lets errors.Is(err, ErrNotFound) match errors created with WithMessage.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the error with a more specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message, Err: e.Err}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps the original cause for logging
func WrapDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes shared between the domain and the HTTP layer
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeConflict           = "CONFLICT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidState       = "INVALID_STATE"
	CodeGateway            = "GATEWAY_ERROR"
	CodeInvalidSignature   = "INVALID_SIGNATURE"
	CodeMinOrderNotMet     = "MIN_ORDER_NOT_MET"
	CodeInsufficientPoints = "INSUFFICIENT_POINTS"
	CodeInternal           = "INTERNAL_ERROR"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConflict            = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrGateway             = NewDomainError(CodeGateway, "Payment provider request failed")
	ErrInvalidSignature    = NewDomainError(CodeInvalidSignature, "Webhook signature verification failed")
	ErrInsufficientPoints  = NewDomainError(CodeInsufficientPoints, "Insufficient points available")
	ErrInvalidCredentials  = NewDomainError(CodeUnauthorized, "Invalid email or password")
	ErrSessionNotFound     = NewDomainError(CodeUnauthorized, "Session expired or not found")
	ErrValidationFailed    = NewDomainError(CodeValidation, "Validation failed")
	ErrMinOrderNotMet      = NewDomainError(CodeMinOrderNotMet, "Order subtotal is below the minimum for points redemption")
	ErrDuplicateSettlement = NewDomainError(CodeConflict, "Order has already been settled")
)
