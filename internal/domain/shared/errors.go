package shared

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes used across the pharmacy core
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidRate       = "INVALID_RATE"
	CodeExpiredDate       = "EXPIRED_DATE"
	CodeCompliance        = "COMPLIANCE_ERROR"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodePaymentMismatch   = "PAYMENT_MISMATCH"
	CodeOverReturn        = "OVER_RETURN"
	CodeNotPending        = "NOT_PENDING"
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeAlreadyExists     = "ALREADY_EXISTS"
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

// Is matches any DomainError carrying the same code, so detailed errors
// still satisfy errors.Is against the package sentinels.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrValidation        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInvalidRate       = NewDomainError(CodeInvalidRate, "GST rate must be one of 0, 5, 12, 18, 28")
	ErrExpiredDate       = NewDomainError(CodeExpiredDate, "Expiry must be a future year-month")
	ErrCompliance        = NewDomainError(CodeCompliance, "Schedule compliance requirements not met")
	ErrInsufficientStock = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrPaymentMismatch   = NewDomainError(CodePaymentMismatch, "Payment total does not match bill total")
	ErrOverReturn        = NewDomainError(CodeOverReturn, "Return quantity exceeds sold quantity")
	ErrNotPending        = NewDomainError(CodeNotPending, "Operation not allowed in current state")
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrForbidden         = NewDomainError(CodeForbidden, "Not permitted for this role")
	ErrAlreadyExists     = NewDomainError(CodeAlreadyExists, "Resource already exists")
)

// NewValidationError creates a validation error with a specific message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError creates a not found error naming the missing entity
func NewNotFoundError(entity string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %v not found", entity, id))
}

// NewNotPendingError creates a state transition error
func NewNotPendingError(entity string, status any) *DomainError {
	return NewDomainError(CodeNotPending, fmt.Sprintf("%s is %v, expected pending", entity, status))
}

// NewInsufficientStockError reports a failed availability check
func NewInsufficientStockError(batchNo string, available, requested int64) *DomainError {
	return NewDomainError(CodeInsufficientStock,
		fmt.Sprintf("Insufficient stock in batch %s: available %d, requested %d", batchNo, available, requested))
}

// ComplianceError lists every missing prescription requirement of a scheduled sale
type ComplianceError struct {
	DomainError
	Missing []string `json:"missing"`
}

// NewComplianceError creates a compliance error from the missing requirements
func NewComplianceError(missing []string) *ComplianceError {
	return &ComplianceError{
		DomainError: DomainError{
			Code:    CodeCompliance,
			Message: "Schedule compliance failed: " + strings.Join(missing, "; "),
		},
		Missing: missing,
	}
}

// Unwrap exposes the embedded DomainError to errors.Is / errors.As
func (e *ComplianceError) Unwrap() error {
	return &e.DomainError
}
