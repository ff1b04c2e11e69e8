package dto

import (
	"net/http"

	"github.com/ehr/pharmacy/internal/domain/shared"
)

// Transport-only error codes. Domain codes come from the shared package.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,

	// malformed or out-of-range input -> 400
	shared.CodeValidation:  http.StatusBadRequest,
	shared.CodeInvalidRate: http.StatusBadRequest,
	shared.CodeExpiredDate: http.StatusBadRequest,

	shared.CodeForbidden:     http.StatusForbidden,
	shared.CodeNotFound:      http.StatusNotFound,
	shared.CodeAlreadyExists: http.StatusConflict,

	// business rule violations -> 422
	shared.CodeCompliance:        http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock: http.StatusUnprocessableEntity,
	shared.CodePaymentMismatch:   http.StatusUnprocessableEntity,
	shared.CodeOverReturn:        http.StatusUnprocessableEntity,
	shared.CodeNotPending:        http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
