package dto

import (
	"net/http"

	"github.com/mtax/backend/internal/domain/ledger"
	"github.com/mtax/backend/internal/domain/shared"
)

// Transport error codes. Domain errors keep their own codes in responses
// (OVERPAYMENT, DEMAND_NOT_FOUND, ...); these cover failures that never
// reached the domain.
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeUnauthorized    = "ERR_UNAUTHORIZED"
	ErrCodeForbidden       = "ERR_FORBIDDEN"
	ErrCodeTokenExpired    = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "ERR_TOKEN_INVALID"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps transport error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for a transport error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Domain codes whose status does not follow their kind
var domainCodeStatus = map[string]int{
	shared.ErrConcurrencyConflict.Code: http.StatusConflict,
	shared.ErrAlreadyExists.Code:       http.StatusConflict,
	shared.ErrUnauthorized.Code:        http.StatusForbidden,
	ledger.CodeInvalidSignature:        http.StatusUnauthorized,
}

var kindStatus = map[shared.ErrorKind]int{
	shared.KindValidation: http.StatusBadRequest,
	shared.KindNotFound:   http.StatusNotFound,
	// Ledger rule violations are rejected requests, not resource conflicts
	shared.KindConflict: http.StatusBadRequest,
}

// DomainErrorStatus returns the HTTP status for a domain error
func DomainErrorStatus(err *shared.DomainError) int {
	if status, ok := domainCodeStatus[err.Code]; ok {
		return status
	}
	if status, ok := kindStatus[err.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
