package handler

import "github.com/mtax/backend/internal/interfaces/http/dto"

// APIResponse is the typed envelope used in API documentation
//
//	@Description	Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is the envelope of a failed request. Ledger rejections carry
// their code (OVERPAYMENT, DEMAND_SETTLED, ...) and details verbatim.
//
//	@Description	Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}
