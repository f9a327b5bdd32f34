package ledger

import (
	"fmt"

	"github.com/mtax/backend/internal/domain/shared"
	"github.com/mtax/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Error codes surfaced to callers. Calculator codes keep their historical
// CamelCase spelling because clients already match on them.
const (
	CodeInvalidValue          = "InvalidValue"
	CodePercentageOutOfRange  = "PercentageOutOfRange"
	CodeExceedsBase           = "ExceedsBase"
	CodeZeroOrNegativeAmount  = "ZeroOrNegativeAmount"
	CodeInvalidAmount         = "INVALID_AMOUNT"
	CodeOverpayment           = "OVERPAYMENT"
	CodeValidation            = "VALIDATION_ERROR"
	CodeDemandNotFound        = "DEMAND_NOT_FOUND"
	CodeModuleMismatch        = "MODULE_MISMATCH"
	CodeEntityMismatch        = "ENTITY_MISMATCH"
	CodeDemandSettled         = "DEMAND_SETTLED"
	CodeNoPenalty             = "NO_PENALTY"
	CodeAdjustmentActive      = "ADJUSTMENT_ALREADY_ACTIVE"
	CodeAdjustmentExceeds     = "ADJUSTMENT_EXCEEDS_BALANCE"
	CodeAdjustmentNotFound    = "ADJUSTMENT_NOT_FOUND"
	CodeAdjustmentNotActive   = "ADJUSTMENT_NOT_ACTIVE"
	CodePaymentNotFound       = "PAYMENT_NOT_FOUND"
	CodeAssessmentNotFound    = "ASSESSMENT_NOT_FOUND"
	CodeInvalidSignature      = "INVALID_SIGNATURE"
	CodeDuplicateGatewayEvent = "DUPLICATE_GATEWAY_EVENT"
)

// Sentinel errors for errors.Is checks. Concrete errors returned by the
// ledger carry the same code with an amount-specific message.
var (
	ErrInvalidValue          = shared.NewValidationError(CodeInvalidValue, "Adjustment value must be a number >= 0")
	ErrPercentageOutOfRange  = shared.NewValidationError(CodePercentageOutOfRange, "Percentage must be between 0 and 100")
	ErrExceedsBase           = shared.NewValidationError(CodeExceedsBase, "Adjustment amount exceeds its base")
	ErrZeroOrNegativeAmount  = shared.NewValidationError(CodeZeroOrNegativeAmount, "Adjustment amount must be greater than zero")
	ErrInvalidAmount         = shared.NewValidationError(CodeInvalidAmount, "Payment amount must be greater than zero")
	ErrOverpayment           = shared.NewConflictError(CodeOverpayment, "Payment amount exceeds the outstanding balance")
	ErrDemandNotFound        = shared.NewNotFoundError(CodeDemandNotFound, "Demand not found")
	ErrModuleMismatch        = shared.NewConflictError(CodeModuleMismatch, "Demand does not belong to the requested module")
	ErrEntityMismatch        = shared.NewConflictError(CodeEntityMismatch, "Demand does not belong to the requested entity")
	ErrDemandSettled         = shared.NewConflictError(CodeDemandSettled, "Demand is already fully settled")
	ErrNoPenalty             = shared.NewConflictError(CodeNoPenalty, "Demand has no penalty or interest to waive")
	ErrAdjustmentActive      = shared.NewConflictError(CodeAdjustmentActive, "An active adjustment of this kind already exists; revoke it first")
	ErrAdjustmentExceeds     = shared.NewConflictError(CodeAdjustmentExceeds, "Adjustment would reduce the payable amount below what is already paid")
	ErrAdjustmentNotFound    = shared.NewNotFoundError(CodeAdjustmentNotFound, "Adjustment not found")
	ErrAdjustmentNotActive   = shared.NewConflictError(CodeAdjustmentNotActive, "Adjustment is not active")
	ErrPaymentNotFound       = shared.NewNotFoundError(CodePaymentNotFound, "Payment not found")
	ErrAssessmentNotFound    = shared.NewNotFoundError(CodeAssessmentNotFound, "Assessment linked to the demand was not found")
	ErrInvalidSignature      = shared.NewValidationError(CodeInvalidSignature, "Gateway signature verification failed")
	ErrDuplicateGatewayEvent = shared.NewConflictError(CodeDuplicateGatewayEvent, "Gateway event was already processed")
)

// NewValidationError reports a malformed or missing input field
func NewValidationError(field, message string) *shared.DomainError {
	return shared.NewValidationError(CodeValidation, message).
		WithDetails(map[string]any{"field": field})
}

func overpayment(label string, amount, balance decimal.Decimal) *shared.DomainError {
	excess := valueobject.Round2(amount.Sub(balance))
	return ErrOverpayment.
		Withf("Payment of %s exceeds the outstanding balance of %s on %s by %s",
			valueobject.Format(amount), valueobject.Format(balance), label, valueobject.Format(excess)).
		WithDetails(map[string]any{
			"attempted_amount": valueobject.Format(amount),
			"balance_amount":   valueobject.Format(balance),
			"excess_amount":    valueobject.Format(excess),
		})
}

func exceedsBase(kind string, amount, base decimal.Decimal) error {
	return ErrExceedsBase.
		Withf("%s amount %s exceeds base amount %s", kind, valueobject.Format(amount), valueobject.Format(base)).
		WithDetails(map[string]any{
			"amount": valueobject.Format(amount),
			"base":   valueobject.Format(base),
		})
}

func percentageOutOfRange(value decimal.Decimal) error {
	return ErrPercentageOutOfRange.
		Withf("Percentage must be between 0 and 100, got %s", value.String()).
		WithDetails(map[string]any{"value": value.String()})
}

// IntegrityWarning describes a reconciliation mismatch found after a
// distribution. It is logged and audited, never returned from a mutation.
type IntegrityWarning struct {
	DemandID int64
	Issues   []string
}

// Error implements the error interface so the warning can be logged as one
func (w *IntegrityWarning) Error() string {
	return fmt.Sprintf("demand %d failed integrity validation: %v", w.DemandID, w.Issues)
}
