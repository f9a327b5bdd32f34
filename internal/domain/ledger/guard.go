package ledger

import (
	"github.com/mtax/backend/internal/domain/shared"
	"github.com/mtax/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// GuardResult is the verdict of the overpayment guard
type GuardResult struct {
	IsValid   bool
	Error     *shared.DomainError
	ErrorCode string
	// Warning is set on valid payments that settle the demand in full
	Warning string
	Details map[string]any
}

// Err returns the rejection as an error, or nil for valid payments
func (r GuardResult) Err() error {
	if r.IsValid || r.Error == nil {
		return nil
	}
	return r.Error
}

// GuardPayment is the pre-check every payment entry path runs before
// constructing a payment record. It rejects non-positive amounts and amounts
// above the balance, and warns when the payment settles the demand.
func GuardPayment(amount, balance decimal.Decimal, label string) GuardResult {
	amount = valueobject.Round2(amount)
	balance = valueobject.Round2(balance)
	if label == "" {
		label = "demand"
	}

	if !amount.IsPositive() {
		err := ErrInvalidAmount.Withf("Payment amount must be greater than zero, got %s", valueobject.Format(amount))
		return GuardResult{Error: err, ErrorCode: CodeInvalidAmount}
	}

	if amount.GreaterThan(balance) {
		err := overpayment(label, amount, balance)
		return GuardResult{Error: err, ErrorCode: CodeOverpayment, Details: err.Details}
	}

	res := GuardResult{IsValid: true}
	if amount.Sub(balance).Abs().LessThan(valueobject.Tolerance) {
		res.Warning = "This payment will fully settle " + label
	}
	return res
}
