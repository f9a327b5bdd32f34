package ledger

import (
	"github.com/mtax/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var maxPercentage = decimal.NewFromInt(100)

// DiscountCalculation is the outcome of CalculateDiscount
type DiscountCalculation struct {
	Amount decimal.Decimal
}

// WaiverCalculation is the outcome of CalculatePenaltyWaiver
type WaiverCalculation struct {
	Amount    decimal.Decimal
	Remaining decimal.Decimal
}

// CalculateDiscount computes a discount against the tax principal
// (total minus penalty and interest). It never acts on the penalty pool.
func CalculateDiscount(originalAmount decimal.Decimal, typ AdjustmentType, value decimal.Decimal) (DiscountCalculation, error) {
	amount, err := calculateAdjustment("Discount", originalAmount, typ, value)
	if err != nil {
		return DiscountCalculation{}, err
	}
	return DiscountCalculation{Amount: amount}, nil
}

// CalculatePenaltyWaiver computes a waiver against the penalty pool and
// reports how much of the pool remains.
func CalculatePenaltyWaiver(penaltyAmount decimal.Decimal, typ AdjustmentType, value decimal.Decimal) (WaiverCalculation, error) {
	amount, err := calculateAdjustment("Waiver", penaltyAmount, typ, value)
	if err != nil {
		return WaiverCalculation{}, err
	}
	return WaiverCalculation{
		Amount:    amount,
		Remaining: valueobject.Round2(valueobject.Round2(penaltyAmount).Sub(amount)),
	}, nil
}

// calculateAdjustment holds the rules shared by both kinds. A zero result is
// not an error here; callers reject non-positive amounts before persisting.
func calculateAdjustment(label string, base decimal.Decimal, typ AdjustmentType, value decimal.Decimal) (decimal.Decimal, error) {
	if value.IsNegative() {
		return decimal.Zero, ErrInvalidValue.Withf("%s value must be >= 0, got %s", label, value.String())
	}

	base = valueobject.Round2(base)

	var amount decimal.Decimal
	switch typ {
	case AdjustmentTypePercentage:
		if value.GreaterThan(maxPercentage) {
			return decimal.Zero, percentageOutOfRange(value)
		}
		amount = valueobject.Percent(base, value)
	case AdjustmentTypeFixed:
		amount = valueobject.Round2(value)
	default:
		return decimal.Zero, ErrInvalidValue.Withf("Unknown adjustment type %q", string(typ))
	}

	if amount.GreaterThan(base) {
		return decimal.Zero, exceedsBase(label, amount, base)
	}
	return amount, nil
}
