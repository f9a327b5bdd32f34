package ledger

import (
	"github.com/mtax/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// FinalAmountInput supplies the adjustment amounts to combine.
// A nil WaiverAmount means "use what the demand already has waived".
type FinalAmountInput struct {
	DiscountAmount decimal.Decimal
	WaiverAmount   *decimal.Decimal
}

// FinalAmountBreakdown is every term of the final-amount formula
type FinalAmountBreakdown struct {
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	PenaltyAmount    decimal.Decimal `json:"penalty_amount"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	WaiverAmount     decimal.Decimal `json:"waiver_amount"`
	RemainingPenalty decimal.Decimal `json:"remaining_penalty"`
	FinalAmount      decimal.Decimal `json:"final_amount"`
}

// CalculateFinalAmount is the single formula for a demand's payable figure:
//
//	original  = total - penalty - interest
//	pool      = penalty + interest
//	remaining = pool - waiver
//	final     = original - discount + remaining
//
// Discount and waiver are independent terms, so applying one never erases the other.
func CalculateFinalAmount(d *Demand, in FinalAmountInput) FinalAmountBreakdown {
	waiver := d.PenaltyWaived
	if in.WaiverAmount != nil {
		waiver = *in.WaiverAmount
	}
	waiver = valueobject.Round2(waiver)
	discount := valueobject.Round2(in.DiscountAmount)

	original := d.OriginalAmount()
	pool := d.PenaltyPool()
	remaining := valueobject.Round2(pool.Sub(waiver))

	return FinalAmountBreakdown{
		OriginalAmount:   original,
		PenaltyAmount:    pool,
		DiscountAmount:   discount,
		WaiverAmount:     waiver,
		RemainingPenalty: remaining,
		FinalAmount:      valueobject.Round2(original.Sub(discount).Add(remaining)),
	}
}

// ActiveAmounts holds the amounts of a demand's currently active adjustments.
// A zero Waiver with no active waiver row keeps the waiver recorded on the
// demand; only an explicit With(AdjustmentKindPenaltyWaiver, 0) drops it.
type ActiveAmounts struct {
	Discount decimal.Decimal
	Waiver   decimal.Decimal

	waiverSet bool
}

// ActiveAmountsFrom sums the ACTIVE adjustments by kind
func ActiveAmountsFrom(adjustments []Adjustment) ActiveAmounts {
	var out ActiveAmounts
	for _, a := range adjustments {
		if !a.IsActive() {
			continue
		}
		switch a.Kind {
		case AdjustmentKindDiscount:
			out.Discount = out.Discount.Add(a.Amount)
		case AdjustmentKindPenaltyWaiver:
			out.Waiver = out.Waiver.Add(a.Amount)
			out.waiverSet = true
		}
	}
	return out
}

// With replaces the amount of one kind
func (a ActiveAmounts) With(kind AdjustmentKind, amount decimal.Decimal) ActiveAmounts {
	if kind == AdjustmentKindDiscount {
		a.Discount = amount
	} else {
		a.Waiver = amount
		a.waiverSet = true
	}
	return a
}

// Breakdown runs the final-amount formula. The waiver falls back to the
// demand's recorded PenaltyWaived when no waiver amount was given.
func (a ActiveAmounts) Breakdown(d *Demand) FinalAmountBreakdown {
	in := FinalAmountInput{DiscountAmount: a.Discount}
	if a.waiverSet || !a.Waiver.IsZero() {
		waiver := a.Waiver
		in.WaiverAmount = &waiver
	}
	return CalculateFinalAmount(d, in)
}
