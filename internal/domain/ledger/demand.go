package ledger

import (
	"strings"
	"time"

	"github.com/mtax/backend/internal/domain/shared"
	"github.com/mtax/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ServiceType identifies the tax module a demand bills for
type ServiceType string

const (
	ServiceTypeHouseTax ServiceType = "HOUSE_TAX"
	ServiceTypeWaterTax ServiceType = "WATER_TAX"
	ServiceTypeShopTax  ServiceType = "SHOP_TAX"
	ServiceTypeD2DC     ServiceType = "D2DC"
)

// IsValid checks if the service type is valid
func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceTypeHouseTax, ServiceTypeWaterTax, ServiceTypeShopTax, ServiceTypeD2DC:
		return true
	}
	return false
}

// String returns the string representation of ServiceType
func (s ServiceType) String() string {
	return string(s)
}

// DemandStatus is derived from the paid and balance amounts, never set directly
type DemandStatus string

const (
	DemandStatusPending       DemandStatus = "pending"
	DemandStatusPartiallyPaid DemandStatus = "partially_paid"
	DemandStatusPaid          DemandStatus = "paid"
)

// String returns the string representation of DemandStatus
func (s DemandStatus) String() string {
	return string(s)
}

// UnifiedRemarksMarker is the token demand generation writes into Remarks
// when a demand aggregates property and water tax for one property.
const UnifiedRemarksMarker = "UNIFIED"

// Demand is one billing obligation for a tax module in one financial year.
// It is the serialization point for every ledger mutation: adjustments and
// payment distributions lock the demand row before reading its amounts.
type Demand struct {
	shared.BaseAggregateRoot
	DemandNumber   string
	ServiceType    ServiceType
	FinancialYear  string
	TotalAmount    decimal.Decimal
	BaseAmount     decimal.Decimal
	ArrearsAmount  decimal.Decimal
	PenaltyAmount  decimal.Decimal
	InterestAmount decimal.Decimal
	PenaltyWaived  decimal.Decimal
	// FinalAmount stays nil until an adjustment is applied. Once set it is
	// the authoritative payable figure.
	FinalAmount   *decimal.Decimal
	PaidAmount    decimal.Decimal
	BalanceAmount decimal.Decimal
	Status        DemandStatus
	DueDate       *time.Time
	Remarks       string

	PropertyID           *int64
	WaterTaxAssessmentID *int64
	ShopTaxAssessmentID  *int64

	Items []DemandItem
}

var _ shared.AggregateRoot = (*Demand)(nil)

// EffectivePayable returns FinalAmount when set, otherwise TotalAmount
func (d *Demand) EffectivePayable() decimal.Decimal {
	if d.FinalAmount != nil {
		return valueobject.Round2(*d.FinalAmount)
	}
	return valueobject.Round2(d.TotalAmount)
}

// OriginalAmount is the tax principal: total minus penalty and interest
func (d *Demand) OriginalAmount() decimal.Decimal {
	return valueobject.Round2(d.TotalAmount).
		Sub(valueobject.Round2(d.PenaltyAmount)).
		Sub(valueobject.Round2(d.InterestAmount))
}

// PenaltyPool is the sum of penalty and interest charges
func (d *Demand) PenaltyPool() decimal.Decimal {
	return valueobject.Round2(d.PenaltyAmount).Add(valueobject.Round2(d.InterestAmount))
}

// HasItems reports whether payments are distributed across line items
func (d *Demand) HasItems() bool {
	return len(d.Items) > 0
}

// IsUnified reports whether demand generation marked this demand as a
// unified property+water demand.
func (d *Demand) IsUnified() bool {
	return strings.Contains(strings.ToUpper(d.Remarks), UnifiedRemarksMarker)
}

// IsSettled reports whether nothing remains to be paid
func (d *Demand) IsSettled() bool {
	return !valueobject.Round2(d.BalanceAmount).IsPositive()
}

// Label returns a human-readable identifier for messages
func (d *Demand) Label() string {
	if d.DemandNumber != "" {
		return d.DemandNumber
	}
	return "demand"
}

// DeriveStatus computes the status from a paid and balance amount pair
func DeriveStatus(paid, balance decimal.Decimal) DemandStatus {
	switch {
	case !valueobject.Round2(balance).IsPositive():
		return DemandStatusPaid
	case valueobject.Round2(paid).IsPositive():
		return DemandStatusPartiallyPaid
	default:
		return DemandStatusPending
	}
}

// setPaid records a new paid amount against the effective payable,
// recomputing balance and status.
func (d *Demand) setPaid(paid decimal.Decimal) {
	d.PaidAmount = valueobject.Round2(paid)
	d.BalanceAmount = valueobject.Round2(d.EffectivePayable().Sub(d.PaidAmount))
	d.Status = DeriveStatus(d.PaidAmount, d.BalanceAmount)
	d.Touch()
}

// applyBreakdown stores the result of the final-amount formula and refreshes
// balance and status against the already-paid amount.
func (d *Demand) applyBreakdown(b FinalAmountBreakdown) {
	final := b.FinalAmount
	d.FinalAmount = &final
	d.PenaltyWaived = b.WaiverAmount
	d.setPaid(d.PaidAmount)
}

// clearAdjustments drops the final amount when no adjustment remains active
func (d *Demand) clearAdjustments() {
	d.FinalAmount = nil
	d.PenaltyWaived = decimal.Zero
	d.setPaid(d.PaidAmount)
}

// Snapshot captures the monetary state of the demand for audit diffs and
// API responses.
func (d *Demand) Snapshot() DemandSnapshot {
	s := DemandSnapshot{
		DemandID:       d.ID,
		DemandNumber:   d.DemandNumber,
		ServiceType:    d.ServiceType,
		TotalAmount:    d.TotalAmount,
		PenaltyAmount:  d.PenaltyAmount,
		InterestAmount: d.InterestAmount,
		PenaltyWaived:  d.PenaltyWaived,
		PaidAmount:     d.PaidAmount,
		BalanceAmount:  d.BalanceAmount,
		Status:         d.Status,
	}
	if d.FinalAmount != nil {
		f := *d.FinalAmount
		s.FinalAmount = &f
	}
	return s
}

// DemandSnapshot is an immutable copy of a demand's monetary fields
type DemandSnapshot struct {
	DemandID       int64            `json:"demand_id"`
	DemandNumber   string           `json:"demand_number"`
	ServiceType    ServiceType      `json:"service_type"`
	TotalAmount    decimal.Decimal  `json:"total_amount"`
	PenaltyAmount  decimal.Decimal  `json:"penalty_amount"`
	InterestAmount decimal.Decimal  `json:"interest_amount"`
	PenaltyWaived  decimal.Decimal  `json:"penalty_waived"`
	FinalAmount    *decimal.Decimal `json:"final_amount,omitempty"`
	PaidAmount     decimal.Decimal  `json:"paid_amount"`
	BalanceAmount  decimal.Decimal  `json:"balance_amount"`
	Status         DemandStatus     `json:"status"`
}

// TaxType identifies the component of a unified demand an item bills for
type TaxType string

const (
	TaxTypeProperty TaxType = "PROPERTY"
	TaxTypeWater    TaxType = "WATER"
)

// allocationRank orders items so property tax is paid down before water tax
func (t TaxType) allocationRank() int {
	switch t {
	case TaxTypeProperty:
		return 0
	case TaxTypeWater:
		return 1
	default:
		return 2
	}
}

// DemandItem is one tax-type component of a unified demand
type DemandItem struct {
	ID          int64
	DemandID    int64
	TaxType     TaxType
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal
	UpdatedAt   time.Time
}

// Balance returns what is still owed on the item
func (i DemandItem) Balance() decimal.Decimal {
	return valueobject.Round2(i.TotalAmount.Sub(i.PaidAmount))
}

// ApplyAdjustments recomputes the payable figure from the active adjustment
// amounts. It refuses results that would push the payable below what has
// already been paid, and leaves the demand untouched in that case.
func (d *Demand) ApplyAdjustments(amounts ActiveAmounts) (FinalAmountBreakdown, error) {
	b := amounts.Breakdown(d)
	paid := valueobject.Round2(d.PaidAmount)
	if b.FinalAmount.LessThan(paid) {
		return b, ErrAdjustmentExceeds.
			Withf("Final amount %s of %s would fall below the %s already paid",
				valueobject.Format(b.FinalAmount), d.Label(), valueobject.Format(paid)).
			WithDetails(map[string]any{
				"final_amount": valueobject.Format(b.FinalAmount),
				"paid_amount":  valueobject.Format(paid),
			})
	}
	if b.DiscountAmount.IsZero() && b.WaiverAmount.IsZero() {
		d.clearAdjustments()
	} else {
		d.applyBreakdown(b)
	}
	return b, nil
}

// CheckAdjustable verifies the demand can still take an adjustment of the kind
func (d *Demand) CheckAdjustable(kind AdjustmentKind) error {
	switch kind {
	case AdjustmentKindDiscount:
		if d.IsSettled() {
			return ErrDemandSettled.Withf("Demand %s is fully paid; no discount can be applied", d.Label())
		}
	case AdjustmentKindPenaltyWaiver:
		if !valueobject.Round2(d.PaidAmount).LessThan(valueobject.Round2(d.TotalAmount)) {
			return ErrDemandSettled.Withf("Demand %s is fully paid; no penalty can be waived", d.Label())
		}
		if !d.PenaltyPool().IsPositive() {
			return ErrNoPenalty.Withf("Demand %s has no penalty or interest to waive", d.Label())
		}
	default:
		return NewValidationError("kind", "Unknown adjustment kind")
	}
	return nil
}

// AdjustmentAmount runs the calculator for the kind against the right base:
// the principal for discounts and the penalty pool for waivers.
func (d *Demand) AdjustmentAmount(kind AdjustmentKind, typ AdjustmentType, value decimal.Decimal) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch kind {
	case AdjustmentKindDiscount:
		c, err := CalculateDiscount(d.OriginalAmount(), typ, value)
		if err != nil {
			return decimal.Zero, err
		}
		amount = c.Amount
	case AdjustmentKindPenaltyWaiver:
		c, err := CalculatePenaltyWaiver(d.PenaltyPool(), typ, value)
		if err != nil {
			return decimal.Zero, err
		}
		amount = c.Amount
	default:
		return decimal.Zero, NewValidationError("kind", "Unknown adjustment kind")
	}
	if !amount.IsPositive() {
		return decimal.Zero, ErrZeroOrNegativeAmount.Withf("%s amount must be greater than zero", kind.Label())
	}
	return amount, nil
}
