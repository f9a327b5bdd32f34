package ledger

import (
	"fmt"

	"github.com/mtax/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Reconciliation is the item-level view of a demand, computed from scratch.
// Distribution, integrity checking and the summary all read it.
type Reconciliation struct {
	ItemTotal   decimal.Decimal
	ItemPaid    decimal.Decimal
	ItemBalance decimal.Decimal

	PropertyTotal decimal.Decimal
	PropertyPaid  decimal.Decimal
	WaterTotal    decimal.Decimal
	WaterPaid     decimal.Decimal

	// AdjustmentReduction is how much active adjustments took off the
	// pre-adjustment total. Items are never adjusted, so their balances
	// exceed the demand balance by exactly this amount.
	AdjustmentReduction decimal.Decimal
	// ExpectedBalance is the demand balance implied by the items
	ExpectedBalance decimal.Decimal
}

// Reconcile sums a demand's items
func Reconcile(d *Demand) Reconciliation {
	var r Reconciliation
	for _, it := range d.Items {
		total := valueobject.Round2(it.TotalAmount)
		paid := valueobject.Round2(it.PaidAmount)
		r.ItemTotal = r.ItemTotal.Add(total)
		r.ItemPaid = r.ItemPaid.Add(paid)
		switch it.TaxType {
		case TaxTypeProperty:
			r.PropertyTotal = r.PropertyTotal.Add(total)
			r.PropertyPaid = r.PropertyPaid.Add(paid)
		case TaxTypeWater:
			r.WaterTotal = r.WaterTotal.Add(total)
			r.WaterPaid = r.WaterPaid.Add(paid)
		}
	}
	r.ItemTotal = valueobject.Round2(r.ItemTotal)
	r.ItemPaid = valueobject.Round2(r.ItemPaid)
	r.ItemBalance = valueobject.Round2(r.ItemTotal.Sub(r.ItemPaid))

	if d.FinalAmount != nil {
		r.AdjustmentReduction = valueobject.Round2(valueobject.Round2(d.TotalAmount).Sub(d.EffectivePayable()))
		r.ExpectedBalance = valueobject.Round2(d.EffectivePayable().Sub(r.ItemPaid))
	} else {
		r.ExpectedBalance = r.ItemBalance
	}
	return r
}

// IntegrityReport is the outcome of an integrity check
type IntegrityReport struct {
	DemandID int64    `json:"demand_id"`
	IsValid  bool     `json:"is_valid"`
	Issues   []string `json:"issues"`
}

// Warning converts an invalid report into an IntegrityWarning; nil when valid
func (r *IntegrityReport) Warning() *IntegrityWarning {
	if r.IsValid {
		return nil
	}
	return &IntegrityWarning{DemandID: r.DemandID, Issues: r.Issues}
}

var negativeTolerance = valueobject.Tolerance.Neg()

// CheckIntegrity recomputes the demand's totals from its items and reports
// every mismatch beyond the tolerance. It never modifies the demand.
func CheckIntegrity(d *Demand) *IntegrityReport {
	report := &IntegrityReport{DemandID: d.ID, Issues: []string{}}
	total := valueobject.Round2(d.TotalAmount)
	paid := valueobject.Round2(d.PaidAmount)
	balance := valueobject.Round2(d.BalanceAmount)

	if d.HasItems() {
		r := Reconcile(d)
		if !valueobject.WithinTolerance(r.ItemTotal, total) {
			report.Issues = append(report.Issues, fmt.Sprintf(
				"item total %s does not match demand total %s", valueobject.Format(r.ItemTotal), valueobject.Format(total)))
		}
		if !valueobject.WithinTolerance(r.ItemPaid, paid) {
			report.Issues = append(report.Issues, fmt.Sprintf(
				"item paid %s does not match demand paid %s", valueobject.Format(r.ItemPaid), valueobject.Format(paid)))
		}
		itemBalance := valueobject.Round2(r.ItemBalance.Sub(r.AdjustmentReduction))
		if !valueobject.WithinTolerance(itemBalance, balance) {
			report.Issues = append(report.Issues, fmt.Sprintf(
				"item balance %s does not match demand balance %s", valueobject.Format(itemBalance), valueobject.Format(balance)))
		}
	} else {
		if balance.LessThan(negativeTolerance) {
			report.Issues = append(report.Issues, fmt.Sprintf(
				"demand balance %s is negative", valueobject.Format(balance)))
		}
		if paid.GreaterThan(total.Add(valueobject.Tolerance)) {
			report.Issues = append(report.Issues, fmt.Sprintf(
				"demand paid %s exceeds demand total %s", valueobject.Format(paid), valueobject.Format(total)))
		}
	}

	report.IsValid = len(report.Issues) == 0
	return report
}

// TaxTypeSummary aggregates the items of one tax type
type TaxTypeSummary struct {
	Total   decimal.Decimal `json:"total"`
	Paid    decimal.Decimal `json:"paid"`
	Balance decimal.Decimal `json:"balance"`
}

// SummaryItem is one item line of a DistributionSummary
type SummaryItem struct {
	ItemID  int64           `json:"item_id"`
	TaxType TaxType         `json:"tax_type"`
	Total   decimal.Decimal `json:"total"`
	Paid    decimal.Decimal `json:"paid"`
	Balance decimal.Decimal `json:"balance"`
	Status  ItemStatus      `json:"status"`
}

// DistributionSummary is a read-only breakdown of a demand for display
type DistributionSummary struct {
	DemandID         int64           `json:"demand_id"`
	DemandNumber     string          `json:"demand_number"`
	ServiceType      ServiceType     `json:"service_type"`
	Itemized         bool            `json:"itemized"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	EffectivePayable decimal.Decimal `json:"effective_payable"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	BalanceAmount    decimal.Decimal `json:"balance_amount"`
	Status           DemandStatus    `json:"status"`
	Items            []SummaryItem   `json:"items"`
	Property         TaxTypeSummary  `json:"property"`
	Water            TaxTypeSummary  `json:"water"`
}

// Summarize builds the display breakdown from the same reconciliation used
// by distribution.
func Summarize(d *Demand) *DistributionSummary {
	s := &DistributionSummary{
		DemandID:         d.ID,
		DemandNumber:     d.DemandNumber,
		ServiceType:      d.ServiceType,
		Itemized:         d.HasItems(),
		TotalAmount:      valueobject.Round2(d.TotalAmount),
		EffectivePayable: d.EffectivePayable(),
		PaidAmount:       valueobject.Round2(d.PaidAmount),
		BalanceAmount:    valueobject.Round2(d.BalanceAmount),
		Status:           d.Status,
		Items:            []SummaryItem{},
	}
	if !d.HasItems() {
		return s
	}

	ordered := make([]DemandItem, len(d.Items))
	copy(ordered, d.Items)
	SortItemsForAllocation(ordered)
	for _, it := range ordered {
		s.Items = append(s.Items, SummaryItem{
			ItemID:  it.ID,
			TaxType: it.TaxType,
			Total:   valueobject.Round2(it.TotalAmount),
			Paid:    valueobject.Round2(it.PaidAmount),
			Balance: it.Balance(),
			Status:  itemStanding(it),
		})
	}

	r := Reconcile(d)
	s.Property = TaxTypeSummary{
		Total:   valueobject.Round2(r.PropertyTotal),
		Paid:    valueobject.Round2(r.PropertyPaid),
		Balance: valueobject.Round2(r.PropertyTotal.Sub(r.PropertyPaid)),
	}
	s.Water = TaxTypeSummary{
		Total:   valueobject.Round2(r.WaterTotal),
		Paid:    valueobject.Round2(r.WaterPaid),
		Balance: valueobject.Round2(r.WaterTotal.Sub(r.WaterPaid)),
	}
	return s
}

// itemStanding classifies an item at rest, outside any distribution
func itemStanding(it DemandItem) ItemStatus {
	switch {
	case !it.Balance().IsPositive():
		return ItemStatusFullyPaid
	case valueobject.Round2(it.PaidAmount).IsPositive():
		return ItemStatusPartiallyPaid
	default:
		return ItemStatusPending
	}
}
