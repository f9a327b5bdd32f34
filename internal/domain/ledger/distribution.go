package ledger

import (
	"sort"

	"github.com/mtax/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ItemStatus classifies what a distribution did to one item
type ItemStatus string

const (
	ItemStatusAlreadyPaid   ItemStatus = "already_paid"
	ItemStatusFullyPaid     ItemStatus = "fully_paid"
	ItemStatusPartiallyPaid ItemStatus = "partially_paid"
	ItemStatusPending       ItemStatus = "pending"
)

// ItemDistribution is the per-item entry of a distribution
type ItemDistribution struct {
	ItemID         int64           `json:"item_id"`
	TaxType        TaxType         `json:"tax_type"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PreviousPaid   decimal.Decimal `json:"previous_paid"`
	PaymentApplied decimal.Decimal `json:"payment_applied"`
	NewPaid        decimal.Decimal `json:"new_paid"`
	ItemBalance    decimal.Decimal `json:"item_balance"`
	Status         ItemStatus      `json:"status"`
}

// DistributionResult describes how one payment was allocated
type DistributionResult struct {
	DemandID            int64              `json:"demand_id"`
	PaymentAmount       decimal.Decimal    `json:"payment_amount"`
	DirectDemandPayment bool               `json:"direct_demand_payment"`
	Items               []ItemDistribution `json:"items,omitempty"`
	// PropertyTaxPaid and WaterTaxPaid are the parts of this payment applied
	// to PROPERTY and WATER items
	PropertyTaxPaid decimal.Decimal `json:"property_tax_paid"`
	WaterTaxPaid    decimal.Decimal `json:"water_tax_paid"`
	PreviousPaid    decimal.Decimal `json:"previous_paid"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	BalanceAmount   decimal.Decimal `json:"balance_amount"`
	Status          DemandStatus    `json:"status"`
}

// SortItemsForAllocation orders items PROPERTY before WATER, then by id
func SortItemsForAllocation(items []DemandItem) {
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := items[i].TaxType.allocationRank(), items[j].TaxType.allocationRank()
		if ri != rj {
			return ri < rj
		}
		return items[i].ID < items[j].ID
	})
}

// allocation is the accumulator threaded through the fold over items
type allocation struct {
	remaining    decimal.Decimal
	entries      []ItemDistribution
	items        []DemandItem
	changed      []DemandItem
	propertyPaid decimal.Decimal
	waterPaid    decimal.Decimal
}

// step folds one item into the accumulator
func (acc allocation) step(item DemandItem) allocation {
	previous := valueobject.Round2(item.PaidAmount)
	balance := item.Balance()
	entry := ItemDistribution{
		ItemID:         item.ID,
		TaxType:        item.TaxType,
		TotalAmount:    valueobject.Round2(item.TotalAmount),
		PreviousPaid:   previous,
		PaymentApplied: decimal.Zero,
		NewPaid:        previous,
		ItemBalance:    balance,
	}

	switch {
	case !balance.IsPositive():
		entry.Status = ItemStatusAlreadyPaid
	case !acc.remaining.IsPositive():
		entry.Status = ItemStatusPending
	default:
		applied := decimal.Min(acc.remaining, balance)
		item.PaidAmount = valueobject.Round2(previous.Add(applied))
		entry.PaymentApplied = applied
		entry.NewPaid = item.PaidAmount
		entry.ItemBalance = item.Balance()
		if entry.ItemBalance.IsPositive() {
			entry.Status = ItemStatusPartiallyPaid
		} else {
			entry.Status = ItemStatusFullyPaid
		}

		acc.remaining = valueobject.Round2(acc.remaining.Sub(applied))
		switch item.TaxType {
		case TaxTypeProperty:
			acc.propertyPaid = acc.propertyPaid.Add(applied)
		case TaxTypeWater:
			acc.waterPaid = acc.waterPaid.Add(applied)
		}
		acc.changed = append(acc.changed, item)
	}

	acc.entries = append(acc.entries, entry)
	acc.items = append(acc.items, item)
	return acc
}

// Distribute allocates a payment onto the demand. On success the demand and
// its items carry the new paid, balance and status values and the returned
// slice holds the items whose paid amount changed. On error nothing is
// modified.
//
// Demands without items take the payment directly. Itemized demands are paid
// greedily in allocation order so property tax clears before water tax.
func Distribute(d *Demand, amount decimal.Decimal) (*DistributionResult, []DemandItem, error) {
	amount = valueobject.Round2(amount)
	if !amount.IsPositive() {
		return nil, nil, ErrInvalidAmount.Withf("Payment amount must be greater than zero, got %s", valueobject.Format(amount))
	}
	if amount.GreaterThan(valueobject.Round2(d.BalanceAmount)) {
		return nil, nil, overpayment(d.Label(), amount, d.BalanceAmount)
	}

	result := &DistributionResult{
		DemandID:      d.ID,
		PaymentAmount: amount,
		PreviousPaid:  valueobject.Round2(d.PaidAmount),
	}

	if !d.HasItems() {
		d.setPaid(d.PaidAmount.Add(amount))
		result.DirectDemandPayment = true
		result.PaidAmount = d.PaidAmount
		result.BalanceAmount = d.BalanceAmount
		result.Status = d.Status
		return result, nil, nil
	}

	ordered := make([]DemandItem, len(d.Items))
	copy(ordered, d.Items)
	SortItemsForAllocation(ordered)

	acc := allocation{remaining: amount}
	for _, item := range ordered {
		acc = acc.step(item)
	}
	if acc.remaining.IsPositive() {
		// Item balances could not absorb a payment the demand balance allowed
		return nil, nil, overpayment(d.Label()+" items", amount, amount.Sub(acc.remaining))
	}

	d.Items = acc.items
	rec := Reconcile(d)
	d.PaidAmount = rec.ItemPaid
	d.BalanceAmount = rec.ExpectedBalance
	d.Status = DeriveStatus(d.PaidAmount, d.BalanceAmount)
	d.Touch()

	result.Items = acc.entries
	result.PropertyTaxPaid = valueobject.Round2(acc.propertyPaid)
	result.WaterTaxPaid = valueobject.Round2(acc.waterPaid)
	result.PaidAmount = d.PaidAmount
	result.BalanceAmount = d.BalanceAmount
	result.Status = d.Status
	return result, acc.changed, nil
}
