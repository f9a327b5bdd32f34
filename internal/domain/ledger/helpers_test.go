package ledger

import (
	"testing"

	"github.com/mtax/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func asDomainError(err error) (*shared.DomainError, bool) {
	return shared.AsDomainError(err)
}

func int64Ptr(v int64) *int64 {
	return &v
}

// newTestDemand builds a single-module demand with nothing paid
func newTestDemand(serviceType ServiceType, total, penalty, interest string) *Demand {
	d := &Demand{
		DemandNumber:   "DMD-2026-0001",
		ServiceType:    serviceType,
		FinancialYear:  "2026-27",
		TotalAmount:    dec(total),
		PenaltyAmount:  dec(penalty),
		InterestAmount: dec(interest),
		PaidAmount:     decimal.Zero,
		BalanceAmount:  dec(total),
		Status:         DemandStatusPending,
	}
	d.ID = 1
	d.Version = 1
	return d
}

// newUnifiedDemand builds a unified demand with one PROPERTY and one WATER item
func newUnifiedDemand(propertyTotal, waterTotal string) *Demand {
	pt, wt := dec(propertyTotal), dec(waterTotal)
	d := newTestDemand(ServiceTypeHouseTax, pt.Add(wt).String(), "0", "0")
	d.Remarks = "UNIFIED demand for property and water"
	d.PropertyID = int64Ptr(42)
	d.Items = []DemandItem{
		{ID: 11, DemandID: d.ID, TaxType: TaxTypeWater, TotalAmount: wt},
		{ID: 10, DemandID: d.ID, TaxType: TaxTypeProperty, TotalAmount: pt},
	}
	return d
}
