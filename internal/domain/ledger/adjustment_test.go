package ledger

import (
	"testing"

	"github.com/mtax/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec() AdjustmentSpec {
	return AdjustmentSpec{
		Kind:        AdjustmentKindDiscount,
		ModuleType:  ModuleTypeProperty,
		EntityID:    42,
		DemandID:    1,
		Type:        AdjustmentTypePercentage,
		Value:       dec("10"),
		Amount:      dec("90"),
		Reason:      "  Senior citizen concession  ",
		DocumentURL: "https://docs.example.test/approval.pdf",
		ApprovedBy:  "officer-7",
	}
}

func TestNewAdjustment(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		a, err := NewAdjustment(validSpec())
		require.NoError(t, err)
		assert.Equal(t, AdjustmentStatusActive, a.Status)
		assert.Equal(t, "Senior citizen concession", a.Reason)
		assert.True(t, a.IsActive())
	})

	tests := []struct {
		name   string
		mutate func(*AdjustmentSpec)
		field  string
	}{
		{"blank reason", func(s *AdjustmentSpec) { s.Reason = "   " }, "reason"},
		{"missing document", func(s *AdjustmentSpec) { s.DocumentURL = "" }, "document_url"},
		{"bad type", func(s *AdjustmentSpec) { s.Type = "RATIO" }, "type"},
		{"unknown module", func(s *AdjustmentSpec) { s.ModuleType = "PARKING" }, "module_type"},
		{"unified waiver", func(s *AdjustmentSpec) {
			s.Kind = AdjustmentKindPenaltyWaiver
			s.ModuleType = ModuleTypeUnified
		}, "module_type"},
		{"missing demand", func(s *AdjustmentSpec) { s.DemandID = 0 }, "demand_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(&spec)

			_, err := NewAdjustment(spec)
			require.Error(t, err)
			de, ok := asDomainError(err)
			require.True(t, ok)
			assert.Equal(t, shared.KindValidation, de.Kind)
			assert.Equal(t, tt.field, de.Details["field"])
		})
	}

	t.Run("zero amount", func(t *testing.T) {
		spec := validSpec()
		spec.Amount = dec("0")
		_, err := NewAdjustment(spec)
		assert.ErrorIs(t, err, ErrZeroOrNegativeAmount)
	})
}

func TestAdjustment_Revoke(t *testing.T) {
	a, err := NewAdjustment(validSpec())
	require.NoError(t, err)

	assert.Error(t, a.Revoke("officer-9", " "))
	assert.True(t, a.IsActive())

	require.NoError(t, a.Revoke("officer-9", "Approval withdrawn"))
	assert.Equal(t, AdjustmentStatusRevoked, a.Status)
	assert.Equal(t, "officer-9", a.RevokedBy)
	require.NotNil(t, a.RevokedAt)

	assert.ErrorIs(t, a.Revoke("officer-9", "again"), ErrAdjustmentNotActive)
}

func TestDemand_CheckAdjustable(t *testing.T) {
	t.Run("settled demand rejects discount", func(t *testing.T) {
		d := newTestDemand(ServiceTypeHouseTax, "1000", "100", "0")
		d.PaidAmount = dec("1000")
		d.BalanceAmount = dec("0")
		assert.ErrorIs(t, d.CheckAdjustable(AdjustmentKindDiscount), ErrDemandSettled)
		assert.ErrorIs(t, d.CheckAdjustable(AdjustmentKindPenaltyWaiver), ErrDemandSettled)
	})

	t.Run("waiver needs a penalty pool", func(t *testing.T) {
		d := newTestDemand(ServiceTypeHouseTax, "1000", "0", "0")
		assert.ErrorIs(t, d.CheckAdjustable(AdjustmentKindPenaltyWaiver), ErrNoPenalty)
		assert.NoError(t, d.CheckAdjustable(AdjustmentKindDiscount))
	})

	t.Run("interest alone is waivable", func(t *testing.T) {
		d := newTestDemand(ServiceTypeHouseTax, "1000", "0", "12.50")
		assert.NoError(t, d.CheckAdjustable(AdjustmentKindPenaltyWaiver))
	})
}

func TestDemand_AdjustmentAmount(t *testing.T) {
	d := newTestDemand(ServiceTypeHouseTax, "1000", "80", "20")

	amount, err := d.AdjustmentAmount(AdjustmentKindDiscount, AdjustmentTypePercentage, dec("10"))
	require.NoError(t, err)
	assertAmount(t, "90", amount)

	amount, err = d.AdjustmentAmount(AdjustmentKindPenaltyWaiver, AdjustmentTypePercentage, dec("10"))
	require.NoError(t, err)
	assertAmount(t, "10", amount)

	_, err = d.AdjustmentAmount(AdjustmentKindDiscount, AdjustmentTypePercentage, dec("0"))
	assert.ErrorIs(t, err, ErrZeroOrNegativeAmount)

	// 150% is out of range, not capped
	_, err = d.AdjustmentAmount(AdjustmentKindDiscount, AdjustmentTypePercentage, dec("150"))
	assert.ErrorIs(t, err, ErrPercentageOutOfRange)

	_, err = d.AdjustmentAmount(AdjustmentKindPenaltyWaiver, AdjustmentTypeFixed, dec("100.01"))
	assert.ErrorIs(t, err, ErrExceedsBase)
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, DemandStatusPending, DeriveStatus(dec("0"), dec("100")))
	assert.Equal(t, DemandStatusPartiallyPaid, DeriveStatus(dec("1"), dec("99")))
	assert.Equal(t, DemandStatusPaid, DeriveStatus(dec("100"), dec("0")))
	assert.Equal(t, DemandStatusPaid, DeriveStatus(dec("100"), dec("-0.001")))
}

func TestDemand_IsUnified(t *testing.T) {
	d := newTestDemand(ServiceTypeHouseTax, "100", "0", "0")
	assert.False(t, d.IsUnified())
	d.Remarks = "generated as unified bill"
	assert.True(t, d.IsUnified())
}
