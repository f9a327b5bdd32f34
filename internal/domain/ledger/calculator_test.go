package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDiscount(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		typ      AdjustmentType
		value    string
		want     string
		wantCode string
	}{
		{"percentage", "900", AdjustmentTypePercentage, "10", "90", ""},
		{"percentage rounds half up", "333.33", AdjustmentTypePercentage, "15", "50", ""},
		{"percentage of 100 equals base", "900", AdjustmentTypePercentage, "100", "900", ""},
		{"percentage zero is not an error", "900", AdjustmentTypePercentage, "0", "0", ""},
		{"fixed", "900", AdjustmentTypeFixed, "125.555", "125.56", ""},
		{"fixed equal to base", "900", AdjustmentTypeFixed, "900", "900", ""},
		{"negative value", "900", AdjustmentTypeFixed, "-1", "", CodeInvalidValue},
		{"unknown type", "900", AdjustmentType("RATIO"), "1", "", CodeInvalidValue},
		{"percentage above 100", "900", AdjustmentTypePercentage, "150", "", CodePercentageOutOfRange},
		{"fixed above base", "900", AdjustmentTypeFixed, "900.01", "", CodeExceedsBase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateDiscount(dec(tt.base), tt.typ, dec(tt.value))
			if tt.wantCode != "" {
				require.Error(t, err)
				de, ok := asDomainError(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantCode, de.Code)
				return
			}
			require.NoError(t, err)
			assertAmount(t, tt.want, got.Amount)
		})
	}
}

func TestCalculateDiscount_NeverExceedsBase(t *testing.T) {
	bases := []string{"0", "0.01", "1", "99.99", "900", "12345.67"}
	values := []string{"0", "0.5", "1", "33.333", "50", "99.99", "100"}

	for _, b := range bases {
		for _, v := range values {
			got, err := CalculateDiscount(dec(b), AdjustmentTypePercentage, dec(v))
			require.NoError(t, err, "base %s value %s", b, v)
			assert.False(t, got.Amount.GreaterThan(dec(b)), "base %s value %s", b, v)
			assert.False(t, got.Amount.IsNegative(), "base %s value %s", b, v)
		}
	}

	for _, b := range bases {
		for _, v := range values {
			got, err := CalculateDiscount(dec(b), AdjustmentTypeFixed, dec(v))
			if err != nil {
				assert.True(t, errors.Is(err, ErrExceedsBase), "base %s value %s", b, v)
				continue
			}
			assert.False(t, got.Amount.GreaterThan(dec(b)), "base %s value %s", b, v)
		}
	}
}

func TestCalculatePenaltyWaiver(t *testing.T) {
	t.Run("fixed returns remaining", func(t *testing.T) {
		got, err := CalculatePenaltyWaiver(dec("100"), AdjustmentTypeFixed, dec("50"))
		require.NoError(t, err)
		assertAmount(t, "50", got.Amount)
		assertAmount(t, "50", got.Remaining)
	})

	t.Run("percentage of penalty pool", func(t *testing.T) {
		got, err := CalculatePenaltyWaiver(dec("120.50"), AdjustmentTypePercentage, dec("25"))
		require.NoError(t, err)
		assertAmount(t, "30.13", got.Amount)
		assertAmount(t, "90.37", got.Remaining)
	})

	t.Run("full waiver leaves nothing", func(t *testing.T) {
		got, err := CalculatePenaltyWaiver(dec("80"), AdjustmentTypePercentage, dec("100"))
		require.NoError(t, err)
		assertAmount(t, "80", got.Amount)
		assertAmount(t, "0", got.Remaining)
	})

	t.Run("exceeds penalty pool", func(t *testing.T) {
		_, err := CalculatePenaltyWaiver(dec("80"), AdjustmentTypeFixed, dec("81"))
		assert.ErrorIs(t, err, ErrExceedsBase)
	})

	t.Run("percentage out of range", func(t *testing.T) {
		_, err := CalculatePenaltyWaiver(dec("80"), AdjustmentTypePercentage, dec("100.01"))
		assert.ErrorIs(t, err, ErrPercentageOutOfRange)
	})
}
