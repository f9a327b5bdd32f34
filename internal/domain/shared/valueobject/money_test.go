package valueobject

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already two places", "10.25", "10.25"},
		{"half rounds up", "10.125", "10.13"},
		{"below half rounds down", "10.124", "10.12"},
		{"integer", "7", "7"},
		{"negative half rounds toward positive", "-0.005", "0"},
		{"negative below half", "-1.006", "-1.01"},
		{"classic float drift sum", "0.30000000000000004", "0.3"},
		{"long tail", "99.9999", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Round2(decimal.RequireFromString(tt.input))
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestRound2_Idempotent(t *testing.T) {
	inputs := []float64{0, 0.1 + 0.2, 1.005, 2.675, 123456.789, -45.555, 1e-9, 810.004999}
	for _, x := range inputs {
		once := Round2Float(x)
		twice := Round2(once)
		assert.True(t, once.Equal(twice), "round2 not idempotent for %v", x)
	}
}

func TestRound2Float(t *testing.T) {
	t.Run("NaN yields zero", func(t *testing.T) {
		assert.True(t, Round2Float(math.NaN()).IsZero())
	})

	t.Run("infinity yields zero", func(t *testing.T) {
		assert.True(t, Round2Float(math.Inf(1)).IsZero())
		assert.True(t, Round2Float(math.Inf(-1)).IsZero())
	})

	t.Run("float sum drift is removed", func(t *testing.T) {
		assert.Equal(t, "0.3", Round2Float(0.1+0.2).String())
	})
}

func TestParseAmount(t *testing.T) {
	t.Run("valid amount is rounded", func(t *testing.T) {
		d, err := ParseAmount(" 150.456 ")
		require.NoError(t, err)
		assert.Equal(t, "150.46", d.String())
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ParseAmount("   ")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("non numeric input", func(t *testing.T) {
		_, err := ParseAmount("ten")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestPercentAndSum(t *testing.T) {
	assert.Equal(t, "90", Percent(decimal.NewFromInt(900), decimal.NewFromInt(10)).String())
	assert.Equal(t, "33.33", Percent(decimal.NewFromInt(100), decimal.RequireFromString("33.333")).String())
	assert.Equal(t, "0.3", Sum(decimal.NewFromFloat(0.1), decimal.NewFromFloat(0.2)).String())
}

func TestWithinTolerance(t *testing.T) {
	a := decimal.RequireFromString("100.00")
	assert.True(t, WithinTolerance(a, decimal.RequireFromString("100.01")))
	assert.True(t, WithinTolerance(a, decimal.RequireFromString("99.99")))
	assert.False(t, WithinTolerance(a, decimal.RequireFromString("100.02")))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "810.00", Format(decimal.NewFromInt(810)))
	assert.Equal(t, "0.10", Format(decimal.NewFromFloat(0.1)))
}
