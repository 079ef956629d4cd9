package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCurrencyRounding_AllPrecisions(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		currency  string
		expected  string
		precision int32
	}{
		{name: "IDR_Standard", amount: "1000000.555", currency: "idr", expected: "1000000.56", precision: 2},
		{name: "IDR_UpperCase", amount: "10.275", currency: "IDR", expected: "10.28", precision: 2},
		{name: "USD_Standard", amount: "10.275", currency: "usd", expected: "10.28", precision: 2},
		{name: "SGD_Standard", amount: "100.556", currency: "sgd", expected: "100.56", precision: 2},
		{name: "JPY_NoDecimals", amount: "1000.5", currency: "jpy", expected: "1001", precision: 0},
		{name: "VND_NoDecimals", amount: "1000.5", currency: "vnd", expected: "1001", precision: 0},
		{name: "Unknown_DefaultsToTwo", amount: "3.333", currency: "xyz", expected: "3.33", precision: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tt.amount)
			expected := decimal.RequireFromString(tt.expected)

			rounded := RoundToCurrencyPrecision(amount, tt.currency)

			assert.True(t, rounded.Equal(expected), "expected %s, got %s", expected, rounded)
			assert.Equal(t, tt.precision, GetCurrencyPrecision(tt.currency))
		})
	}
}

func TestCurrencyRounding_NegativeHalfAwayFromZero(t *testing.T) {
	rounded := RoundToCurrencyPrecision(decimal.RequireFromString("-10.275"), "idr")
	assert.True(t, rounded.Equal(decimal.RequireFromString("-10.28")), "got %s", rounded)
}

func TestPercentHelpers(t *testing.T) {
	planned := decimal.NewFromInt(1_000_000)

	assert.True(t, PercentOf(planned, decimal.NewFromInt(30)).Equal(decimal.NewFromInt(300_000)))
	assert.True(t, PercentOf(planned, decimal.RequireFromString("33.33")).Equal(decimal.NewFromInt(333_300)))

	assert.True(t, RatioPercent(decimal.NewFromInt(4_000_000), decimal.NewFromInt(10_000_000)).Equal(decimal.NewFromInt(40)))
	assert.True(t, RatioPercent(decimal.NewFromInt(1), decimal.Zero).IsZero())

	assert.True(t, IsValidPercentage(decimal.Zero))
	assert.True(t, IsValidPercentage(decimal.NewFromInt(100)))
	assert.False(t, IsValidPercentage(decimal.RequireFromString("100.01")))
	assert.False(t, IsValidPercentage(decimal.RequireFromString("-0.01")))

	assert.True(t, IsFullPercentage(decimal.NewFromInt(100)))
	assert.False(t, IsFullPercentage(decimal.RequireFromString("99.99")))
}
