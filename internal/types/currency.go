package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "idr"

// currencyPrecision holds the minor-unit precision used for posted amounts.
var currencyPrecision = map[string]int32{
	"idr": 2,
	"usd": 2,
	"eur": 2,
	"sgd": 2,
	"myr": 2,
	"jpy": 0,
	"krw": 0,
	"vnd": 0,
}

// RecognitionEpsilon is the one-cent tolerance below which a remaining or incremental amount is
// treated as zero.
var RecognitionEpsilon = decimal.New(1, -2)

var oneHundred = decimal.NewFromInt(100)

// StoredAmountScale is the number of decimals money columns keep.
const StoredAmountScale int32 = 4

// GetCurrencyPrecision returns the number of decimals for the currency, defaulting to 2.
func GetCurrencyPrecision(currency string) int32 {
	if p, ok := currencyPrecision[strings.ToLower(currency)]; ok {
		return p
	}
	return 2
}

// RoundToCurrencyPrecision rounds half away from zero to the currency's minor unit.
func RoundToCurrencyPrecision(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(GetCurrencyPrecision(currency))
}

// FitsCurrencyPrecision reports whether amount has no digits below the currency's minor unit.
func FitsCurrencyPrecision(amount decimal.Decimal, currency string) bool {
	return amount.Equal(RoundToCurrencyPrecision(amount, currency))
}

// FitsStoredScale reports whether amount survives a round trip through a money column.
func FitsStoredScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(StoredAmountScale))
}

// PercentOf returns amount * pct / 100 without rounding.
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(oneHundred)
}

// RatioPercent returns part/whole*100 rounded to 2 decimals; zero when whole is zero.
func RatioPercent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(oneHundred).Round(2)
}

// IsValidPercentage reports whether pct lies in [0,100].
func IsValidPercentage(pct decimal.Decimal) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(oneHundred)
}

// IsFullPercentage reports pct >= 100.
func IsFullPercentage(pct decimal.Decimal) bool {
	return pct.GreaterThanOrEqual(oneHundred)
}
