// Package types provides the value types shared across Larder: money,
// measurement units and entity timestamps.
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount held as an arbitrary-precision decimal.
// Landed unit costs such as 1275/3 do not fit an integer minor unit, so
// amounts are never stored as floats or cents.
//
// Money carries no currency. A Larder instance works in a single
// currency, configured once and used only for display.
type Money struct {
	amount decimal.Decimal
}

// ZeroMoney is the zero amount.
var ZeroMoney = Money{}

// NewMoney wraps a decimal amount.
func NewMoney(d decimal.Decimal) Money { return Money{amount: d} }

// MoneyFromInt creates a Money value from a whole amount.
func MoneyFromInt(v int64) Money { return Money{amount: decimal.NewFromInt(v)} }

// MoneyFromFloat creates a Money value from a float. Use only for literals.
func MoneyFromFloat(v float64) Money { return Money{amount: decimal.NewFromFloat(v)} }

// ParseMoney parses a decimal string such as "1250.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return ZeroMoney, err
	}

	return Money{amount: d}, nil
}

// MustParseMoney is like ParseMoney but panics on error.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic("money: " + err.Error())
	}

	return m
}

// Arithmetic operations

// Add adds two Money values.
func (m Money) Add(other Money) Money { return Money{amount: m.amount.Add(other.amount)} }

// Sub subtracts another Money value.
func (m Money) Sub(other Money) Money { return Money{amount: m.amount.Sub(other.amount)} }

// Mul multiplies the amount by a quantity.
func (m Money) Mul(qty decimal.Decimal) Money { return Money{amount: m.amount.Mul(qty)} }

// MulInt multiplies the amount by a whole quantity.
func (m Money) MulInt(qty int64) Money { return m.Mul(decimal.NewFromInt(qty)) }

// Div divides the amount by a quantity. Panics on a zero divisor.
func (m Money) Div(qty decimal.Decimal) Money {
	if qty.IsZero() {
		panic("money: division by zero")
	}

	return Money{amount: m.amount.Div(qty)}
}

// DivInt divides the amount by a whole quantity. Panics on zero.
func (m Money) DivInt(qty int64) Money { return m.Div(decimal.NewFromInt(qty)) }

// Neg returns the negative of the amount.
func (m Money) Neg() Money { return Money{amount: m.amount.Neg()} }

// Abs returns the absolute value.
func (m Money) Abs() Money { return Money{amount: m.amount.Abs()} }

// Round rounds the amount to the given number of decimal places.
func (m Money) Round(places int32) Money { return Money{amount: m.amount.Round(places)} }

// Comparison methods

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// IsNegative reports whether the amount is less than zero.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Equal reports whether both amounts are numerically equal.
func (m Money) Equal(other Money) bool { return m.amount.Equal(other.amount) }

// Cmp compares two amounts and returns -1, 0 or +1.
func (m Money) Cmp(other Money) int { return m.amount.Cmp(other.amount) }

// Decimal returns the underlying decimal amount.
func (m Money) Decimal() decimal.Decimal { return m.amount }

// Float returns the amount as a float64 for metrics and display.
func (m Money) Float() float64 {
	f, _ := m.amount.Float64()
	return f
}

// Formatting methods

// String returns the plain decimal amount.
func (m Money) String() string { return m.amount.String() }

// Format returns a human-readable string in the given currency, rounded
// to the currency's conventional decimal places.
// Examples: "1 250 FCFA", "€12.50", "$0.42".
func (m Money) Format(currency string) string {
	cur := strings.ToLower(currency)
	places := currencyDecimals(cur)
	num := m.amount.StringFixed(places)

	if suffix, ok := currencySuffixes[cur]; ok {
		return num + " " + suffix
	}

	return currencySymbol(cur) + num
}

// MarshalJSON encodes the amount as a quoted decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return m.amount.MarshalJSON()
}

// UnmarshalJSON accepts a quoted decimal string or a bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	return m.amount.UnmarshalJSON(data)
}

// Helper functions

var currencySuffixes = map[string]string{
	"xof": "FCFA",
	"xaf": "FCFA",
}

// currencySymbol returns the prefix symbol for a currency code.
func currencySymbol(currency string) string {
	symbols := map[string]string{
		"usd": "$",
		"eur": "€",
		"gbp": "£",
		"jpy": "¥",
		"cad": "C$",
		"chf": "CHF ",
		"mad": "MAD ",
	}
	if sym, ok := symbols[currency]; ok {
		return sym
	}
	if currency == "" {
		return ""
	}

	return strings.ToUpper(currency) + " "
}

// currencyDecimals returns the number of decimal places for a currency.
func currencyDecimals(currency string) int32 {
	zeroDecimal := map[string]bool{
		"xof": true, // West African CFA franc
		"xaf": true, // Central African CFA franc
		"jpy": true,
		"krw": true,
		"vnd": true,
	}
	if zeroDecimal[currency] {
		return 0
	}

	return 2
}

// Sum adds any number of Money values.
func Sum(values ...Money) Money {
	total := ZeroMoney
	for _, v := range values {
		total = total.Add(v)
	}

	return total
}
