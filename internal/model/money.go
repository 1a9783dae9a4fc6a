package model

import "github.com/shopspring/decimal"

// Money is a decimal amount with two fraction digits.  It scans from and
// writes to DECIMAL(10,2) columns through the embedded decimal.Decimal and
// always renders as a quoted string with exactly two fraction digits
// ("12.50"), the shape clients of the catalog already expect.
type Money struct {
    decimal.Decimal
}

// NewMoney wraps d.
func NewMoney(d decimal.Decimal) Money { return Money{Decimal: d} }

// MustMoney parses s and panics on malformed input.  Intended for
// constants and tests.
func MustMoney(s string) Money { return Money{Decimal: decimal.RequireFromString(s)} }

// MarshalJSON renders the amount with two fraction digits.
func (m Money) MarshalJSON() ([]byte, error) {
    return []byte(`"` + m.StringFixed(2) + `"`), nil
}
