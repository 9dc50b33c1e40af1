package schema

import "github.com/shopspring/decimal"

// Money is an amount in a single currency.
type Money struct {
	Currency string
	Amount   decimal.Decimal
}

// IsZero reports whether the amount is unset or zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}
