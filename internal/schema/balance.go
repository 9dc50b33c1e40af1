package schema

import "github.com/shopspring/decimal"

// Balance is the latest account balance snapshot. History is not kept.
type Balance struct {
	Currency     string
	Amount       decimal.Decimal
	OpenStake    decimal.Decimal
	SmartCredit  decimal.Decimal
	LastUpdateTs int64
}
