package schema

import "github.com/shopspring/decimal"

// Bet is a single placement attempt belonging to an order.
type Bet struct {
	ID        string
	OrderID   string
	EventID   string
	BetslipID string
	Bookie    string
	Status    string // normalized status code, lowercase upstream codes or "MATCHED"

	Price          decimal.Decimal // requested price
	Stake          decimal.Decimal
	MatchedPrice   decimal.Decimal
	MatchedStake   decimal.Decimal
	UnmatchedStake decimal.Decimal

	PlacedTs  int64 // unix ms
	MatchedTs int64 // unix ms

	FirstSeenTs  int64
	LastUpdateTs int64
}
