package schema

import "github.com/shopspring/decimal"

// OrderState is the locally derived lifecycle state of an order.
type OrderState uint16

const (
	OrderStateUnknown OrderState = iota
	OrderStateCreated
	OrderStateOpen
	OrderStatePlaced
	OrderStateFinished
	OrderStateExpiredLocal
)

func (s OrderState) String() string {
	switch s {
	case OrderStateCreated:
		return "CREATED"
	case OrderStateOpen:
		return "OPEN"
	case OrderStatePlaced:
		return "PLACED"
	case OrderStateFinished:
		return "FINISHED"
	case OrderStateExpiredLocal:
		return "EXPIRED_LOCAL"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the state absorbs all further transitions.
func (s OrderState) Terminal() bool {
	return s == OrderStateFinished || s == OrderStateExpiredLocal
}

// StakeEntry is a per-bookie stake amount inside an order bucket.
type StakeEntry struct {
	Bookie string
	Amount decimal.Decimal
}

// Order mirrors the upstream order plus the locally derived state.
// RawStatus is whatever upstream last reported; State is ours.
type Order struct {
	ID          string
	EventID     string
	BetslipID   string
	RawStatus   string
	State       OrderState
	Closed      bool
	CloseReason string

	Bookie string
	Price  decimal.Decimal
	Stake  decimal.Decimal

	CreatedTs   int64 // unix ms
	ExpiresTs   int64 // unix ms, zero when upstream gave none
	DurationSec int64

	Success    []StakeEntry
	InProgress []StakeEntry
	Danger     []StakeEntry
	Unplaced   []StakeEntry

	FirstSeenTs  int64
	LastUpdateTs int64
}

// BetBar holds the four aggregated stake totals of an order.
type BetBar struct {
	Success    decimal.Decimal
	InProgress decimal.Decimal
	Danger     decimal.Decimal
	Unplaced   decimal.Decimal
}

// Total sums all four buckets.
func (b BetBar) Total() decimal.Decimal {
	return b.Success.Add(b.InProgress).Add(b.Danger).Add(b.Unplaced)
}
