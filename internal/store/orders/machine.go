package orders

import (
	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// transitions is the full lifecycle table. Terminal states map to an
// empty set and absorb everything.
var transitions = map[schema.OrderState][]schema.OrderState{
	schema.OrderStateCreated: {
		schema.OrderStateOpen,
		schema.OrderStatePlaced,
		schema.OrderStateFinished,
		schema.OrderStateExpiredLocal,
	},
	schema.OrderStateOpen: {
		schema.OrderStatePlaced,
		schema.OrderStateFinished,
		schema.OrderStateExpiredLocal,
	},
	schema.OrderStatePlaced: {
		schema.OrderStateFinished,
		schema.OrderStateExpiredLocal,
	},
	schema.OrderStateFinished:     {},
	schema.OrderStateExpiredLocal: {},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to schema.OrderState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Bar sums the four stake buckets of an order.
func Bar(o schema.Order) schema.BetBar {
	return schema.BetBar{
		Success:    sumEntries(o.Success),
		InProgress: sumEntries(o.InProgress),
		Danger:     sumEntries(o.Danger),
		Unplaced:   sumEntries(o.Unplaced),
	}
}

func sumEntries(entries []schema.StakeEntry) decimal.Decimal {
	var total decimal.Decimal
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// Done reports whether every placed stake has settled: some stake exists
// and nothing is in progress, in danger, or unplaced.
func Done(o schema.Order) bool {
	bar := Bar(o)
	return bar.Total().IsPositive() &&
		bar.InProgress.IsZero() &&
		bar.Danger.IsZero() &&
		bar.Unplaced.IsZero()
}

// NextState derives the state an order should be in from its bet bar.
// Terminal orders keep their state regardless of late updates.
func NextState(o schema.Order) schema.OrderState {
	if o.State.Terminal() {
		return o.State
	}
	if Done(o) {
		return schema.OrderStateFinished
	}
	bar := Bar(o)
	switch {
	case bar.Unplaced.IsPositive():
		return schema.OrderStateOpen
	case bar.InProgress.IsPositive() || bar.Danger.IsPositive():
		return schema.OrderStatePlaced
	case bar.Success.IsPositive():
		return schema.OrderStateFinished
	default:
		return o.State
	}
}
