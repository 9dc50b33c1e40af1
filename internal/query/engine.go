// Package query composes read-only views over the stores. Everything
// here is lock-free composition; the stores do their own locking.
package query

import (
	"github.com/shopspring/decimal"

	"main/internal/schema"
	"main/internal/store/balance"
	"main/internal/store/bets"
	"main/internal/store/events"
	"main/internal/store/offers"
	"main/internal/store/orders"
	"main/internal/store/pmm"
)

// Engine bundles every store behind one query surface.
type Engine struct {
	Events   *events.Store
	Offers   *offers.Store
	Orders   *orders.Store
	Bets     *bets.Store
	Betslips *pmm.Store
	Balance  *balance.Store
}

// OrderView is an order with its aggregated stake totals.
type OrderView struct {
	Order schema.Order
	Bar   schema.BetBar
	Done  bool
}

// Order returns one order with its bet bar.
func (e *Engine) Order(id string) (OrderView, bool) {
	o, ok := e.Orders.Get(id)
	if !ok {
		return OrderView{}, false
	}
	return OrderView{Order: o, Bar: orders.Bar(o), Done: orders.Done(o)}, true
}

// OrderWithBets joins an order with every bet placed under it.
type OrderWithBets struct {
	OrderView
	Bets []schema.Bet
}

// OrderWithBets returns the full placement picture of one order.
func (e *Engine) OrderWithBets(id string) (OrderWithBets, bool) {
	view, ok := e.Order(id)
	if !ok {
		return OrderWithBets{}, false
	}
	return OrderWithBets{OrderView: view, Bets: e.Bets.BetsForOrder(id)}, true
}

// SlippageSummary aggregates price slippage across an order's matched bets.
type SlippageSummary struct {
	Bets    int
	Matched int
	Total   decimal.Decimal
	Average decimal.Decimal
}

// OrderSlippage summarizes (matched-requested)/requested across the
// matched bets of an order.
func (e *Engine) OrderSlippage(id string) (SlippageSummary, bool) {
	if _, ok := e.Orders.Get(id); !ok {
		return SlippageSummary{}, false
	}
	betSet := e.Bets.BetsForOrder(id)

	sum := SlippageSummary{Bets: len(betSet)}
	for _, bet := range betSet {
		slip, ok := e.Bets.Slippage(bet.ID)
		if !ok {
			continue
		}
		sum.Matched++
		sum.Total = sum.Total.Add(slip)
	}
	if sum.Matched > 0 {
		sum.Average = sum.Total.Div(decimal.NewFromInt(int64(sum.Matched)))
	}
	return sum, true
}

// BetView is a bet with its derived slippage.
type BetView struct {
	Bet      schema.Bet
	Slippage decimal.Decimal
	Matched  bool
}

// Bet returns one bet with slippage attached.
func (e *Engine) Bet(id string) (BetView, bool) {
	bet, ok := e.Bets.Get(id)
	if !ok {
		return BetView{}, false
	}
	slip, matched := e.Bets.Slippage(id)
	return BetView{Bet: bet, Slippage: slip, Matched: matched}, true
}

// BestExecutable answers the market-level best executable price.
func (e *Engine) BestExecutable(eventID, betType string) (schema.PricePoint, string, bool) {
	return e.Betslips.MarketBestExecutable(eventID, betType)
}

// AllPrices lists the best price per bookie for a market, best first.
func (e *Engine) AllPrices(eventID, betType string) []schema.PricePoint {
	return e.Betslips.AllPrices(eventID, betType)
}

// LiquidityAtPrice sums the stake available at or above a price.
func (e *Engine) LiquidityAtPrice(eventID, betType string, target decimal.Decimal, now int64) (decimal.Decimal, []pmm.BookieLiquidity) {
	return e.Betslips.LiquidityAtPrice(eventID, betType, target, now)
}

// EventMarkets joins an event with its flat offer lines and betslips.
type EventMarkets struct {
	Event    schema.Event
	Offers   schema.EventOffers
	Betslips []schema.Betslip
}

// EventMarkets returns everything known about one event's markets.
func (e *Engine) EventMarkets(eventKey string) (EventMarkets, bool) {
	ev, ok := e.Events.Get(eventKey)
	if !ok {
		return EventMarkets{}, false
	}
	out := EventMarkets{Event: ev, Betslips: e.Betslips.ByEvent(eventKey)}
	if flat, ok := e.Offers.Flat(eventKey); ok {
		out.Offers = flat
	}
	return out, true
}

// Stats aggregates the per-store counters into one snapshot.
type Stats struct {
	Events     events.Stats
	Offers     offers.Stats
	Orders     orders.Stats
	Bets       bets.Stats
	Betslips   pmm.Stats
	HasBalance bool
}

// Stats returns the combined store statistics.
func (e *Engine) Stats() Stats {
	_, hasBalance := e.Balance.Get()
	return Stats{
		Events:     e.Events.Stats(),
		Offers:     e.Offers.Stats(),
		Orders:     e.Orders.Stats(),
		Bets:       e.Bets.Stats(),
		Betslips:   e.Betslips.Stats(),
		HasBalance: hasBalance,
	}
}
