// Package core wires the stores together behind the router sink. The
// registry is the single mutation entry point: the bus consumer applies
// frames through it, the run loop drives its sweep and flush, and every
// read goes through the query engine it exposes.
package core

import (
	"encoding/json"
	"errors"
	"time"

	"main/internal/adapter"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/query"
	"main/internal/store/balance"
	"main/internal/store/bets"
	"main/internal/store/events"
	"main/internal/store/offers"
	"main/internal/store/orders"
	"main/internal/store/pmm"
	"main/internal/watch"
)

// Registry owns every store.
type Registry struct {
	cfg ops.Loaded
	met *obs.Metrics
	now func() int64

	events   *events.Store
	offers   *offers.Store
	orders   *orders.Store
	bets     *bets.Store
	betslips *pmm.Store
	balance  *balance.Store

	watch *watch.Manager
}

// New builds a registry from resolved configuration.
func New(cfg ops.Loaded, met *obs.Metrics) *Registry {
	return &Registry{
		cfg:    cfg,
		met:    met,
		now:    func() int64 { return time.Now().UnixMilli() },
		events: events.NewStore(),
		offers: offers.NewStore(),
		orders: orders.NewStore(),
		bets:   bets.NewStore(),
		betslips: pmm.NewStore(pmm.Options{
			RequiredStake:    cfg.RequiredStake,
			RequiredCurrency: cfg.RequiredCurrency,
			QuoteTTL:         cfg.QuoteTTL,
			QuoteFreshness:   cfg.QuoteFreshness,
			BookiePriority:   cfg.BookiePriority,
		}),
		balance: balance.NewStore(),
	}
}

// AttachWatch hooks the subscription manager into event updates.
func (r *Registry) AttachWatch(m *watch.Manager) {
	r.watch = m
}

// Events exposes the event store for collaborators that scan it.
func (r *Registry) Events() *events.Store {
	return r.events
}

// Engine returns the read-only query surface over the stores.
func (r *Registry) Engine() *query.Engine {
	return &query.Engine{
		Events:   r.events,
		Offers:   r.offers,
		Orders:   r.orders,
		Bets:     r.bets,
		Betslips: r.betslips,
		Balance:  r.balance,
	}
}

// ApplyEvent normalizes and stores one event frame.
func (r *Registry) ApplyEvent(sportPeriod, eventKey string, payload json.RawMessage) error {
	ev, err := adapter.NormalizeEvent(sportPeriod, eventKey, payload)
	if err != nil {
		return err
	}
	now := r.now()
	stored := r.events.Upsert(ev, now)
	if r.watch != nil {
		r.watch.OnEvent(stored, now)
	}
	return nil
}

// ApplyFlatOffers stores one offers_hcap / offers_odds frame.
func (r *Registry) ApplyFlatOffers(competitionID, sport, eventKey string, payload json.RawMessage) error {
	markets, err := adapter.ParseFlatOffers(payload)
	if err != nil {
		return err
	}
	r.offers.UpsertFlat(eventKey, competitionID, sport, markets, r.now())
	return nil
}

// ApplyDeepOffers stores one offers_event frame.
func (r *Registry) ApplyDeepOffers(_, _, eventKey string, payload json.RawMessage) error {
	book, err := adapter.ParseDeepOffers(payload)
	if err != nil {
		return err
	}
	r.offers.UpsertDeep(eventKey, book, r.now())
	return nil
}

// ApplyOrder normalizes and upserts one order record.
func (r *Registry) ApplyOrder(payload json.RawMessage) error {
	o, err := adapter.NormalizeOrder(payload)
	if err != nil {
		return err
	}
	_, err = r.orders.Upsert(o, r.now())
	return err
}

// ApplyBet upserts one bet and re-aggregates the owning order. A bet
// arriving before its order is stored and picked up when the order
// lands.
func (r *Registry) ApplyBet(payload json.RawMessage) error {
	bet, err := adapter.NormalizeBet(payload)
	if err != nil {
		return err
	}
	now := r.now()
	r.bets.Upsert(bet, now)
	if bet.OrderID == "" {
		return nil
	}
	if _, err := r.orders.ApplyBets(bet.OrderID, r.bets, now); err != nil && !errors.Is(err, orders.ErrUnknownOrder) {
		return err
	}
	return nil
}

// ApplyBalance replaces the balance snapshot.
func (r *Registry) ApplyBalance(payload json.RawMessage, ts int64) error {
	snap, err := adapter.NormalizeBalance(payload, ts, r.cfg.RequiredCurrency)
	if err != nil {
		return err
	}
	r.balance.Update(snap)
	return nil
}

// ApplyQuote applies one pmm record. Stale quotes are counted, not
// errors.
func (r *Registry) ApplyQuote(payload json.RawMessage, ts float64) error {
	u, err := adapter.NormalizeQuote(payload, ts, r.cfg.RequiredCurrency, r.now())
	if err != nil {
		return err
	}
	if !r.betslips.Apply(u, r.now()) {
		r.met.IncStaleQuote()
	}
	return nil
}

// Sweep runs both expiry queues.
func (r *Registry) Sweep() {
	now := r.now()
	r.met.AddOrdersExpired(r.orders.Sweep(now))
	r.met.AddBetslipsDropped(r.betslips.Sweep(now))
}

// Flush recomputes every dirty betslip.
func (r *Registry) Flush() {
	r.met.AddRecomputes(r.betslips.FlushDirty(r.now()))
}
