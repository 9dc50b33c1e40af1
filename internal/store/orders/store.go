// Package orders stores upstream orders, derives their local lifecycle
// state from aggregated bet stakes, and expires them on a local deadline
// when upstream never closes them.
package orders

import (
	"errors"
	"sync"

	"github.com/yanun0323/logs"

	"main/internal/expiry"
	"main/internal/index"
	"main/internal/schema"
)

var (
	ErrMissingID      = errors.New("order id is required")
	ErrMissingEventID = errors.New("order event id is required")
	ErrUnknownOrder   = errors.New("unknown order")
	ErrOrderClosed    = errors.New("order already closed")
	ErrOrderTerminal  = errors.New("order in terminal state")
)

// BetSource yields the full bet set of an order. The bet store satisfies it.
type BetSource interface {
	BetsForOrder(orderID string) []schema.Bet
}

// Store is the order table plus its state machine and expiry schedule.
type Store struct {
	mu   sync.Mutex
	byID map[string]*schema.Order

	byState  *index.Index
	byEvent  *index.Index
	byBookie *index.Index
	exp      *expiry.Queue

	invalidTransitions uint64
}

// NewStore allocates an empty order store.
func NewStore() *Store {
	return &Store{
		byID:     make(map[string]*schema.Order),
		byState:  index.New(),
		byEvent:  index.New(),
		byBookie: index.New(),
		exp:      expiry.New(),
	}
}

// Upsert merges the normalized order into the store. New orders start in
// CREATED unless the update already implies a later state. A changed
// expiry deadline reschedules the local expiry sweep; once upstream
// reports the order closed it stays closed and the local sweep leaves it
// alone.
func (s *Store) Upsert(in schema.Order, now int64) (schema.Order, error) {
	if in.ID == "" {
		return schema.Order{}, ErrMissingID
	}
	if in.EventID == "" {
		return schema.Order{}, ErrMissingEventID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[in.ID]
	if !ok {
		o := in
		o.State = schema.OrderStateCreated
		o.FirstSeenTs = now
		o.LastUpdateTs = now
		s.byID[o.ID] = &o
		s.addIndexes(&o)
		if o.ExpiresTs > 0 {
			s.exp.Push(o.ID, o.ExpiresTs)
		}
		s.applyState(&o, NextState(o))
		return o, nil
	}

	s.removeIndexes(existing)

	state := existing.State
	// closed is sticky once upstream reports it
	closed := existing.Closed || in.Closed
	closeReason := existing.CloseReason
	if in.Closed && in.CloseReason != "" {
		closeReason = in.CloseReason
	}
	first := existing.FirstSeenTs
	prevExpires := existing.ExpiresTs

	*existing = in
	existing.State = state
	existing.Closed = closed
	existing.CloseReason = closeReason
	existing.FirstSeenTs = first
	existing.LastUpdateTs = now
	if existing.ExpiresTs == 0 {
		// an update without a deadline keeps the scheduled one
		existing.ExpiresTs = prevExpires
	}

	s.addIndexes(existing)
	if existing.ExpiresTs > 0 && existing.ExpiresTs != prevExpires {
		s.exp.Push(existing.ID, existing.ExpiresTs)
	}
	s.applyState(existing, NextState(*existing))
	return *existing, nil
}

// ApplyBets rebuilds the stake buckets of an order from its full bet set
// and re-derives the lifecycle state.
func (s *Store) ApplyBets(orderID string, source BetSource, now int64) (schema.Order, error) {
	betSet := source.BetsForOrder(orderID)

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[orderID]
	if !ok {
		return schema.Order{}, ErrUnknownOrder
	}

	o.Success, o.InProgress, o.Danger, o.Unplaced = aggregate(betSet)
	o.LastUpdateTs = now
	s.applyState(o, NextState(*o))
	return *o, nil
}

// MarkExpired force-moves an order into EXPIRED_LOCAL. Closed and
// terminal orders are left alone.
func (s *Store) MarkExpired(orderID, reason string, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markExpiredLocked(orderID, reason, now)
}

func (s *Store) markExpiredLocked(orderID, reason string, now int64) error {
	o, ok := s.byID[orderID]
	if !ok {
		return ErrUnknownOrder
	}
	if o.Closed {
		return ErrOrderClosed
	}
	if o.State.Terminal() {
		return ErrOrderTerminal
	}
	s.applyState(o, schema.OrderStateExpiredLocal)
	o.Closed = true
	o.CloseReason = reason
	o.LastUpdateTs = now
	return nil
}

// Sweep expires every order whose deadline has passed and returns how
// many were moved to EXPIRED_LOCAL.
func (s *Store) Sweep(now int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	s.exp.Sweep(now, func(id string, _ int64) {
		o, ok := s.byID[id]
		if !ok {
			return
		}
		// the deadline may have moved since this entry was scheduled
		if o.ExpiresTs == 0 || o.ExpiresTs >= now {
			return
		}
		if err := s.markExpiredLocked(id, "expired_local", now); err == nil {
			expired++
		}
	})
	return expired
}

// applyState moves the order through the transition table. Invalid
// transitions are counted and dropped, never forced.
func (s *Store) applyState(o *schema.Order, next schema.OrderState) {
	if next == o.State {
		return
	}
	if !CanTransition(o.State, next) {
		s.invalidTransitions++
		logs.Warnf("order %s: dropping invalid transition %s -> %s", o.ID, o.State, next)
		return
	}
	s.byState.Remove(o.State.String(), o.ID)
	o.State = next
	s.byState.Add(o.State.String(), o.ID)
}

func (s *Store) addIndexes(o *schema.Order) {
	s.byState.Add(o.State.String(), o.ID)
	s.byEvent.Add(o.EventID, o.ID)
	s.byBookie.Add(o.Bookie, o.ID)
}

func (s *Store) removeIndexes(o *schema.Order) {
	s.byState.Remove(o.State.String(), o.ID)
	s.byEvent.Remove(o.EventID, o.ID)
	s.byBookie.Remove(o.Bookie, o.ID)
}

// Get returns the order stored under id.
func (s *Store) Get(id string) (schema.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return schema.Order{}, false
	}
	return *o, true
}

// Len returns the number of stored orders.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Store) resolve(ids []string) []schema.Order {
	out := make([]schema.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := s.byID[id]; ok {
			out = append(out, *o)
		}
	}
	return out
}

// ByState returns orders currently in a lifecycle state.
func (s *Store) ByState(state schema.OrderState) []schema.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(s.byState.Get(state.String()))
}

// ByEvent returns orders on an event.
func (s *Store) ByEvent(eventID string) []schema.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(s.byEvent.Get(eventID))
}

// ByBookie returns orders routed through a bookie.
func (s *Store) ByBookie(bookie string) []schema.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(s.byBookie.Get(bookie))
}

// Stats summarizes order counts by state.
type Stats struct {
	Orders             int
	Open               int
	Placed             int
	Finished           int
	ExpiredLocal       int
	InvalidTransitions uint64
}

// Stats returns current counts.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Orders:             len(s.byID),
		Open:               s.byState.Count(schema.OrderStateOpen.String()),
		Placed:             s.byState.Count(schema.OrderStatePlaced.String()),
		Finished:           s.byState.Count(schema.OrderStateFinished.String()),
		ExpiredLocal:       s.byState.Count(schema.OrderStateExpiredLocal.String()),
		InvalidTransitions: s.invalidTransitions,
	}
}
