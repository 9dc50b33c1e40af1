// Package bets stores individual bet records keyed by bet id.
package bets

import (
	"sync"

	"github.com/shopspring/decimal"

	"main/internal/index"
	"main/internal/schema"
)

// Store is the bet table plus its secondary indexes.
type Store struct {
	mu   sync.RWMutex
	byID map[string]*schema.Bet

	byOrder  *index.Index
	byEvent  *index.Index
	byBookie *index.Index
	byStatus *index.Index
}

// NewStore allocates an empty bet store.
func NewStore() *Store {
	return &Store{
		byID:     make(map[string]*schema.Bet),
		byOrder:  index.New(),
		byEvent:  index.New(),
		byBookie: index.New(),
		byStatus: index.New(),
	}
}

// Upsert merges the normalized bet into the store. Re-applying the same
// update is harmless; index memberships are re-keyed when the status or
// any identity field changes.
func (s *Store) Upsert(in schema.Bet, now int64) schema.Bet {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[in.ID]
	if !ok {
		bet := in
		bet.FirstSeenTs = now
		bet.LastUpdateTs = now
		s.byID[bet.ID] = &bet
		s.addIndexes(&bet)
		return bet
	}

	s.removeIndexes(existing)

	first := existing.FirstSeenTs
	*existing = in
	existing.FirstSeenTs = first
	existing.LastUpdateTs = now

	s.addIndexes(existing)
	return *existing
}

func (s *Store) addIndexes(bet *schema.Bet) {
	s.byOrder.Add(bet.OrderID, bet.ID)
	s.byEvent.Add(bet.EventID, bet.ID)
	s.byBookie.Add(bet.Bookie, bet.ID)
	s.byStatus.Add(bet.Status, bet.ID)
}

func (s *Store) removeIndexes(bet *schema.Bet) {
	s.byOrder.Remove(bet.OrderID, bet.ID)
	s.byEvent.Remove(bet.EventID, bet.ID)
	s.byBookie.Remove(bet.Bookie, bet.ID)
	s.byStatus.Remove(bet.Status, bet.ID)
}

// Get returns the bet stored under id.
func (s *Store) Get(id string) (schema.Bet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bet, ok := s.byID[id]
	if !ok {
		return schema.Bet{}, false
	}
	return *bet, true
}

// Len returns the number of stored bets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Store) resolve(ids []string) []schema.Bet {
	out := make([]schema.Bet, 0, len(ids))
	for _, id := range ids {
		if bet, ok := s.byID[id]; ok {
			out = append(out, *bet)
		}
	}
	return out
}

// BetsForOrder returns every bet belonging to an order.
func (s *Store) BetsForOrder(orderID string) []schema.Bet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byOrder.Get(orderID))
}

// ByEvent returns every bet on an event.
func (s *Store) ByEvent(eventID string) []schema.Bet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byEvent.Get(eventID))
}

// ByBookie returns every bet routed through a bookie.
func (s *Store) ByBookie(bookie string) []schema.Bet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byBookie.Get(bookie))
}

// ByStatus returns every bet currently in a raw status.
func (s *Store) ByStatus(status string) []schema.Bet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byStatus.Get(status))
}

// Slippage returns (matched - requested) / requested for a matched bet.
// The second return is false when the bet is unknown or has no match.
func (s *Store) Slippage(id string) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bet, ok := s.byID[id]
	if !ok || bet.MatchedPrice.IsZero() || bet.Price.IsZero() {
		return decimal.Decimal{}, false
	}
	return bet.MatchedPrice.Sub(bet.Price).Div(bet.Price), true
}

// Stats summarizes store size.
type Stats struct {
	Bets   int
	Orders int
}

// Stats returns current counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Bets: len(s.byID), Orders: s.byOrder.Len()}
}
