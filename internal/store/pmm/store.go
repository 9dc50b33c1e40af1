// Package pmm stores price-maker quotes grouped into betslips and derives
// the best executable price per betslip. Quote updates are applied
// immediately; the derived prices are recomputed in batches from a dirty
// set so a burst of updates costs one recompute.
package pmm

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/expiry"
	"main/internal/index"
	"main/internal/schema"
)

// maxTiers bounds how many liquidity tiers are kept per bookie quote.
const maxTiers = 3

// Options are the pricing knobs, resolved from config.
type Options struct {
	RequiredStake    decimal.Decimal
	RequiredCurrency string
	QuoteTTL         time.Duration
	QuoteFreshness   time.Duration
	BookiePriority   map[string]int
}

// Store is the betslip table plus its indexes, dirty set, and expiry
// schedule.
type Store struct {
	mu  sync.Mutex
	opt Options

	byID map[string]*schema.Betslip

	byEvent  *index.Index
	byMarket *index.Index
	byBookie *index.Index
	bySport  *index.Index

	dirty map[string]struct{}
	exp   *expiry.Queue

	staleRejected uint64
}

// NewStore allocates an empty betslip store.
func NewStore(opt Options) *Store {
	return &Store{
		opt:      opt,
		byID:     make(map[string]*schema.Betslip),
		byEvent:  index.New(),
		byMarket: index.New(),
		byBookie: index.New(),
		bySport:  index.New(),
		dirty:    make(map[string]struct{}),
		exp:      expiry.New(),
	}
}

// Apply merges one bookie quote into its betslip. Updates not newer than
// the stored quote are rejected; timestamps are monotonic per bookie.
// Accepting a quote refreshes the betslip lifetime and marks it dirty.
func (s *Store) Apply(u schema.QuoteUpdate, now int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[u.BetslipID]
	if !ok {
		b = &schema.Betslip{
			ID:        u.BetslipID,
			EventID:   u.EventID,
			BetType:   u.BetType,
			Sport:     u.Sport,
			MarketKey: u.EventID + "|" + u.BetType,
			Quotes:    make(map[string]*schema.BookieQuote),
			CreatedTs: now,
		}
		s.byID[b.ID] = b
		s.byEvent.Add(b.EventID, b.ID)
		s.byMarket.Add(b.MarketKey, b.ID)
		s.bySport.Add(b.Sport, b.ID)
	}

	if existing, ok := b.Quotes[u.Bookie]; ok && u.Ts <= existing.LastUpdateTs {
		s.staleRejected++
		return false
	}

	quote := &schema.BookieQuote{
		Bookie:       u.Bookie,
		Username:     u.Username,
		StatusCode:   u.StatusCode,
		Tiers:        topTiers(u.Tiers),
		LastUpdateTs: u.Ts,
	}
	if len(quote.Tiers) > 0 {
		quote.TopPrice = quote.Tiers[0].Price
		quote.TopAvailable = schema.Money{Currency: u.Currency, Amount: quote.Tiers[0].Max}
	}
	b.Quotes[u.Bookie] = quote
	s.byBookie.Add(u.Bookie, b.ID)

	b.UpdatedTs = now
	b.ExpiresTs = now + s.opt.QuoteTTL.Milliseconds()
	s.exp.Push(b.ID, b.ExpiresTs)
	s.dirty[b.ID] = struct{}{}
	return true
}

// topTiers keeps the best tiers by price, bounded insertion, dropping
// anything at or below even money.
func topTiers(tiers []schema.PriceTier) []schema.PriceTier {
	kept := make([]schema.PriceTier, 0, maxTiers)
	for _, tier := range tiers {
		if tier.Price.LessThanOrEqual(decimal.NewFromInt(1)) {
			continue
		}
		pos := len(kept)
		for i, k := range kept {
			if tier.Price.GreaterThan(k.Price) {
				pos = i
				break
			}
		}
		if pos >= maxTiers {
			continue
		}
		kept = append(kept, schema.PriceTier{})
		copy(kept[pos+1:], kept[pos:])
		kept[pos] = tier
		if len(kept) > maxTiers {
			kept = kept[:maxTiers]
		}
	}
	return kept
}

// FlushDirty recomputes derived prices for every dirty betslip and
// returns how many were recomputed.
func (s *Store) FlushDirty(now int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	flushed := 0
	for id := range s.dirty {
		if b, ok := s.byID[id]; ok {
			s.compute(b, now)
			flushed++
		}
		delete(s.dirty, id)
	}
	return flushed
}

// Sweep drops every betslip whose lifetime has passed and returns how
// many were dropped.
func (s *Store) Sweep(now int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	s.exp.Sweep(now, func(id string, _ int64) {
		b, ok := s.byID[id]
		if !ok {
			return
		}
		if b.ExpiresTs >= now {
			return
		}
		s.removeLocked(b)
		dropped++
	})
	return dropped
}

// Delete drops one betslip.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return false
	}
	s.removeLocked(b)
	return true
}

func (s *Store) removeLocked(b *schema.Betslip) {
	s.byEvent.Remove(b.EventID, b.ID)
	s.byMarket.Remove(b.MarketKey, b.ID)
	s.bySport.Remove(b.Sport, b.ID)
	for bookie := range b.Quotes {
		s.byBookie.Remove(bookie, b.ID)
	}
	s.exp.Remove(b.ID)
	delete(s.dirty, b.ID)
	delete(s.byID, b.ID)
}

// Stats summarizes store size and churn.
type Stats struct {
	Betslips      int
	Dirty         int
	StaleRejected uint64
}

// Stats returns current counts.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Betslips: len(s.byID), Dirty: len(s.dirty), StaleRejected: s.staleRejected}
}
