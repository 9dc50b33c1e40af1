// Package offers keeps two views of market offers per event.
//
// The flat view holds one current line per market group and follows the
// feed's replace-or-merge contract: an update carrying exactly the stored
// key set replaces the record wholesale, any other update merges at the
// market-group level. The deep view accumulates every line id ever seen,
// merged side by side, and never evicts. The asymmetry is intentional and
// both policies are load-bearing.
package offers

import (
	"sync"

	"main/internal/index"
	"main/internal/schema"
)

// Store holds the flat and deep offer views.
type Store struct {
	mu   sync.RWMutex
	flat map[string]*schema.EventOffers
	deep map[string]*schema.EventOfferBook

	flatByType *index.Index // market group -> event keys
	deepByType *index.Index
}

// NewStore allocates an empty offers store.
func NewStore() *Store {
	return &Store{
		flat:       make(map[string]*schema.EventOffers),
		deep:       make(map[string]*schema.EventOfferBook),
		flatByType: index.New(),
		deepByType: index.New(),
	}
}

// UpsertFlat applies a flat offers update for one event.
func (s *Store) UpsertFlat(eventKey, competitionID, sport string, markets map[string]schema.OfferLine, now int64) schema.EventOffers {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.flat[eventKey]
	if !ok {
		rec := &schema.EventOffers{
			EventKey:      eventKey,
			CompetitionID: competitionID,
			Sport:         sport,
			Markets:       cloneMarkets(markets),
			UpdateCount:   1,
			FirstUpdateTs: now,
			LastUpdateTs:  now,
		}
		s.flat[eventKey] = rec
		for group := range markets {
			s.flatByType.Add(group, eventKey)
		}
		return copyFlat(rec)
	}

	if sameKeySet(existing.Markets, markets) {
		existing.Markets = cloneMarkets(markets)
	} else {
		for group, line := range markets {
			existing.Markets[group] = line
		}
	}
	if competitionID != "" {
		existing.CompetitionID = competitionID
	}
	if sport != "" {
		existing.Sport = sport
	}
	existing.UpdateCount++
	existing.LastUpdateTs = now
	for group := range markets {
		s.flatByType.Add(group, eventKey)
	}
	return copyFlat(existing)
}

// UpsertDeep applies an offers_event update, deep-merging at every level.
func (s *Store) UpsertDeep(eventKey string, book map[string]map[string]schema.Odds, now int64) schema.EventOfferBook {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.deep[eventKey]
	if !ok {
		rec := &schema.EventOfferBook{
			EventKey:      eventKey,
			Book:          cloneBook(book),
			UpdateCount:   1,
			FirstUpdateTs: now,
			LastUpdateTs:  now,
		}
		s.deep[eventKey] = rec
		for group := range book {
			s.deepByType.Add(group, eventKey)
		}
		return copyDeep(rec)
	}

	for group := range existing.Book {
		s.deepByType.Remove(group, eventKey)
	}
	for group, lines := range book {
		dst, ok := existing.Book[group]
		if !ok {
			existing.Book[group] = cloneLines(lines)
			continue
		}
		for lineID, odds := range lines {
			dstOdds, ok := dst[lineID]
			if !ok {
				dst[lineID] = cloneOdds(odds)
				continue
			}
			for side, price := range odds {
				dstOdds[side] = price
			}
		}
	}
	existing.UpdateCount++
	existing.LastUpdateTs = now
	for group := range existing.Book {
		s.deepByType.Add(group, eventKey)
	}
	return copyDeep(existing)
}

// Flat returns the flat record for an event.
func (s *Store) Flat(eventKey string) (schema.EventOffers, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.flat[eventKey]
	if !ok {
		return schema.EventOffers{}, false
	}
	return copyFlat(rec), true
}

// Deep returns the deep record for an event.
func (s *Store) Deep(eventKey string) (schema.EventOfferBook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.deep[eventKey]
	if !ok {
		return schema.EventOfferBook{}, false
	}
	return copyDeep(rec), true
}

// FlatLine returns the current line for one market group of an event.
func (s *Store) FlatLine(eventKey, group string) (schema.OfferLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.flat[eventKey]
	if !ok {
		return schema.OfferLine{}, false
	}
	line, ok := rec.Markets[group]
	if !ok {
		return schema.OfferLine{}, false
	}
	return schema.OfferLine{LineID: line.LineID, Odds: cloneOdds(line.Odds)}, true
}

// HasOffer reports whether the flat view carries a market group for an event.
func (s *Store) HasOffer(eventKey, group string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flatByType.Has(group, eventKey)
}

// EventsWithOffer returns event keys carrying a market group in the flat view.
func (s *Store) EventsWithOffer(group string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flatByType.Get(group)
}

// EventsWithDeepOffer returns event keys carrying a market group in the deep view.
func (s *Store) EventsWithDeepOffer(group string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deepByType.Get(group)
}

// DeleteFlat drops the flat record of an event.
func (s *Store) DeleteFlat(eventKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.flat[eventKey]
	if !ok {
		return false
	}
	for group := range rec.Markets {
		s.flatByType.Remove(group, eventKey)
	}
	delete(s.flat, eventKey)
	return true
}

// DeleteDeep drops the deep record of an event.
func (s *Store) DeleteDeep(eventKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.deep[eventKey]
	if !ok {
		return false
	}
	for group := range rec.Book {
		s.deepByType.Remove(group, eventKey)
	}
	delete(s.deep, eventKey)
	return true
}

// Stats summarizes both views.
type Stats struct {
	FlatEvents int
	DeepEvents int
}

// Stats returns current counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{FlatEvents: len(s.flat), DeepEvents: len(s.deep)}
}

func sameKeySet(a map[string]schema.OfferLine, b map[string]schema.OfferLine) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func cloneOdds(odds schema.Odds) schema.Odds {
	out := make(schema.Odds, len(odds))
	for side, price := range odds {
		out[side] = price
	}
	return out
}

func cloneMarkets(markets map[string]schema.OfferLine) map[string]schema.OfferLine {
	out := make(map[string]schema.OfferLine, len(markets))
	for group, line := range markets {
		out[group] = schema.OfferLine{LineID: line.LineID, Odds: cloneOdds(line.Odds)}
	}
	return out
}

func cloneLines(lines map[string]schema.Odds) map[string]schema.Odds {
	out := make(map[string]schema.Odds, len(lines))
	for id, odds := range lines {
		out[id] = cloneOdds(odds)
	}
	return out
}

func cloneBook(book map[string]map[string]schema.Odds) map[string]map[string]schema.Odds {
	out := make(map[string]map[string]schema.Odds, len(book))
	for group, lines := range book {
		out[group] = cloneLines(lines)
	}
	return out
}

func copyFlat(rec *schema.EventOffers) schema.EventOffers {
	out := *rec
	out.Markets = cloneMarkets(rec.Markets)
	return out
}

func copyDeep(rec *schema.EventOfferBook) schema.EventOfferBook {
	out := *rec
	out.Book = cloneBook(rec.Book)
	return out
}
