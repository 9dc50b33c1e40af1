// Package events stores event metadata and keeps eleven secondary indexes
// consistent while events are re-keyed by updates.
package events

import (
	"strconv"
	"sync"

	"main/internal/index"
	"main/internal/schema"
)

// Store is the event table plus its secondary indexes.
type Store struct {
	mu    sync.RWMutex
	byKey map[string]*schema.Event

	bySportPeriod    *index.Index
	byCompetition    *index.Index
	byDate           *index.Index
	byScope          *index.Index
	byPeriod         *index.Index
	byHome           *index.Index
	byAway           *index.Index
	byInRunning      *index.Index
	bySportInRunning *index.Index
	bySportHome      *index.Index
	bySportAway      *index.Index
}

// NewStore allocates an empty event store.
func NewStore() *Store {
	return &Store{
		byKey:            make(map[string]*schema.Event),
		bySportPeriod:    index.New(),
		byCompetition:    index.New(),
		byDate:           index.New(),
		byScope:          index.New(),
		byPeriod:         index.New(),
		byHome:           index.New(),
		byAway:           index.New(),
		byInRunning:      index.New(),
		bySportInRunning: index.New(),
		bySportHome:      index.New(),
		bySportAway:      index.New(),
	}
}

// Upsert merges the normalized event into the store and rebuilds every
// index membership that changed. Scope is sticky: once an event is
// classified it never flips.
func (s *Store) Upsert(in schema.Event, now int64) schema.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byKey[in.Key]
	if !ok {
		ev := in
		ev.UpdateCount = 1
		ev.FirstUpdateTs = now
		ev.LastUpdateTs = now
		s.byKey[ev.Key] = &ev
		s.addIndexes(&ev)
		return ev
	}

	s.removeIndexes(existing)

	scope := existing.Scope
	first := existing.FirstUpdateTs
	count := existing.UpdateCount

	*existing = in
	if scope != "" {
		existing.Scope = scope
	}
	existing.FirstUpdateTs = first
	existing.UpdateCount = count + 1
	existing.LastUpdateTs = now

	s.addIndexes(existing)
	return *existing
}

// Delete removes the event and all its index memberships.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.byKey[key]
	if !ok {
		return false
	}
	s.removeIndexes(ev)
	delete(s.byKey, key)
	return true
}

func (s *Store) addIndexes(ev *schema.Event) {
	s.bySportPeriod.Add(ev.SportPeriod(), ev.Key)
	s.byCompetition.Add(ev.CompetitionID, ev.Key)
	s.byDate.Add(ev.Date, ev.Key)
	s.byScope.Add(string(ev.Scope), ev.Key)
	s.byPeriod.Add(ev.Period, ev.Key)
	s.byHome.Add(ev.Home, ev.Key)
	s.byAway.Add(ev.Away, ev.Key)

	ir := strconv.FormatBool(ev.InRunning)
	s.byInRunning.Add(ir, ev.Key)
	if ev.Sport != "" {
		s.bySportInRunning.Add(ev.Sport+"|"+ir, ev.Key)
		if ev.Home != "" {
			s.bySportHome.Add(ev.Sport+"|"+ev.Home, ev.Key)
		}
		if ev.Away != "" {
			s.bySportAway.Add(ev.Sport+"|"+ev.Away, ev.Key)
		}
	}
}

func (s *Store) removeIndexes(ev *schema.Event) {
	s.bySportPeriod.Remove(ev.SportPeriod(), ev.Key)
	s.byCompetition.Remove(ev.CompetitionID, ev.Key)
	s.byDate.Remove(ev.Date, ev.Key)
	s.byScope.Remove(string(ev.Scope), ev.Key)
	s.byPeriod.Remove(ev.Period, ev.Key)
	s.byHome.Remove(ev.Home, ev.Key)
	s.byAway.Remove(ev.Away, ev.Key)

	ir := strconv.FormatBool(ev.InRunning)
	s.byInRunning.Remove(ir, ev.Key)
	if ev.Sport != "" {
		s.bySportInRunning.Remove(ev.Sport+"|"+ir, ev.Key)
		if ev.Home != "" {
			s.bySportHome.Remove(ev.Sport+"|"+ev.Home, ev.Key)
		}
		if ev.Away != "" {
			s.bySportAway.Remove(ev.Sport+"|"+ev.Away, ev.Key)
		}
	}
}

// Get returns the event stored under key.
func (s *Store) Get(key string) (schema.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.byKey[key]
	if !ok {
		return schema.Event{}, false
	}
	return *ev, true
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// All returns a copy of every stored event.
func (s *Store) All() []schema.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]schema.Event, 0, len(s.byKey))
	for _, ev := range s.byKey {
		out = append(out, *ev)
	}
	return out
}

func (s *Store) resolve(keys []string) []schema.Event {
	out := make([]schema.Event, 0, len(keys))
	for _, k := range keys {
		if ev, ok := s.byKey[k]; ok {
			out = append(out, *ev)
		}
	}
	return out
}

// BySportPeriod returns events under a full sport_period identifier.
func (s *Store) BySportPeriod(sportPeriod string) []schema.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.bySportPeriod.Get(sportPeriod))
}

// ByCompetition returns events of one competition.
func (s *Store) ByCompetition(competitionID string) []schema.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byCompetition.Get(competitionID))
}

// ByDate returns events on a "YYYY-MM-DD" date.
func (s *Store) ByDate(date string) []schema.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byDate.Get(date))
}

// ByScope returns events with the given scope.
func (s *Store) ByScope(scope schema.Scope) []schema.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byScope.Get(string(scope)))
}

// ByPeriod returns events with the given period code.
func (s *Store) ByPeriod(period string) []schema.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byPeriod.Get(period))
}

// ByHome returns events with the given home team.
func (s *Store) ByHome(team string) []schema.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byHome.Get(team))
}

// ByAway returns events with the given away team.
func (s *Store) ByAway(team string) []schema.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byAway.Get(team))
}

// ByTeam returns events where the team plays on either side.
func (s *Store) ByTeam(team string) []schema.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	keys := make([]string, 0)
	for _, k := range s.byHome.Get(team) {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for _, k := range s.byAway.Get(team) {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return s.resolve(keys)
}

// InRunning returns events filtered by their live flag.
func (s *Store) InRunning(running bool) []schema.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.byInRunning.Get(strconv.FormatBool(running)))
}

// InRunningSport returns events of one sport filtered by their live flag.
func (s *Store) InRunningSport(sport string, running bool) []schema.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.bySportInRunning.Get(sport + "|" + strconv.FormatBool(running)))
}

// BySportAndHome returns events of one sport with the given home team.
func (s *Store) BySportAndHome(sport, team string) []schema.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.bySportHome.Get(sport + "|" + team))
}

// BySportAndAway returns events of one sport with the given away team.
func (s *Store) BySportAndAway(sport, team string) []schema.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolve(s.bySportAway.Get(sport + "|" + team))
}

// Stats summarizes store and index sizes.
type Stats struct {
	Events    int
	InRunning int
	Scheduled int
}

// Stats returns current counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Events:    len(s.byKey),
		InRunning: s.byInRunning.Count("true"),
		Scheduled: s.byInRunning.Count("false"),
	}
}
