// Package watch decides which events get a handicap-offer subscription.
// Candidates are collected as event updates arrive and flushed upstream
// in one batched watch_hcaps frame after a short delay, so a burst of
// newly live events costs one control frame.
package watch

import (
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/schema"
)

// Sender pushes control frames to the upstream feed.
type Sender interface {
	Send(v any) error
}

// EventSource supplies live events for the periodic re-check.
type EventSource interface {
	InRunningSport(sport string, running bool) []schema.Event
}

// Manager tracks watched and candidate events.
type Manager struct {
	mu     sync.Mutex
	sender Sender
	events EventSource

	sports map[string]struct{}
	delay  time.Duration

	watched map[string][]string // event key -> [competition, sport, key]
	pending map[string][]string
	firstTs int64 // when the oldest pending candidate arrived

	batches  uint64
	rejected uint64
}

// NewManager builds a manager watching the configured sports.
func NewManager(sender Sender, events EventSource, sports []string, delay time.Duration) *Manager {
	set := make(map[string]struct{}, len(sports))
	for _, s := range sports {
		set[s] = struct{}{}
	}
	return &Manager{
		sender:  sender,
		events:  events,
		sports:  set,
		delay:   delay,
		watched: make(map[string][]string),
		pending: make(map[string][]string),
	}
}

// OnEvent considers one upserted event for subscription. Only normal,
// full-period, in-running events of a configured sport qualify.
func (m *Manager) OnEvent(ev schema.Event, now int64) {
	if !m.eligible(ev) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(ev, now)
}

func (m *Manager) eligible(ev schema.Event) bool {
	if ev.EventType != "normal" {
		return false
	}
	if _, ok := m.sports[ev.Sport]; !ok {
		return false
	}
	if ev.Period != "" {
		return false
	}
	return ev.InRunning
}

func (m *Manager) add(ev schema.Event, now int64) {
	if _, ok := m.watched[ev.Key]; ok {
		return
	}
	if _, ok := m.pending[ev.Key]; ok {
		return
	}
	if len(m.pending) == 0 {
		m.firstTs = now
	}
	m.pending[ev.Key] = []string{ev.CompetitionID, ev.Sport, ev.Key}
}

// FlushDue sends one watch_hcaps batch once the flush delay has passed
// since the oldest candidate arrived. Returns how many events were
// subscribed.
func (m *Manager) FlushDue(now int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pending) == 0 || now-m.firstTs < m.delay.Milliseconds() {
		return 0
	}

	entries := make([][]string, 0, len(m.pending))
	for _, tuple := range m.pending {
		entries = append(entries, tuple)
	}
	if err := m.sender.Send([]any{"watch_hcaps", entries}); err != nil {
		m.rejected++
		logs.Warnf("watch_hcaps batch of %d failed: %+v", len(entries), err)
		return 0
	}

	for key, tuple := range m.pending {
		m.watched[key] = tuple
		delete(m.pending, key)
	}
	m.batches++
	return len(entries)
}

// PeriodicCheck picks up events that went live without a fresh event
// frame, by scanning the store for unwatched in-running events.
func (m *Manager) PeriodicCheck(now int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for sport := range m.sports {
		for _, ev := range m.events.InRunningSport(sport, true) {
			if !m.eligible(ev) {
				continue
			}
			before := len(m.pending)
			m.add(ev, now)
			if len(m.pending) > before {
				added++
			}
		}
	}
	return added
}

// Resubscribe drops every subscription and rebuilds the watch list from
// the currently live events. Used after a transport reconnect.
func (m *Manager) Resubscribe(now int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.watched) > 0 {
		entries := make([][]string, 0, len(m.watched))
		for _, tuple := range m.watched {
			entries = append(entries, tuple)
		}
		if err := m.sender.Send([]any{"unwatch_hcaps", entries}); err != nil {
			return err
		}
		m.watched = make(map[string][]string)
	}

	for sport := range m.sports {
		for _, ev := range m.events.InRunningSport(sport, true) {
			if m.eligible(ev) {
				m.add(ev, now)
			}
		}
	}
	m.firstTs = 0 // force the next flush
	return nil
}

// Watched reports whether an event currently has a subscription.
func (m *Manager) Watched(eventKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.watched[eventKey]
	return ok
}

// Stats summarizes subscription state.
type Stats struct {
	Watched  int
	Pending  int
	Batches  uint64
	Rejected uint64
}

// Stats returns current counts.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Watched:  len(m.watched),
		Pending:  len(m.pending),
		Batches:  m.batches,
		Rejected: m.rejected,
	}
}
