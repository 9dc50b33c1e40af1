package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func basketEvent(key string) schema.Event {
	return schema.Event{
		Key:           key,
		Sport:         "basket",
		Scope:         schema.ScopeMatch,
		Date:          "2026-01-04",
		CompetitionID: "31629",
		Home:          "Lakers",
		Away:          "Celtics",
		InRunning:     false,
	}
}

func TestUpsertReindexesOnChange(t *testing.T) {
	s := NewStore()
	ev := basketEvent("2026-01-04,31629,36428")
	s.Upsert(ev, 1000)

	require.Len(t, s.InRunning(false), 1)
	require.Len(t, s.InRunningSport("basket", false), 1)
	require.Empty(t, s.InRunning(true))

	// event goes live
	ev.InRunning = true
	got := s.Upsert(ev, 2000)
	assert.Equal(t, 2, got.UpdateCount)
	assert.Equal(t, int64(1000), got.FirstUpdateTs)
	assert.Equal(t, int64(2000), got.LastUpdateTs)

	require.Empty(t, s.InRunning(false), "stale index membership survived re-key")
	require.Len(t, s.InRunning(true), 1)
	require.Len(t, s.InRunningSport("basket", true), 1)
	require.Empty(t, s.InRunningSport("basket", false))
}

func TestScopeIsSticky(t *testing.T) {
	s := NewStore()
	ev := basketEvent("k1")
	ev.Scope = schema.ScopeSeason
	ev.Home = ""
	ev.Away = ""
	s.Upsert(ev, 1)

	// later partial update defaults to MATCH; classification must not flip
	ev.Scope = schema.ScopeMatch
	got := s.Upsert(ev, 2)
	assert.Equal(t, schema.ScopeSeason, got.Scope)
	require.Len(t, s.ByScope(schema.ScopeSeason), 1)
	require.Empty(t, s.ByScope(schema.ScopeMatch))
}

func TestTeamIndexes(t *testing.T) {
	s := NewStore()
	s.Upsert(basketEvent("k1"), 1)

	other := basketEvent("k2")
	other.Home = "Celtics"
	other.Away = "Lakers"
	s.Upsert(other, 1)

	assert.Len(t, s.ByHome("Lakers"), 1)
	assert.Len(t, s.ByAway("Lakers"), 1)
	assert.Len(t, s.ByTeam("Lakers"), 2)
	assert.Len(t, s.BySportAndHome("basket", "Celtics"), 1)
	assert.Empty(t, s.BySportAndHome("fb", "Celtics"))
}

func TestDeleteDropsAllMemberships(t *testing.T) {
	s := NewStore()
	s.Upsert(basketEvent("k1"), 1)
	require.True(t, s.Delete("k1"))
	require.False(t, s.Delete("k1"))

	assert.Zero(t, s.Len())
	assert.Empty(t, s.ByCompetition("31629"))
	assert.Empty(t, s.ByDate("2026-01-04"))
	assert.Empty(t, s.ByHome("Lakers"))
	assert.Empty(t, s.InRunning(false))
}

func TestSportPeriodIndexUsesFullIdentifier(t *testing.T) {
	s := NewStore()
	half := basketEvent("k1")
	half.Period = "HT"
	s.Upsert(half, 1)
	s.Upsert(basketEvent("k2"), 1)

	assert.Len(t, s.BySportPeriod("basket_ht"), 1)
	assert.Len(t, s.BySportPeriod("basket"), 1)
	assert.Len(t, s.ByPeriod("HT"), 1)
}
