package watch

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
	"main/internal/store/events"
)

type fakeSender struct {
	frames []any
	err    error
}

func (f *fakeSender) Send(v any) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, v)
	return nil
}

func liveEvent(key string) schema.Event {
	return schema.Event{
		Key:           key,
		Sport:         "basket",
		EventType:     "normal",
		CompetitionID: "31629",
		InRunning:     true,
	}
}

func newManager(sender Sender, store *events.Store) *Manager {
	return NewManager(sender, store, []string{"basket"}, 10*time.Second)
}

func TestOnEventFilters(t *testing.T) {
	sender := &fakeSender{}
	m := newManager(sender, events.NewStore())

	wrongType := liveEvent("k1")
	wrongType.EventType = "outright"
	wrongSport := liveEvent("k2")
	wrongSport.Sport = "fb"
	halfTime := liveEvent("k3")
	halfTime.Period = "HT"
	notLive := liveEvent("k4")
	notLive.InRunning = false

	for _, ev := range []schema.Event{wrongType, wrongSport, halfTime, notLive} {
		m.OnEvent(ev, 1000)
	}
	assert.Zero(t, m.Stats().Pending)

	m.OnEvent(liveEvent("k5"), 1000)
	m.OnEvent(liveEvent("k5"), 1000) // duplicate candidate
	assert.Equal(t, 1, m.Stats().Pending)
}

func TestFlushBatchesAfterDelay(t *testing.T) {
	sender := &fakeSender{}
	m := newManager(sender, events.NewStore())

	m.OnEvent(liveEvent("k1"), 1000)
	m.OnEvent(liveEvent("k2"), 3000)

	assert.Zero(t, m.FlushDue(5000), "delay counts from the first candidate")
	require.Equal(t, 2, m.FlushDue(11_000))

	require.Len(t, sender.frames, 1)
	frame := sender.frames[0].([]any)
	assert.Equal(t, "watch_hcaps", frame[0])
	assert.Len(t, frame[1].([][]string), 2)

	assert.True(t, m.Watched("k1"))
	assert.Zero(t, m.Stats().Pending)
	assert.EqualValues(t, 1, m.Stats().Batches)

	// watched events are not re-candidates
	m.OnEvent(liveEvent("k1"), 12_000)
	assert.Zero(t, m.Stats().Pending)
}

func TestFlushKeepsPendingOnSendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("socket gone")}
	m := newManager(sender, events.NewStore())

	m.OnEvent(liveEvent("k1"), 1000)
	assert.Zero(t, m.FlushDue(20_000))
	assert.Equal(t, 1, m.Stats().Pending)
	assert.EqualValues(t, 1, m.Stats().Rejected)

	sender.err = nil
	assert.Equal(t, 1, m.FlushDue(20_000))
}

func TestPeriodicCheckFindsQuietlyLiveEvents(t *testing.T) {
	store := events.NewStore()
	store.Upsert(liveEvent("k1"), 1)
	ht := liveEvent("k2")
	ht.Period = "HT"
	store.Upsert(ht, 1)

	sender := &fakeSender{}
	m := newManager(sender, store)

	assert.Equal(t, 1, m.PeriodicCheck(1000))
	assert.Equal(t, 1, m.Stats().Pending)
	assert.Zero(t, m.PeriodicCheck(1000), "already a candidate")
}

func TestResubscribeRebuildsFromLiveEvents(t *testing.T) {
	store := events.NewStore()
	store.Upsert(liveEvent("k1"), 1)
	store.Upsert(liveEvent("k2"), 1)

	sender := &fakeSender{}
	m := newManager(sender, store)
	m.OnEvent(liveEvent("k1"), 1000)
	require.Equal(t, 1, m.FlushDue(20_000))

	require.NoError(t, m.Resubscribe(30_000))

	require.Len(t, sender.frames, 2)
	unwatch := sender.frames[1].([]any)
	assert.Equal(t, "unwatch_hcaps", unwatch[0])
	assert.False(t, m.Watched("k1"))

	// both live events become candidates and flush immediately
	assert.Equal(t, 2, m.FlushDue(30_000))
	assert.True(t, m.Watched("k1"))
	assert.True(t, m.Watched("k2"))
}
