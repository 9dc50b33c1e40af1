package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

type betSet []schema.Bet

func (b betSet) BetsForOrder(string) []schema.Bet { return b }

func newOrder(id string) schema.Order {
	return schema.Order{
		ID:      id,
		EventID: "ev1",
		Bookie:  "bf",
		Price:   decimal.NewFromFloat(1.9),
		Stake:   decimal.NewFromInt(100),
	}
}

func TestTransitionTableTotality(t *testing.T) {
	states := []schema.OrderState{
		schema.OrderStateCreated,
		schema.OrderStateOpen,
		schema.OrderStatePlaced,
		schema.OrderStateFinished,
		schema.OrderStateExpiredLocal,
	}
	for _, from := range states {
		_, ok := transitions[from]
		require.True(t, ok, "state %s missing from table", from)
	}
	for _, terminal := range []schema.OrderState{schema.OrderStateFinished, schema.OrderStateExpiredLocal} {
		for _, to := range states {
			assert.False(t, CanTransition(terminal, to), "%s must absorb %s", terminal, to)
		}
	}
	assert.False(t, CanTransition(schema.OrderStatePlaced, schema.OrderStateOpen))
	assert.True(t, CanTransition(schema.OrderStateOpen, schema.OrderStateFinished))
}

func TestUpsertRequiresIdentity(t *testing.T) {
	s := NewStore()
	_, err := s.Upsert(schema.Order{EventID: "ev1"}, 1)
	require.ErrorIs(t, err, ErrMissingID)
	_, err = s.Upsert(schema.Order{ID: "o1"}, 1)
	require.ErrorIs(t, err, ErrMissingEventID)
	assert.Zero(t, s.Len())
}

func TestLifecycleFromBets(t *testing.T) {
	s := NewStore()
	bets := betsFixture()
	_, err := s.Upsert(newOrder("o1"), 1000)
	require.NoError(t, err)

	got, _ := s.Get("o1")
	require.Equal(t, schema.OrderStateCreated, got.State)

	// unplaced stake opens the order
	got, err = s.ApplyBets("o1", betSet{bets["unplaced"]}, 2000)
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStateOpen, got.State)

	// stake moves in flight
	got, err = s.ApplyBets("o1", betSet{bets["inprogress"]}, 3000)
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatePlaced, got.State)

	// everything settles
	got, err = s.ApplyBets("o1", betSet{bets["done"]}, 4000)
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStateFinished, got.State)

	// late updates cannot resurrect a finished order
	got, err = s.ApplyBets("o1", betSet{bets["unplaced"]}, 5000)
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStateFinished, got.State)
}

func betsFixture() map[string]schema.Bet {
	base := schema.Bet{OrderID: "o1", EventID: "ev1", Bookie: "bf", Stake: decimal.NewFromInt(100)}
	out := make(map[string]schema.Bet)
	for _, status := range []string{"unplaced", "inprogress", "done"} {
		bet := base
		bet.ID = "b-" + status
		bet.Status = status
		out[status] = bet
	}
	return out
}

func TestInvalidDerivedTransitionIsDropped(t *testing.T) {
	s := NewStore()
	_, err := s.Upsert(newOrder("o1"), 1)
	require.NoError(t, err)

	inProgress := schema.Bet{ID: "b1", OrderID: "o1", Bookie: "bf", Status: "inprogress", Stake: decimal.NewFromInt(50)}
	got, err := s.ApplyBets("o1", betSet{inProgress}, 2)
	require.NoError(t, err)
	require.Equal(t, schema.OrderStatePlaced, got.State)

	// unplaced stake would derive OPEN, which PLACED cannot reach
	unplaced := inProgress
	unplaced.ID = "b2"
	unplaced.Status = "unplaced"
	got, err = s.ApplyBets("o1", betSet{inProgress, unplaced}, 3)
	require.NoError(t, err)
	assert.Equal(t, schema.OrderStatePlaced, got.State)
	assert.EqualValues(t, 1, s.Stats().InvalidTransitions)
}

func TestAggregateRecomputesPerBookie(t *testing.T) {
	s := NewStore()
	_, err := s.Upsert(newOrder("o1"), 1)
	require.NoError(t, err)

	bf := schema.Bet{ID: "b1", OrderID: "o1", Bookie: "bf", Status: "done", Stake: decimal.NewFromInt(60)}
	bdaq := schema.Bet{ID: "b2", OrderID: "o1", Bookie: "bdaq", Status: "done", Stake: decimal.NewFromInt(40)}
	noBookie := schema.Bet{ID: "b3", OrderID: "o1", Status: "cancelled", Stake: decimal.NewFromInt(10)}

	got, err := s.ApplyBets("o1", betSet{bf, bdaq, noBookie}, 2)
	require.NoError(t, err)

	require.Len(t, got.Success, 2)
	assert.Equal(t, "bdaq", got.Success[0].Bookie)
	assert.True(t, got.Success[0].Amount.Equal(decimal.NewFromInt(40)))
	require.Len(t, got.Danger, 1)
	assert.Equal(t, "unknown", got.Danger[0].Bookie)

	bar := Bar(got)
	assert.True(t, bar.Total().Equal(decimal.NewFromInt(110)))

	// replay must not double-count
	again, err := s.ApplyBets("o1", betSet{bf, bdaq, noBookie}, 3)
	require.NoError(t, err)
	assert.True(t, Bar(again).Total().Equal(decimal.NewFromInt(110)))
}

func TestSweepExpiresDueOrders(t *testing.T) {
	s := NewStore()
	due := newOrder("o1")
	due.ExpiresTs = 5000
	later := newOrder("o2")
	later.ExpiresTs = 9000
	_, err := s.Upsert(due, 1000)
	require.NoError(t, err)
	_, err = s.Upsert(later, 1000)
	require.NoError(t, err)

	require.Equal(t, 1, s.Sweep(6000))

	got, _ := s.Get("o1")
	assert.Equal(t, schema.OrderStateExpiredLocal, got.State)
	assert.True(t, got.Closed)
	assert.Equal(t, "expired_local", got.CloseReason)

	got, _ = s.Get("o2")
	assert.Equal(t, schema.OrderStateCreated, got.State)

	// repeated sweeps are idempotent
	assert.Zero(t, s.Sweep(6000))
}

func TestUpstreamCloseBeatsLocalExpiry(t *testing.T) {
	s := NewStore()
	o := newOrder("o1")
	o.ExpiresTs = 5000
	_, err := s.Upsert(o, 1000)
	require.NoError(t, err)

	// upstream closes the order before the local deadline fires
	o.Closed = true
	o.CloseReason = "settled"
	got, err := s.Upsert(o, 2000)
	require.NoError(t, err)
	require.True(t, got.Closed)
	assert.Equal(t, "settled", got.CloseReason)

	assert.Zero(t, s.Sweep(6000), "closed orders must not expire locally")
	got, _ = s.Get("o1")
	assert.NotEqual(t, schema.OrderStateExpiredLocal, got.State)
	assert.Equal(t, "settled", got.CloseReason)

	// closed is sticky even if a later update omits it
	o.Closed = false
	o.CloseReason = ""
	got, err = s.Upsert(o, 3000)
	require.NoError(t, err)
	assert.True(t, got.Closed)
	assert.Equal(t, "settled", got.CloseReason)
}

func TestUpdateWithoutDeadlineKeepsSchedule(t *testing.T) {
	s := NewStore()
	o := newOrder("o1")
	o.ExpiresTs = 5000
	_, err := s.Upsert(o, 1000)
	require.NoError(t, err)

	o.ExpiresTs = 0
	got, err := s.Upsert(o, 2000)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, got.ExpiresTs, "missing deadline must not disarm the schedule")

	assert.Equal(t, 1, s.Sweep(6000))
	got, _ = s.Get("o1")
	assert.Equal(t, schema.OrderStateExpiredLocal, got.State)
}

func TestRescheduledDeadlineInvalidatesOldEntry(t *testing.T) {
	s := NewStore()
	o := newOrder("o1")
	o.ExpiresTs = 5000
	_, err := s.Upsert(o, 1000)
	require.NoError(t, err)

	o.ExpiresTs = 9000
	_, err = s.Upsert(o, 2000)
	require.NoError(t, err)

	assert.Zero(t, s.Sweep(6000), "stale schedule must not fire")
	assert.Equal(t, 1, s.Sweep(10000))
}

func TestMarkExpiredProtections(t *testing.T) {
	s := NewStore()
	_, err := s.Upsert(newOrder("o1"), 1)
	require.NoError(t, err)

	require.NoError(t, s.MarkExpired("o1", "manual", 2))
	require.ErrorIs(t, s.MarkExpired("o1", "manual", 3), ErrOrderClosed)
	require.ErrorIs(t, s.MarkExpired("missing", "manual", 3), ErrUnknownOrder)

	done := newOrder("o2")
	_, err = s.Upsert(done, 1)
	require.NoError(t, err)
	bet := schema.Bet{ID: "b1", OrderID: "o2", Bookie: "bf", Status: "done", Stake: decimal.NewFromInt(10)}
	_, err = s.ApplyBets("o2", betSet{bet}, 2)
	require.NoError(t, err)
	require.ErrorIs(t, s.MarkExpired("o2", "manual", 3), ErrOrderTerminal)
}

func TestStateIndexFollowsTransitions(t *testing.T) {
	s := NewStore()
	_, err := s.Upsert(newOrder("o1"), 1)
	require.NoError(t, err)
	require.Len(t, s.ByState(schema.OrderStateCreated), 1)

	bet := schema.Bet{ID: "b1", OrderID: "o1", Bookie: "bf", Status: "done", Stake: decimal.NewFromInt(10)}
	_, err = s.ApplyBets("o1", betSet{bet}, 2)
	require.NoError(t, err)

	assert.Empty(t, s.ByState(schema.OrderStateCreated))
	require.Len(t, s.ByState(schema.OrderStateFinished), 1)
	assert.Len(t, s.ByEvent("ev1"), 1)
	assert.Len(t, s.ByBookie("bf"), 1)
}
