package bets

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func matchedBet(id, orderID string) schema.Bet {
	return schema.Bet{
		ID:           id,
		OrderID:      orderID,
		EventID:      "ev1",
		Bookie:       "bf",
		Status:       "pending",
		Price:        decimal.NewFromFloat(1.9),
		Stake:        decimal.NewFromInt(50),
		MatchedPrice: decimal.NewFromFloat(1.92),
		MatchedStake: decimal.NewFromInt(50),
	}
}

func TestUpsertRekeysStatusIndex(t *testing.T) {
	s := NewStore()
	bet := matchedBet("b1", "o1")
	s.Upsert(bet, 1000)

	require.Len(t, s.ByStatus("pending"), 1)

	bet.Status = "done"
	got := s.Upsert(bet, 2000)
	assert.Equal(t, int64(1000), got.FirstSeenTs)
	assert.Equal(t, int64(2000), got.LastUpdateTs)

	assert.Empty(t, s.ByStatus("pending"))
	require.Len(t, s.ByStatus("done"), 1)
}

func TestBetsForOrder(t *testing.T) {
	s := NewStore()
	s.Upsert(matchedBet("b1", "o1"), 1)
	s.Upsert(matchedBet("b2", "o1"), 1)
	s.Upsert(matchedBet("b3", "o2"), 1)

	assert.Len(t, s.BetsForOrder("o1"), 2)
	assert.Len(t, s.BetsForOrder("o2"), 1)
	assert.Empty(t, s.BetsForOrder("o3"))
	assert.Len(t, s.ByBookie("bf"), 3)
	assert.Len(t, s.ByEvent("ev1"), 3)
}

func TestUpsertIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Upsert(matchedBet("b1", "o1"), 1)
	s.Upsert(matchedBet("b1", "o1"), 2)

	assert.Equal(t, 1, s.Len())
	assert.Len(t, s.BetsForOrder("o1"), 1)
}

func TestSlippage(t *testing.T) {
	s := NewStore()
	s.Upsert(matchedBet("b1", "o1"), 1)

	slip, ok := s.Slippage("b1")
	require.True(t, ok)
	want := decimal.NewFromFloat(0.02).Div(decimal.NewFromFloat(1.9))
	assert.True(t, slip.Equal(want), "got %s", slip)

	unmatched := matchedBet("b2", "o1")
	unmatched.MatchedPrice = decimal.Decimal{}
	s.Upsert(unmatched, 1)
	_, ok = s.Slippage("b2")
	assert.False(t, ok)

	_, ok = s.Slippage("missing")
	assert.False(t, ok)
}
