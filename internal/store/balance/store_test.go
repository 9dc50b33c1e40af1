package balance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func TestUpdateReplacesSnapshot(t *testing.T) {
	s := NewStore()
	_, ok := s.Get()
	require.False(t, ok)

	s.Update(schema.Balance{Currency: "GBP", Amount: decimal.NewFromFloat(47.05), LastUpdateTs: 1000})
	s.Update(schema.Balance{Currency: "GBP", Amount: decimal.NewFromFloat(52.10), LastUpdateTs: 2000})

	snap, ok := s.Get()
	require.True(t, ok)
	assert.True(t, snap.Amount.Equal(decimal.NewFromFloat(52.10)))
	assert.EqualValues(t, 2000, snap.LastUpdateTs)
}
