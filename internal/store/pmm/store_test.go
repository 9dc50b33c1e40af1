package pmm

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func testOptions() Options {
	return Options{
		RequiredStake:    decimal.NewFromInt(10),
		RequiredCurrency: "GBP",
		QuoteTTL:         30 * time.Second,
		QuoteFreshness:   30 * time.Second,
		BookiePriority:   map[string]int{"bf": 3, "bdaq": 2, "mbook": 1},
	}
}

func tier(price, min, max float64) schema.PriceTier {
	return schema.PriceTier{
		Price: decimal.NewFromFloat(price),
		Min:   decimal.NewFromFloat(min),
		Max:   decimal.NewFromFloat(max),
	}
}

func quote(bookie string, ts int64, tiers ...schema.PriceTier) schema.QuoteUpdate {
	return schema.QuoteUpdate{
		BetslipID:  "bs1",
		EventID:    "ev1",
		BetType:    "for,home",
		Sport:      "basket",
		Bookie:     bookie,
		StatusCode: "success",
		Currency:   "GBP",
		Tiers:      tiers,
		Ts:         ts,
	}
}

func TestApplyRejectsStaleUpdates(t *testing.T) {
	s := NewStore(testOptions())
	require.True(t, s.Apply(quote("bf", 2000, tier(1.9, 1, 500)), 2000))
	assert.False(t, s.Apply(quote("bf", 2000, tier(2.0, 1, 500)), 2100), "equal ts is stale")
	assert.False(t, s.Apply(quote("bf", 1500, tier(2.0, 1, 500)), 2100))
	require.True(t, s.Apply(quote("bf", 2500, tier(2.0, 1, 500)), 2600))

	b, ok := s.Betslip("bs1")
	require.True(t, ok)
	assert.True(t, b.Quotes["bf"].TopPrice.Equal(decimal.NewFromFloat(2.0)))
	assert.EqualValues(t, 2, s.Stats().StaleRejected)
}

func TestTopTiersBoundedAndFiltered(t *testing.T) {
	got := topTiers([]schema.PriceTier{
		tier(1.8, 1, 100),
		tier(0.9, 1, 100), // junk price dropped
		tier(2.1, 1, 100),
		tier(1.0, 1, 100), // even money dropped
		tier(1.95, 1, 100),
		tier(2.3, 1, 100),
	})
	require.Len(t, got, 3)
	assert.True(t, got[0].Price.Equal(decimal.NewFromFloat(2.3)))
	assert.True(t, got[1].Price.Equal(decimal.NewFromFloat(2.1)))
	assert.True(t, got[2].Price.Equal(decimal.NewFromFloat(1.95)))
}

func TestFilterChainReasons(t *testing.T) {
	s := NewStore(testOptions())
	now := int64(100_000)

	junk := quote("b1", now)
	junk.Tiers = []schema.PriceTier{tier(0.5, 1, 100)}
	suspended := quote("b2", now, tier(2.0, 1, 100))
	suspended.StatusCode = "suspended"
	stale := quote("b3", now-60_000, tier(2.5, 1, 100))
	dry := quote("b4", now, tier(2.0, 1, 100))
	dry.Tiers = []schema.PriceTier{{Price: decimal.NewFromFloat(2.0), Min: decimal.NewFromInt(1)}}
	foreign := quote("b5", now, tier(2.0, 1, 100))
	foreign.Currency = "USD"
	tooSmall := quote("b6", now, tier(2.0, 50, 100))
	good := quote("bf", now, tier(1.9, 1, 500))

	for _, u := range []schema.QuoteUpdate{junk, suspended, stale, dry, foreign, tooSmall, good} {
		require.True(t, s.Apply(u, now))
	}
	require.Equal(t, 1, s.FlushDirty(now))

	b, ok := s.Betslip("bs1")
	require.True(t, ok)
	assert.Equal(t, map[string]string{
		"b1": "no_price",
		"b2": "status_suspended",
		"b3": "expired",
		"b4": "no_liquidity",
		"b5": "currency_mismatch_USD",
		"b6": "min_stake_10",
	}, b.FilteredReasons)

	// best odds ignores executability, best executable does not
	require.NotNil(t, b.BestOdds)
	assert.Equal(t, "b3", b.BestOdds.Bookie)
	require.NotNil(t, b.BestExecutable)
	assert.Equal(t, "bf", b.BestExecutable.Bookie)
	assert.True(t, b.BestExecutable.Price.Equal(decimal.NewFromFloat(1.9)))
}

func TestStakeFallbackWithoutTiers(t *testing.T) {
	s := NewStore(testOptions())
	q := &schema.BookieQuote{
		TopPrice:     decimal.NewFromFloat(2.0),
		TopAvailable: schema.Money{Currency: "GBP", Amount: decimal.NewFromInt(50)},
	}
	assert.True(t, s.stakeFits(q))

	q.TopAvailable.Amount = decimal.NewFromInt(5)
	assert.False(t, s.stakeFits(q))
}

func TestSummaryReasons(t *testing.T) {
	for name, tc := range map[string]struct {
		reasons map[string]string
		want    string
	}{
		"empty":     {map[string]string{}, "all_suspended"},
		"suspended": {map[string]string{"a": "status_suspended", "b": "status_error"}, "all_suspended"},
		"expired":   {map[string]string{"a": "expired", "b": "expired"}, "all_expired"},
		"dry":       {map[string]string{"a": "no_liquidity"}, "no_liquidity"},
		"mixed":     {map[string]string{"a": "expired", "b": "no_liquidity"}, "mixed_issues"},
	} {
		assert.Equal(t, tc.want, summarize(tc.reasons), name)
	}
}

func TestFlushCoalescesBursts(t *testing.T) {
	s := NewStore(testOptions())
	now := int64(100_000)
	for i := int64(1); i <= 5; i++ {
		require.True(t, s.Apply(quote("bf", now+i, tier(1.9, 1, 500)), now+i))
	}
	assert.Equal(t, 1, s.FlushDirty(now+10), "one betslip, one recompute")
	assert.Zero(t, s.FlushDirty(now+11))
}

func TestTieBreakOrder(t *testing.T) {
	s := NewStore(testOptions())
	now := int64(100_000)

	// same price, bdaq has more depth
	bf := quote("bf", now, tier(2.0, 1, 100))
	bdaq := quote("bdaq", now, tier(2.0, 1, 200))
	require.True(t, s.Apply(bf, now))
	require.True(t, s.Apply(bdaq, now))
	s.FlushDirty(now)

	point, reason, ok := s.BestExecutable("bs1")
	require.True(t, ok)
	require.Empty(t, reason)
	assert.Equal(t, "bdaq", point.Bookie)

	// equal depth and time falls back to configured priority
	bf2 := quote("bf", now+1, tier(2.0, 1, 200))
	require.True(t, s.Apply(bf2, now+1))
	bdaq2 := quote("bdaq", now+1, tier(2.0, 1, 200))
	require.True(t, s.Apply(bdaq2, now+1))
	s.FlushDirty(now + 1)

	point, _, _ = s.BestExecutable("bs1")
	assert.Equal(t, "bf", point.Bookie)
}

func TestAllPricesSortedBestFirst(t *testing.T) {
	s := NewStore(testOptions())
	now := int64(100_000)
	require.True(t, s.Apply(quote("bf", now, tier(1.9, 1, 100)), now))
	require.True(t, s.Apply(quote("bdaq", now, tier(2.1, 1, 100)), now))
	require.True(t, s.Apply(quote("mbook", now, tier(2.0, 1, 100)), now))

	prices := s.AllPrices("ev1", "for,home")
	require.Len(t, prices, 3)
	assert.Equal(t, "bdaq", prices[0].Bookie)
	assert.Equal(t, "mbook", prices[1].Bookie)
	assert.Equal(t, "bf", prices[2].Bookie)
}

func TestLiquidityAtPrice(t *testing.T) {
	s := NewStore(testOptions())
	now := int64(100_000)

	bf := quote("bf", now, tier(2.1, 1, 300), tier(2.0, 1, 200), tier(1.8, 1, 100))
	bdaq := quote("bdaq", now, tier(2.0, 1, 150))
	suspended := quote("mbook", now, tier(2.5, 1, 999))
	suspended.StatusCode = "suspended"
	require.True(t, s.Apply(bf, now))
	require.True(t, s.Apply(bdaq, now))
	require.True(t, s.Apply(suspended, now))

	total, breakdown := s.LiquidityAtPrice("ev1", "for,home", decimal.NewFromFloat(2.0), now)
	assert.True(t, total.Equal(decimal.NewFromInt(650)), "got %s", total)
	require.Len(t, breakdown, 2)
	assert.Equal(t, "bf", breakdown[0].Bookie)
	assert.True(t, breakdown[0].Total.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "bdaq", breakdown[1].Bookie)
}

func TestSweepDropsExpiredBetslips(t *testing.T) {
	s := NewStore(testOptions())
	require.True(t, s.Apply(quote("bf", 1000, tier(1.9, 1, 500)), 1000))

	assert.Zero(t, s.Sweep(1000+30_000), "exact deadline is not due")
	require.Equal(t, 1, s.Sweep(1000+30_001))

	_, ok := s.Betslip("bs1")
	assert.False(t, ok)
	assert.Empty(t, s.ByEvent("ev1"))
	assert.Empty(t, s.ByBookie("bf"))
	assert.Zero(t, s.Stats().Dirty)
}
