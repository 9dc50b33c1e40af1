package pmm

import (
	"strings"

	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// compute re-derives the best odds and the best executable price of one
// betslip. Best odds only needs a real price; the executable price must
// additionally pass status, freshness, liquidity, currency, and stake
// filters. Each failing bookie keeps its first failure reason.
func (s *Store) compute(b *schema.Betslip, now int64) {
	reasons := make(map[string]string)
	var bestOdds, bestExec *schema.PricePoint
	one := decimal.NewFromInt(1)
	freshness := s.opt.QuoteFreshness.Milliseconds()

	for bookie, q := range b.Quotes {
		if q.TopPrice.LessThanOrEqual(one) {
			reasons[bookie] = "no_price"
			continue
		}

		point := schema.PricePoint{
			Bookie:      bookie,
			Price:       q.TopPrice,
			Available:   q.TopAvailable,
			UpdatedAtTs: q.LastUpdateTs,
		}
		if bestOdds == nil || s.better(point, *bestOdds) {
			p := point
			bestOdds = &p
		}

		switch {
		case q.StatusCode != "success":
			code := q.StatusCode
			if code == "" {
				code = "unknown"
			}
			reasons[bookie] = "status_" + code
		case now-q.LastUpdateTs > freshness:
			reasons[bookie] = "expired"
		case q.TopAvailable.IsZero():
			reasons[bookie] = "no_liquidity"
		case q.TopAvailable.Currency != "" && q.TopAvailable.Currency != s.opt.RequiredCurrency:
			reasons[bookie] = "currency_mismatch_" + q.TopAvailable.Currency
		case !s.stakeFits(q):
			reasons[bookie] = "min_stake_" + s.opt.RequiredStake.String()
		default:
			if bestExec == nil || s.better(point, *bestExec) {
				p := point
				bestExec = &p
			}
		}
	}

	b.BestOdds = bestOdds
	b.BestExecutable = bestExec
	b.FilteredReasons = reasons
	if bestExec != nil {
		b.BestExecutableReason = ""
	} else {
		b.BestExecutableReason = summarize(reasons)
	}
}

// stakeFits checks the required stake against the tier holding the top
// price. Quotes without retained tiers fall back to the available amount.
func (s *Store) stakeFits(q *schema.BookieQuote) bool {
	required := s.opt.RequiredStake
	if len(q.Tiers) == 0 {
		return q.TopAvailable.Amount.GreaterThanOrEqual(required)
	}
	for _, tier := range q.Tiers {
		if !tier.Price.Equal(q.TopPrice) {
			continue
		}
		if required.GreaterThanOrEqual(tier.Min) && required.LessThanOrEqual(tier.Max) {
			return true
		}
	}
	return false
}

// summarize collapses per-bookie failure reasons into one answer for the
// whole betslip. An empty quote set reads as all_suspended.
func summarize(reasons map[string]string) string {
	allSuspended, allExpired, allDry := true, true, true
	for _, reason := range reasons {
		if !strings.HasPrefix(reason, "status_") {
			allSuspended = false
		}
		if reason != "expired" {
			allExpired = false
		}
		if reason != "no_liquidity" {
			allDry = false
		}
	}
	switch {
	case allSuspended:
		return "all_suspended"
	case allExpired:
		return "all_expired"
	case allDry:
		return "no_liquidity"
	default:
		return "mixed_issues"
	}
}

// better ranks two price points: higher price wins, then deeper
// liquidity, then the fresher quote, then configured bookie priority.
func (s *Store) better(a, b schema.PricePoint) bool {
	if !a.Price.Equal(b.Price) {
		return a.Price.GreaterThan(b.Price)
	}
	if !a.Available.Amount.Equal(b.Available.Amount) {
		return a.Available.Amount.GreaterThan(b.Available.Amount)
	}
	if a.UpdatedAtTs != b.UpdatedAtTs {
		return a.UpdatedAtTs > b.UpdatedAtTs
	}
	return s.opt.BookiePriority[a.Bookie] > s.opt.BookiePriority[b.Bookie]
}
