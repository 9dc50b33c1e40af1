package pmm

import (
	"sort"

	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// Betslip returns a copy of one betslip.
func (s *Store) Betslip(id string) (schema.Betslip, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return schema.Betslip{}, false
	}
	return copyBetslip(b), true
}

// Len returns the number of stored betslips.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Store) resolve(ids []string) []schema.Betslip {
	out := make([]schema.Betslip, 0, len(ids))
	for _, id := range ids {
		if b, ok := s.byID[id]; ok {
			out = append(out, copyBetslip(b))
		}
	}
	return out
}

// ByEvent returns every betslip on an event.
func (s *Store) ByEvent(eventID string) []schema.Betslip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(s.byEvent.Get(eventID))
}

// ByMarket returns every betslip for one "<event>|<betType>" market.
func (s *Store) ByMarket(marketKey string) []schema.Betslip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(s.byMarket.Get(marketKey))
}

// ByBookie returns every betslip a bookie has quoted on.
func (s *Store) ByBookie(bookie string) []schema.Betslip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(s.byBookie.Get(bookie))
}

// BySport returns every betslip of one sport.
func (s *Store) BySport(sport string) []schema.Betslip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolve(s.bySport.Get(sport))
}

// BestExecutable returns the derived executable price of a betslip. When
// no bookie passes the filters the reason explains why.
func (s *Store) BestExecutable(id string) (schema.PricePoint, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byID[id]
	if !ok {
		return schema.PricePoint{}, "", false
	}
	if b.BestExecutable == nil {
		return schema.PricePoint{}, b.BestExecutableReason, true
	}
	return *b.BestExecutable, "", true
}

// MarketBestExecutable returns the best executable price across every
// betslip of a market. When nothing is executable the shared reason is
// returned, or mixed_issues when the betslips disagree.
func (s *Store) MarketBestExecutable(eventID, betType string) (schema.PricePoint, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byMarket.Get(eventID + "|" + betType)
	if len(ids) == 0 {
		return schema.PricePoint{}, "", false
	}

	var best *schema.PricePoint
	reason := ""
	for _, id := range ids {
		b, ok := s.byID[id]
		if !ok {
			continue
		}
		if b.BestExecutable != nil {
			if best == nil || s.better(*b.BestExecutable, *best) {
				p := *b.BestExecutable
				best = &p
			}
			continue
		}
		switch reason {
		case "", b.BestExecutableReason:
			reason = b.BestExecutableReason
		default:
			reason = "mixed_issues"
		}
	}
	if best != nil {
		return *best, "", true
	}
	return schema.PricePoint{}, reason, true
}

// AllPrices returns the best top price per bookie across a market,
// sorted best first.
func (s *Store) AllPrices(eventID, betType string) []schema.PricePoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	one := decimal.NewFromInt(1)
	best := make(map[string]schema.PricePoint)
	for _, id := range s.byMarket.Get(eventID + "|" + betType) {
		b, ok := s.byID[id]
		if !ok {
			continue
		}
		for bookie, q := range b.Quotes {
			if q.TopPrice.LessThanOrEqual(one) {
				continue
			}
			point := schema.PricePoint{
				Bookie:      bookie,
				Price:       q.TopPrice,
				Available:   q.TopAvailable,
				UpdatedAtTs: q.LastUpdateTs,
			}
			if cur, ok := best[bookie]; !ok || point.Price.GreaterThan(cur.Price) {
				best[bookie] = point
			}
		}
	}

	out := make([]schema.PricePoint, 0, len(best))
	for _, point := range best {
		out = append(out, point)
	}
	sort.Slice(out, func(i, j int) bool { return s.better(out[i], out[j]) })
	return out
}

// BookieLiquidity is one bookie's share of the liquidity at a price.
type BookieLiquidity struct {
	Bookie string
	Total  decimal.Decimal
}

// LiquidityAtPrice sums the stake available at or above a target price
// across a market, counting only live, fresh quotes in the required
// currency. The breakdown is sorted deepest first.
func (s *Store) LiquidityAtPrice(eventID, betType string, target decimal.Decimal, now int64) (decimal.Decimal, []BookieLiquidity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	one := decimal.NewFromInt(1)
	freshness := s.opt.QuoteFreshness.Milliseconds()
	byBookie := make(map[string]decimal.Decimal)

	for _, id := range s.byMarket.Get(eventID + "|" + betType) {
		b, ok := s.byID[id]
		if !ok {
			continue
		}
		for bookie, q := range b.Quotes {
			if q.StatusCode != "success" {
				continue
			}
			if now-q.LastUpdateTs > freshness {
				continue
			}
			if q.TopAvailable.Currency != "" && q.TopAvailable.Currency != s.opt.RequiredCurrency {
				continue
			}
			for _, tier := range q.Tiers {
				if tier.Price.LessThanOrEqual(one) || tier.Price.LessThan(target) {
					continue
				}
				byBookie[bookie] = byBookie[bookie].Add(tier.Max)
			}
		}
	}

	var total decimal.Decimal
	breakdown := make([]BookieLiquidity, 0, len(byBookie))
	for bookie, amount := range byBookie {
		total = total.Add(amount)
		breakdown = append(breakdown, BookieLiquidity{Bookie: bookie, Total: amount})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if !breakdown[i].Total.Equal(breakdown[j].Total) {
			return breakdown[i].Total.GreaterThan(breakdown[j].Total)
		}
		return breakdown[i].Bookie < breakdown[j].Bookie
	})
	return total, breakdown
}

func copyBetslip(b *schema.Betslip) schema.Betslip {
	out := *b
	out.Quotes = make(map[string]*schema.BookieQuote, len(b.Quotes))
	for bookie, q := range b.Quotes {
		quote := *q
		quote.Tiers = append([]schema.PriceTier(nil), q.Tiers...)
		out.Quotes[bookie] = &quote
	}
	if b.BestOdds != nil {
		p := *b.BestOdds
		out.BestOdds = &p
	}
	if b.BestExecutable != nil {
		p := *b.BestExecutable
		out.BestExecutable = &p
	}
	if b.FilteredReasons != nil {
		out.FilteredReasons = make(map[string]string, len(b.FilteredReasons))
		for k, v := range b.FilteredReasons {
			out.FilteredReasons[k] = v
		}
	}
	return out
}
