package schema

import "github.com/shopspring/decimal"

// Odds maps a side code ("h", "a", "over", ...) to its price.
type Odds map[string]decimal.Decimal

// OfferLine is a single priced line of one market group.
type OfferLine struct {
	LineID string
	Odds   Odds
}

// EventOffers is the flat per-event offer record: one current line per
// market group. Update policy lives in the offers store.
type EventOffers struct {
	EventKey      string
	CompetitionID string
	Sport         string
	Markets       map[string]OfferLine // market group -> current line

	UpdateCount   int
	FirstUpdateTs int64
	LastUpdateTs  int64
}

// EventOfferBook is the deep per-event record: every line id ever seen
// per market group, merged at side level and never evicted.
type EventOfferBook struct {
	EventKey string
	Book     map[string]map[string]Odds // market group -> line id -> odds

	UpdateCount   int
	FirstUpdateTs int64
	LastUpdateTs  int64
}
