package schema

// QuoteUpdate is one bookie's normalized price-maker update for a betslip.
// Tiers carry the full parsed price list; the store decides what to keep.
type QuoteUpdate struct {
	BetslipID string
	EventID   string
	BetType   string
	Sport     string

	Bookie     string
	Username   string
	StatusCode string
	Currency   string

	Tiers []PriceTier

	Ts int64 // unix ms, upstream update time
}
