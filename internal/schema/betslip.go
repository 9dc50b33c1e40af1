package schema

import "github.com/shopspring/decimal"

// PriceTier is one liquidity tier of a bookie quote.
type PriceTier struct {
	Price decimal.Decimal
	Min   decimal.Decimal
	Max   decimal.Decimal
}

// BookieQuote is one bookie's latest contribution to a betslip.
type BookieQuote struct {
	Bookie       string
	Username     string
	StatusCode   string
	TopPrice     decimal.Decimal
	TopAvailable Money
	Tiers        []PriceTier
	LastUpdateTs int64 // unix ms, upstream timestamp
}

// PricePoint is a ranked price answer derived from a betslip.
type PricePoint struct {
	Bookie      string
	Price       decimal.Decimal
	Available   Money
	UpdatedAtTs int64
}

// Betslip aggregates bookie quotes for one market side.
type Betslip struct {
	ID        string
	EventID   string
	BetType   string
	Sport     string
	MarketKey string // "<event>|<betType>"

	Quotes map[string]*BookieQuote // keyed by bookie

	BestOdds             *PricePoint
	BestExecutable       *PricePoint
	BestExecutableReason string
	FilteredReasons      map[string]string

	CreatedTs int64
	UpdatedTs int64
	ExpiresTs int64
}
