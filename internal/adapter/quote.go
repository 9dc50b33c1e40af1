package adapter

import (
	"encoding/json"
	"errors"

	"github.com/bytedance/sonic"

	"main/internal/schema"
)

var ErrIncompleteQuote = errors.New("quote missing required identity fields")

type quotePayload struct {
	BetslipID string          `json:"betslip_id"`
	EventID   string          `json:"event_id"`
	BetType   string          `json:"bet_type"`
	Sport     string          `json:"sport"`
	Bookie    string          `json:"bookie"`
	Username  string          `json:"username"`
	Status    json.RawMessage `json:"status"`
	UpdatedAt int64           `json:"updated_at"` // unix ms, legacy
	PriceList []struct {
		Effective struct {
			Price json.RawMessage `json:"price"`
			Min   json.RawMessage `json:"min"`
			Max   json.RawMessage `json:"max"`
		} `json:"effective"`
	} `json:"price_list"`
}

// NormalizeQuote builds a QuoteUpdate from one pmm record. ts is the api
// envelope timestamp in unix seconds; when the payload carries neither
// that nor a legacy updated_at, now is the update time. The currency is
// read from the price list money pairs, defaulting when absent.
func NormalizeQuote(raw json.RawMessage, ts float64, defaultCurrency string, now int64) (schema.QuoteUpdate, error) {
	var p quotePayload
	if err := sonic.ConfigFastest.Unmarshal(raw, &p); err != nil {
		return schema.QuoteUpdate{}, err
	}
	if p.BetslipID == "" || p.Bookie == "" || p.EventID == "" || p.BetType == "" {
		return schema.QuoteUpdate{}, ErrIncompleteQuote
	}

	u := schema.QuoteUpdate{
		BetslipID:  p.BetslipID,
		EventID:    p.EventID,
		BetType:    p.BetType,
		Sport:      p.Sport,
		Bookie:     p.Bookie,
		Username:   p.Username,
		StatusCode: normalizeStatus(p.Status),
		Currency:   defaultCurrency,
	}

	switch {
	case ts > 0:
		u.Ts = int64(ts * 1000)
	case p.UpdatedAt > 0:
		u.Ts = p.UpdatedAt
	default:
		u.Ts = now
	}

	u.Tiers = make([]schema.PriceTier, 0, len(p.PriceList))
	for _, item := range p.PriceList {
		minMoney := parseMoney(item.Effective.Min, defaultCurrency)
		maxMoney := parseMoney(item.Effective.Max, defaultCurrency)
		if maxMoney.Currency != "" {
			u.Currency = maxMoney.Currency
		}
		u.Tiers = append(u.Tiers, schema.PriceTier{
			Price: parseDecimal(item.Effective.Price),
			Min:   minMoney.Amount,
			Max:   maxMoney.Amount,
		})
	}
	return u, nil
}
