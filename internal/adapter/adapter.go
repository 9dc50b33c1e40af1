// Package adapter normalizes upstream feed payloads into schema types.
// The feed is loosely typed: money appears as a bare number, a
// ["CCY", amount] pair, or a {currency, amount} object; timestamps as
// ISO strings or unix seconds; ids as strings or numbers. Everything is
// pinned down here so the stores never see a raw payload.
package adapter

import (
	"encoding/json"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// isoToMillis parses an ISO 8601 timestamp to unix milliseconds.
// Returns 0 when empty or unparseable.
func isoToMillis(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}

// parseMoney decodes the three upstream money shapes. Unset or
// unrecognized input yields a zero amount in the fallback currency.
func parseMoney(raw json.RawMessage, fallbackCurrency string) schema.Money {
	if len(raw) == 0 {
		return schema.Money{Currency: fallbackCurrency}
	}

	var pair []json.RawMessage
	if err := sonic.ConfigFastest.Unmarshal(raw, &pair); err == nil && len(pair) == 2 {
		var currency string
		var amount decimal.Decimal
		if sonic.ConfigFastest.Unmarshal(pair[0], &currency) != nil {
			currency = fallbackCurrency
		}
		_ = sonic.ConfigFastest.Unmarshal(pair[1], &amount)
		return schema.Money{Currency: currency, Amount: amount}
	}

	var obj struct {
		Currency string          `json:"currency"`
		Amount   decimal.Decimal `json:"amount"`
	}
	if err := sonic.ConfigFastest.Unmarshal(raw, &obj); err == nil && obj.Currency != "" {
		return schema.Money{Currency: obj.Currency, Amount: obj.Amount}
	}

	var amount decimal.Decimal
	if err := sonic.ConfigFastest.Unmarshal(raw, &amount); err == nil {
		return schema.Money{Currency: fallbackCurrency, Amount: amount}
	}
	return schema.Money{Currency: fallbackCurrency}
}

// parseAmount extracts just the numeric part of a money value.
func parseAmount(raw json.RawMessage) decimal.Decimal {
	return parseMoney(raw, "").Amount
}

// parseID accepts string or numeric ids and returns the string form.
func parseID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := sonic.ConfigFastest.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := sonic.ConfigFastest.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
