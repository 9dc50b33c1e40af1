package adapter

import (
	"encoding/json"
	"errors"

	"github.com/bytedance/sonic"

	"main/internal/schema"
)

var ErrMissingBetID = errors.New("bet id is required")

type betPayload struct {
	BetID     json.RawMessage `json:"bet_id"`
	ID        json.RawMessage `json:"id"`
	OrderID   json.RawMessage `json:"order_id"`
	EventID   string          `json:"event_id"`
	BetslipID string          `json:"betslip_id"`
	Bookie    string          `json:"bookie"`
	Status    json.RawMessage `json:"status"`

	Price          json.RawMessage `json:"price"`
	Stake          json.RawMessage `json:"stake"`
	GotPrice       json.RawMessage `json:"got_price"`
	GotStake       json.RawMessage `json:"got_stake"`
	MatchedPrice   json.RawMessage `json:"matched_price"`
	UnmatchedStake json.RawMessage `json:"unmatched_stake"`

	PlacedTs  json.RawMessage `json:"placed_ts"`
	MatchedTs json.RawMessage `json:"matched_ts"`
}

// NormalizeBet builds a Bet from either upstream bet format. got_* fields
// win over the legacy price/stake/matched_price fields when present.
func NormalizeBet(raw json.RawMessage) (schema.Bet, error) {
	var p betPayload
	if err := sonic.ConfigFastest.Unmarshal(raw, &p); err != nil {
		return schema.Bet{}, err
	}

	id := parseID(p.BetID)
	if id == "" {
		id = parseID(p.ID)
	}
	if id == "" {
		return schema.Bet{}, ErrMissingBetID
	}

	bet := schema.Bet{
		ID:             id,
		OrderID:        parseID(p.OrderID),
		EventID:        p.EventID,
		BetslipID:      p.BetslipID,
		Bookie:         p.Bookie,
		Status:         normalizeStatus(p.Status),
		UnmatchedStake: parseDecimal(p.UnmatchedStake),
		PlacedTs:       parseFlexTs(p.PlacedTs),
		MatchedTs:      parseFlexTs(p.MatchedTs),
	}

	if hasValue(p.GotPrice) {
		bet.Price = parseDecimal(p.GotPrice)
		bet.MatchedPrice = bet.Price
	} else {
		bet.Price = parseDecimal(p.Price)
		bet.MatchedPrice = parseDecimal(p.MatchedPrice)
	}
	if hasValue(p.GotStake) {
		bet.Stake = parseAmount(p.GotStake)
	} else {
		bet.Stake = parseAmount(p.Stake)
	}
	bet.MatchedStake = bet.Stake
	return bet, nil
}

// normalizeStatus flattens {"code": "done"} objects and bare strings.
func normalizeStatus(raw json.RawMessage) string {
	if !hasValue(raw) {
		return "unknown"
	}
	var s string
	if err := sonic.ConfigFastest.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Code   string `json:"code"`
		Status string `json:"status"`
	}
	if err := sonic.ConfigFastest.Unmarshal(raw, &obj); err == nil {
		if obj.Code != "" {
			return obj.Code
		}
		if obj.Status != "" {
			return obj.Status
		}
	}
	return "unknown"
}

// parseFlexTs accepts ISO strings and unix-second numbers.
func parseFlexTs(raw json.RawMessage) int64 {
	if !hasValue(raw) {
		return 0
	}
	var s string
	if err := sonic.ConfigFastest.Unmarshal(raw, &s); err == nil {
		return isoToMillis(s)
	}
	var sec float64
	if err := sonic.ConfigFastest.Unmarshal(raw, &sec); err == nil {
		return int64(sec * 1000)
	}
	return 0
}
