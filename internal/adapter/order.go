package adapter

import (
	"encoding/json"
	"errors"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"main/internal/schema"
)

var ErrMissingOrderID = errors.New("order id is required")

type orderPayload struct {
	OrderID   json.RawMessage `json:"order_id"`
	ID        json.RawMessage `json:"id"`
	EventID   string          `json:"event_id"`
	EventInfo struct {
		EventID string `json:"event_id"`
	} `json:"event_info"`
	BetslipID   string `json:"betslip_id"`
	Status      string `json:"status"`
	Closed      bool   `json:"closed"`
	CloseReason string `json:"close_reason"`

	Bookie string          `json:"bookie"`
	Price  json.RawMessage `json:"price"`
	Stake  json.RawMessage `json:"stake"`

	// current upstream format
	PlacementTime string                     `json:"placement_time"`
	ExpiryTime    string                     `json:"expiry_time"`
	BetBarValues  map[string]json.RawMessage `json:"bet_bar_values"`

	// legacy format, already aggregated
	CreatedAt  float64             `json:"created_at"` // unix seconds
	ExpiresAt  int64               `json:"expires_at"` // unix ms
	Duration   int64               `json:"duration"`
	Success    [][]json.RawMessage `json:"success"`
	InProgress [][]json.RawMessage `json:"inprogress"`
	Danger     [][]json.RawMessage `json:"danger"`
	Unplaced   [][]json.RawMessage `json:"unplaced"`
}

// NormalizeOrder builds an Order from either upstream order format. The
// current format carries ISO timestamps and a bet_bar_values object; the
// legacy one is already aggregated into per-bookie stake arrays.
func NormalizeOrder(raw json.RawMessage) (schema.Order, error) {
	var p orderPayload
	if err := sonic.ConfigFastest.Unmarshal(raw, &p); err != nil {
		return schema.Order{}, err
	}

	id := parseID(p.OrderID)
	if id == "" {
		id = parseID(p.ID)
	}
	if id == "" {
		return schema.Order{}, ErrMissingOrderID
	}

	eventID := p.EventInfo.EventID
	if eventID == "" {
		eventID = p.EventID
	}

	o := schema.Order{
		ID:          id,
		EventID:     eventID,
		BetslipID:   p.BetslipID,
		RawStatus:   p.Status,
		Closed:      p.Closed,
		CloseReason: p.CloseReason,
		Bookie:      p.Bookie,
		Price:       parseDecimal(p.Price),
		Stake:       parseAmount(p.Stake),
	}

	if parseID(p.OrderID) != "" && p.PlacementTime != "" {
		o.CreatedTs = isoToMillis(p.PlacementTime)
		o.ExpiresTs = isoToMillis(p.ExpiryTime)
		if o.CreatedTs > 0 && o.ExpiresTs > 0 {
			o.DurationSec = o.ExpiresTs/1000 - o.CreatedTs/1000
		}
		bar := parseBetBar(p.BetBarValues, p.Bookie)
		o.Success = bar["success"]
		o.InProgress = bar["inprogress"]
		o.Danger = bar["danger"]
		o.Unplaced = bar["unplaced"]
		return o, nil
	}

	o.CreatedTs = int64(p.CreatedAt * 1000)
	o.ExpiresTs = p.ExpiresAt
	o.DurationSec = p.Duration
	o.Success = parseStakeEntries(p.Success)
	o.InProgress = parseStakeEntries(p.InProgress)
	o.Danger = parseStakeEntries(p.Danger)
	o.Unplaced = parseStakeEntries(p.Unplaced)
	return o, nil
}

// parseBetBar converts the bet_bar_values object into stake buckets.
// Values are bare numbers or ["CCY", amount] pairs; zero buckets are
// omitted and the order's own bookie labels the stake.
func parseBetBar(values map[string]json.RawMessage, bookie string) map[string][]schema.StakeEntry {
	out := make(map[string][]schema.StakeEntry, 4)
	if bookie == "" {
		bookie = "unknown"
	}
	for _, bucket := range []string{"success", "inprogress", "danger", "unplaced"} {
		amount := parseAmount(values[bucket])
		if amount.IsPositive() {
			out[bucket] = []schema.StakeEntry{{Bookie: bookie, Amount: amount}}
		}
	}
	return out
}

// parseStakeEntries decodes legacy [["bf", 15], ...] bucket arrays.
func parseStakeEntries(pairs [][]json.RawMessage) []schema.StakeEntry {
	if len(pairs) == 0 {
		return nil
	}
	out := make([]schema.StakeEntry, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) < 2 {
			continue
		}
		var bookie string
		if sonic.ConfigFastest.Unmarshal(pair[0], &bookie) != nil {
			continue
		}
		out = append(out, schema.StakeEntry{Bookie: bookie, Amount: parseDecimal(pair[1])})
	}
	return out
}

// parseDecimal tolerates null and missing values.
func parseDecimal(raw json.RawMessage) decimal.Decimal {
	if !hasValue(raw) {
		return decimal.Decimal{}
	}
	var d decimal.Decimal
	_ = sonic.ConfigFastest.Unmarshal(raw, &d)
	return d
}
