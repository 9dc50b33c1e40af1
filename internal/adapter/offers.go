package adapter

import (
	"encoding/json"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// ParseFlatOffers decodes an offers_hcap / offers_odds payload:
// {"<group>": [<lineID>, [["h", 1.86], ["a", 1.88], ...]], ...}
func ParseFlatOffers(raw json.RawMessage) (map[string]schema.OfferLine, error) {
	var groups map[string]json.RawMessage
	if err := sonic.ConfigFastest.Unmarshal(raw, &groups); err != nil {
		return nil, err
	}

	out := make(map[string]schema.OfferLine, len(groups))
	for group, lineRaw := range groups {
		var line []json.RawMessage
		if err := sonic.ConfigFastest.Unmarshal(lineRaw, &line); err != nil || len(line) < 2 {
			continue
		}
		odds, err := parseOddsPairs(line[1])
		if err != nil {
			continue
		}
		out[group] = schema.OfferLine{LineID: parseID(line[0]), Odds: odds}
	}
	return out, nil
}

// ParseDeepOffers decodes an offers_event payload:
// {"<group>": [[<lineID>, [["h", 1.86], ...]], ...], ...}
func ParseDeepOffers(raw json.RawMessage) (map[string]map[string]schema.Odds, error) {
	var groups map[string][]json.RawMessage
	if err := sonic.ConfigFastest.Unmarshal(raw, &groups); err != nil {
		return nil, err
	}

	out := make(map[string]map[string]schema.Odds, len(groups))
	for group, linesRaw := range groups {
		lines := make(map[string]schema.Odds, len(linesRaw))
		for _, lineRaw := range linesRaw {
			var line []json.RawMessage
			if err := sonic.ConfigFastest.Unmarshal(lineRaw, &line); err != nil || len(line) < 2 {
				continue
			}
			odds, err := parseOddsPairs(line[1])
			if err != nil {
				continue
			}
			lines[parseID(line[0])] = odds
		}
		out[group] = lines
	}
	return out, nil
}

// parseOddsPairs decodes [["h", 1.86], ["a", 1.88]] side/price pairs.
func parseOddsPairs(raw json.RawMessage) (schema.Odds, error) {
	var pairs [][]json.RawMessage
	if err := sonic.ConfigFastest.Unmarshal(raw, &pairs); err != nil {
		return nil, err
	}
	odds := make(schema.Odds, len(pairs))
	for _, pair := range pairs {
		if len(pair) < 2 {
			continue
		}
		var side string
		if sonic.ConfigFastest.Unmarshal(pair[0], &side) != nil {
			continue
		}
		var price decimal.Decimal
		if sonic.ConfigFastest.Unmarshal(pair[1], &price) != nil {
			continue
		}
		odds[side] = price
	}
	return odds, nil
}
