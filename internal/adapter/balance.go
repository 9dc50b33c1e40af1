package adapter

import (
	"encoding/json"

	"github.com/bytedance/sonic"

	"main/internal/schema"
)

type balancePayload struct {
	Balance     json.RawMessage `json:"balance"`
	OpenStake   json.RawMessage `json:"open_stake"`
	SmartCredit json.RawMessage `json:"smart_credit"`
}

// NormalizeBalance builds the balance snapshot from a balance record.
// ts is the api envelope timestamp converted to unix milliseconds.
func NormalizeBalance(raw json.RawMessage, ts int64, defaultCurrency string) (schema.Balance, error) {
	var p balancePayload
	if err := sonic.ConfigFastest.Unmarshal(raw, &p); err != nil {
		return schema.Balance{}, err
	}
	money := parseMoney(p.Balance, defaultCurrency)
	return schema.Balance{
		Currency:     money.Currency,
		Amount:       money.Amount,
		OpenStake:    parseAmount(p.OpenStake),
		SmartCredit:  parseAmount(p.SmartCredit),
		LastUpdateTs: ts,
	}, nil
}
