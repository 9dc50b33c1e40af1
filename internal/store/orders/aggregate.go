package orders

import (
	"sort"

	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// aggregate rebuilds the four stake buckets from the full bet set of an
// order. It is a recompute, not an increment, so replayed bet updates
// cannot double-count.
func aggregate(betSet []schema.Bet) (success, inProgress, danger, unplaced []schema.StakeEntry) {
	successBy := make(map[string]decimal.Decimal)
	inProgressBy := make(map[string]decimal.Decimal)
	dangerBy := make(map[string]decimal.Decimal)
	unplacedBy := make(map[string]decimal.Decimal)

	for _, bet := range betSet {
		bookie := bet.Bookie
		if bookie == "" {
			bookie = "unknown"
		}
		switch bet.Status {
		case "done", "settled", "MATCHED":
			successBy[bookie] = successBy[bookie].Add(bet.Stake)
		case "cancelled", "rejected":
			dangerBy[bookie] = dangerBy[bookie].Add(bet.Stake)
		case "pending", "unplaced":
			unplacedBy[bookie] = unplacedBy[bookie].Add(bet.Stake)
		default:
			// "inprogress", "placing" and anything unrecognized
			inProgressBy[bookie] = inProgressBy[bookie].Add(bet.Stake)
		}
	}

	return entries(successBy), entries(inProgressBy), entries(dangerBy), entries(unplacedBy)
}

func entries(byBookie map[string]decimal.Decimal) []schema.StakeEntry {
	if len(byBookie) == 0 {
		return nil
	}
	out := make([]schema.StakeEntry, 0, len(byBookie))
	for bookie, amount := range byBookie {
		out = append(out, schema.StakeEntry{Bookie: bookie, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bookie < out[j].Bookie })
	return out
}
