package schema

// Kind identifies a routed message category.
type Kind uint16

const (
	KindUnknown Kind = iota
	KindEvent
	KindOffersFlat
	KindOffersEvent
	KindAPI
	KindOrder
	KindBet
	KindBalance
	KindQuote
)

// KindLast is the highest Kind value, for sizing counter arrays.
const KindLast = KindQuote

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindOffersFlat:
		return "offers"
	case KindOffersEvent:
		return "offers_event"
	case KindAPI:
		return "api"
	case KindOrder:
		return "order"
	case KindBet:
		return "bet"
	case KindBalance:
		return "balance"
	case KindQuote:
		return "quote"
	default:
		return "unknown"
	}
}
