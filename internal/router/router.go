// Package router decodes raw feed frames and dispatches them to the
// registry. A frame is either [type, identifier, payload] for event and
// offer streams, or ["api", {ts, data}] batching order, bet, balance,
// and pmm records. Malformed input is counted and dropped; routing
// never panics and never returns an error to the transport.
package router

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/logs"

	"main/internal/obs"
	"main/internal/schema"
)

var (
	errShortFrame      = errors.New("frame has too few elements")
	errShortIdentifier = errors.New("identifier has too few elements")
	errUnknownType     = errors.New("unknown frame type")
)

// Sink receives decoded frames. The core registry implements it.
type Sink interface {
	ApplyEvent(sportPeriod, eventKey string, payload json.RawMessage) error
	ApplyFlatOffers(competitionID, sport, eventKey string, payload json.RawMessage) error
	ApplyDeepOffers(competitionID, sport, eventKey string, payload json.RawMessage) error
	ApplyOrder(payload json.RawMessage) error
	ApplyBet(payload json.RawMessage) error
	ApplyBalance(payload json.RawMessage, ts int64) error
	ApplyQuote(payload json.RawMessage, ts float64) error
}

// Router dispatches frames to a sink and records routing metrics.
type Router struct {
	sink Sink
	met  *obs.Metrics
}

// New builds a router over the given sink.
func New(sink Sink, met *obs.Metrics) *Router {
	return &Router{sink: sink, met: met}
}

// Route decodes one raw frame and applies it. recvTs is when the frame
// left the transport, unix ms.
func (r *Router) Route(raw []byte, recvTs int64) {
	start := time.Now()
	kind, err := r.route(raw, recvTs)
	r.met.ObserveRoute(kind, err == nil, time.Since(start))
	if err != nil {
		logs.Warnf("route %s frame: %+v", kind, err)
	}
}

func (r *Router) route(raw []byte, recvTs int64) (schema.Kind, error) {
	var frame []json.RawMessage
	if err := sonic.ConfigFastest.Unmarshal(raw, &frame); err != nil {
		return schema.KindUnknown, err
	}
	if len(frame) < 2 {
		return schema.KindUnknown, errShortFrame
	}

	var typ string
	if err := sonic.ConfigFastest.Unmarshal(frame[0], &typ); err != nil {
		return schema.KindUnknown, err
	}

	switch {
	case typ == "event":
		return schema.KindEvent, r.routeEvent(frame)
	case typ == "offers_event":
		return schema.KindOffersEvent, r.routeOffers(frame, r.sink.ApplyDeepOffers)
	case typ == "offers_hcap" || typ == "offers_odds":
		return schema.KindOffersFlat, r.routeOffers(frame, r.sink.ApplyFlatOffers)
	case typ == "api" || strings.HasPrefix(typ, "api_"):
		return schema.KindAPI, r.routeAPI(frame[1], recvTs)
	default:
		return schema.KindUnknown, errUnknownType
	}
}

func (r *Router) routeEvent(frame []json.RawMessage) error {
	if len(frame) < 3 {
		return errShortFrame
	}
	ident, err := identifier(frame[1], 2)
	if err != nil {
		return err
	}
	return r.sink.ApplyEvent(ident[0], ident[1], frame[2])
}

func (r *Router) routeOffers(frame []json.RawMessage, apply func(competitionID, sport, eventKey string, payload json.RawMessage) error) error {
	if len(frame) < 3 {
		return errShortFrame
	}
	ident, err := identifier(frame[1], 3)
	if err != nil {
		return err
	}
	return apply(ident[0], ident[1], ident[2], frame[2])
}

// routeAPI unpacks the batched api envelope. Individual record failures
// do not stop the batch; the first error is reported.
func (r *Router) routeAPI(raw json.RawMessage, recvTs int64) error {
	var env struct {
		Ts   float64             `json:"ts"`
		Data [][]json.RawMessage `json:"data"`
	}
	if err := sonic.ConfigFastest.Unmarshal(raw, &env); err != nil {
		return err
	}

	var firstErr error
	for _, item := range env.Data {
		if len(item) < 2 {
			continue
		}
		var innerType string
		if sonic.ConfigFastest.Unmarshal(item[0], &innerType) != nil {
			continue
		}

		var err error
		switch innerType {
		case "order":
			err = r.sink.ApplyOrder(item[1])
		case "bet":
			err = r.sink.ApplyBet(item[1])
		case "balance":
			ts := int64(env.Ts * 1000)
			if ts <= 0 {
				ts = recvTs
			}
			err = r.sink.ApplyBalance(item[1], ts)
		case "pmm":
			err = r.sink.ApplyQuote(item[1], env.Ts)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// identifier decodes the routing identifier array, tolerating numeric
// elements, and requires at least want entries.
func identifier(raw json.RawMessage, want int) ([]string, error) {
	var parts []json.RawMessage
	if err := sonic.ConfigFastest.Unmarshal(raw, &parts); err != nil {
		return nil, err
	}
	if len(parts) < want {
		return nil, errShortIdentifier
	}
	out := make([]string, len(parts))
	for i, part := range parts {
		var s string
		if err := sonic.ConfigFastest.Unmarshal(part, &s); err == nil {
			out[i] = s
			continue
		}
		var n json.Number
		if err := sonic.ConfigFastest.Unmarshal(part, &n); err == nil {
			out[i] = n.String()
		}
	}
	return out, nil
}
