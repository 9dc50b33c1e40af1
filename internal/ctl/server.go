// Package ctl serves read-only queries over a local unix socket. The
// protocol is one JSON request per line, one JSON response per line;
// mutations are not offered.
package ctl

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/query"
	"main/pkg/uds"
)

// Request is one control query.
type Request struct {
	Op      string `json:"op"`
	ID      string `json:"id,omitempty"`
	EventID string `json:"event_id,omitempty"`
	BetType string `json:"bet_type,omitempty"`
	Price   string `json:"price,omitempty"`
}

// Response wraps every answer. Error is set instead of Data on failure.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Server answers control queries from the query engine.
type Server struct {
	srv *uds.Server
	eng *query.Engine
}

// New builds a control server on the given socket path.
func New(path string, eng *query.Engine) (*Server, error) {
	srv, err := uds.NewServer(path)
	if err != nil {
		return nil, err
	}
	return &Server{srv: srv, eng: eng}, nil
}

// Serve accepts connections until the context ends. Each connection gets
// its own goroutine; a broken client never stops the loop.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.srv.Listen(); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = s.srv.Close()
	}()

	for {
		conn, err := s.srv.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

// Close stops the listener.
func (s *Server) Close() error {
	return s.srv.Close()
}

func (s *Server) handleConn(conn *net.UnixConn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	enc := json.NewEncoder(conn)
	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			_ = enc.Encode(Response{Error: "bad request: " + err.Error()})
			continue
		}
		if err := enc.Encode(s.answer(req)); err != nil {
			logs.Warnf("ctl write response: %+v", err)
			return
		}
	}
}

func (s *Server) answer(req Request) Response {
	switch req.Op {
	case "stats":
		return Response{OK: true, Data: s.eng.Stats()}

	case "order":
		view, ok := s.eng.OrderWithBets(req.ID)
		if !ok {
			return Response{Error: "unknown order"}
		}
		return Response{OK: true, Data: view}

	case "slippage":
		sum, ok := s.eng.OrderSlippage(req.ID)
		if !ok {
			return Response{Error: "unknown order"}
		}
		return Response{OK: true, Data: sum}

	case "best_price":
		point, reason, ok := s.eng.BestExecutable(req.EventID, req.BetType)
		if !ok {
			return Response{Error: "unknown market"}
		}
		if reason != "" {
			return Response{OK: true, Data: map[string]string{"reason": reason}}
		}
		return Response{OK: true, Data: point}

	case "all_prices":
		return Response{OK: true, Data: s.eng.AllPrices(req.EventID, req.BetType)}

	case "liquidity":
		target, err := decimal.NewFromString(req.Price)
		if err != nil {
			return Response{Error: "bad price: " + err.Error()}
		}
		total, breakdown := s.eng.LiquidityAtPrice(req.EventID, req.BetType, target, time.Now().UnixMilli())
		return Response{OK: true, Data: map[string]any{"total": total, "breakdown": breakdown}}

	case "balance":
		snap, ok := s.eng.Balance.Get()
		if !ok {
			return Response{Error: "no balance yet"}
		}
		return Response{OK: true, Data: snap}

	case "event":
		view, ok := s.eng.EventMarkets(req.ID)
		if !ok {
			return Response{Error: "unknown event"}
		}
		return Response{OK: true, Data: view}

	default:
		return Response{Error: "unknown op: " + req.Op}
	}
}
