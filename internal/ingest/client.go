// Package ingest is the websocket boundary: it hands raw feed frames to
// the bus and writes control frames upstream. Reconnect and handshake
// live inside the ws package.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"

	"main/internal/bus"
)

// Client wraps one feed websocket.
type Client struct {
	wss *ws.WebSocket
}

// NewClient prepares a client for the given feed url.
func NewClient(ctx context.Context, url string) *Client {
	return &Client{
		wss: ws.New(ctx, url),
	}
}

// StartWebsocket opens the connection.
func (c *Client) StartWebsocket(ctx context.Context) error {
	if err := c.wss.Start(ctx); err != nil {
		return errors.Wrap(err, "start wss")
	}

	return nil
}

// Close tears down the connection and every observer.
func (c *Client) Close() {
	c.wss.Close()
}

// ObserveFrames publishes every inbound frame to the queue until the
// context or the process shuts down. Frames the queue cannot take are
// dropped and counted by the caller through onDrop.
func (c *Client) ObserveFrames(ctx context.Context, queue *bus.Queue, onDrop func(error)) (unsubscribe func()) {
	ch, cancel := c.wss.Subscribe()

	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				raw, ok := ws.ReadMessage[json.RawMessage](m)
				if !ok {
					continue
				}

				frame := bus.Frame{Raw: raw, RecvTs: time.Now().UnixMilli()}
				if err := queue.TryPublish(frame); err != nil {
					if onDrop != nil {
						onDrop(err)
					}
					if errors.Is(err, bus.ErrQueueClosed) {
						logs.Info("close frame observer. reason: queue closed")
						return
					}
				}
			}
		}
	}()

	return cancel
}

// Send writes one control frame upstream as JSON.
func (c *Client) Send(v any) error {
	if err := c.wss.WriteJSON(v); err != nil {
		return errors.Wrap(err, "write control frame").With("payload", v)
	}

	return nil
}
