package transport

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/xcbridge/internal/logging"
)

// DefaultHandshakeTimeout bounds the websocket upgrade, not the protocol
// handshake that follows it.
const DefaultHandshakeTimeout = 10 * time.Second

// Transport is one long-lived bidirectional text-frame connection to the
// bridge. Implementations deliver discrete frames; they do not interpret
// their contents.
type Transport interface {
	// Send writes one text frame.
	Send(ctx context.Context, data []byte) error

	// Receive blocks until the next text frame arrives. It returns an error
	// once the connection is closed or broken; Close unblocks a pending
	// Receive.
	Receive(ctx context.Context) ([]byte, error)

	// Close tears down the connection. Safe to call more than once.
	Close() error
}

// Dialer opens transports to a bridge address.
type Dialer interface {
	Dial(ctx context.Context, address string) (Transport, error)
}

// WebsocketDialer dials the bridge's websocket endpoint. The bridge serves
// the control protocol on plain HTTP at the root path.
type WebsocketDialer struct {
	// HandshakeTimeout bounds the websocket upgrade. Zero means
	// DefaultHandshakeTimeout.
	HandshakeTimeout time.Duration
}

// NewWebsocketDialer creates a dialer with default settings.
func NewWebsocketDialer() *WebsocketDialer {
	return &WebsocketDialer{}
}

// Dial connects to http://<address>/ and upgrades to a websocket.
func (d *WebsocketDialer) Dial(ctx context.Context, address string) (Transport, error) {
	timeout := d.HandshakeTimeout
	if timeout == 0 {
		timeout = DefaultHandshakeTimeout
	}

	u := url.URL{Scheme: "ws", Host: address, Path: "/"}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bridge at %s: %w", address, err)
	}

	logging.LogConnection(address, "websocket_connected")
	return &websocketTransport{conn: conn, address: address}, nil
}

// websocketTransport adapts a gorilla websocket connection to the Transport
// interface. Reads and writes each have a single caller (the supervisor's
// pump and send path), matching gorilla's concurrency contract.
type websocketTransport struct {
	conn    *websocket.Conn
	address string
}

func (t *websocketTransport) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("websocket write failed: %w", err)
	}
	return nil
}

func (t *websocketTransport) Receive(ctx context.Context) ([]byte, error) {
	// A blocked read is only released by Close; context cancellation is
	// checked on entry so callers that already gave up fail fast.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("websocket read failed: %w", err)
		}
		// The bridge only speaks text frames; anything else is dropped.
		if msgType != websocket.TextMessage {
			logging.Debug("Dropping non-text websocket frame")
			continue
		}
		return data, nil
	}
}

func (t *websocketTransport) Close() error {
	logging.LogConnection(t.address, "websocket_closed")
	return t.conn.Close()
}
