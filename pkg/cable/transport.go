package cable

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// Subprotocol is the WebSocket subprotocol name requested
// during the transport handshake.
const Subprotocol = "cable"

// dialTimeout bounds the transport handshake.
const dialTimeout = 10 * time.Second

// Transport is a duplex binary channel carrying Cable frames.
// Read and Write exchange whole frames: the transport preserves
// message boundaries, the packet layer never sees partial frames.
type Transport interface {
	// Read blocks until the next inbound frame, a transport
	// failure, or context cancellation.
	Read(ctx context.Context) ([]byte, error)
	// Write sends a single outbound frame.
	Write(ctx context.Context, frame []byte) error
	// Close tears the channel down. Pending reads fail.
	Close() error
}

// Dialer opens a [Transport] to a Cable server.
type Dialer interface {
	Dial(ctx context.Context, url string) (Transport, error)
}

// WebSocketDialer opens WebSocket transports with
// the "cable" subprotocol and binary framing.
type WebSocketDialer struct {
	// HTTPClient optionally overrides the client used for the
	// WebSocket handshake. Do not set a custom timeout on it,
	// that would interfere with the long-lived connection;
	// the handshake is bounded internally.
	HTTPClient *http.Client
}

func (d *WebSocketDialer) Dial(ctx context.Context, url string) (Transport, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPClient:   d.HTTPClient,
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dial WebSocket endpoint: %w", err)
	}

	return &wsTransport{conn: conn}, nil
}

type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) Read(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := t.conn.Read(ctx)
		if err != nil {
			return nil, err
		}
		// Cable is a binary protocol; text frames are not part of it.
		if typ != websocket.MessageBinary {
			continue
		}
		return data, nil
	}
}

func (t *wsTransport) Write(ctx context.Context, frame []byte) error {
	return t.conn.Write(ctx, websocket.MessageBinary, frame)
}

func (t *wsTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "")
}
