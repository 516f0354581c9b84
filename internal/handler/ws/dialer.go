package ws

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Interface guard
var _ Conn = (*websocket.Conn)(nil)

// Conn is the slice of *websocket.Conn the manager drives.
// ReadMessage is only ever called from the session's reader goroutine;
// WriteMessage only from the owner. WriteControl and Close are safe from either.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPingHandler(h func(appData string) error)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Dialer opens a streaming connection to endpoint.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// websocketDialer adapts gorilla's dialer to the Dialer contract.
type websocketDialer struct {
	dialer *websocket.Dialer
}

// NewDialer returns a Dialer with a bounded opening handshake.
func NewDialer(handshakeTimeout time.Duration) Dialer {
	return &websocketDialer{
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (d *websocketDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake: %s: %w", resp.Status, err)
		}
		return nil, err
	}
	return conn, nil
}
