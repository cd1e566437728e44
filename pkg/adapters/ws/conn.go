// Package ws carries protocol frames over a WebSocket connection,
// implementing ports.Transport for both the dialing and the accepting
// side.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/puppetwire/marionette/pkg/ports"
)

// Conn wraps a WebSocket connection as a frame transport. One text
// message is one frame.
type Conn struct {
	conn *websocket.Conn

	// gorilla allows at most one concurrent writer.
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an already established WebSocket connection.
func NewConn(conn *websocket.Conn) *Conn {
	return &Conn{conn: conn}
}

// Dial connects to a WebSocket endpoint (ws:// or wss://).
func Dial(ctx context.Context, url string) (*Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ws dial %s: %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("ws dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return NewConn(conn), nil
}

// Receive blocks until the next text frame arrives. A context deadline
// is applied as the read deadline; cancelling the context does not
// interrupt a read already in progress, Close does.
func (c *Conn) Receive(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return "", err
		}
	}

	for {
		msgType, payload, err := c.conn.ReadMessage()
		if err != nil {
			if isClosed(err) {
				return "", ports.ErrTransportClosed
			}
			return "", fmt.Errorf("ws receive: %w", err)
		}
		if msgType != websocket.TextMessage {
			// Binary and control frames are not part of the protocol.
			continue
		}
		return string(payload), nil
	}
}

// Send delivers one text frame.
func (c *Conn) Send(ctx context.Context, frame string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		if isClosed(err) {
			return ports.ErrTransportClosed
		}
		return fmt.Errorf("ws send: %w", err)
	}
	return nil
}

// Close tears down the connection, unblocking any pending Receive.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func isClosed(err error) bool {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return true
	}
	return errors.Is(err, websocket.ErrCloseSent)
}

// Upgrader accepts incoming WebSocket connections on an HTTP endpoint.
type Upgrader struct {
	upgrader websocket.Upgrader
}

// NewUpgrader creates an Upgrader that accepts any origin. The
// protocol has no browser surface, so origin checks add nothing here.
func NewUpgrader() *Upgrader {
	return &Upgrader{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Upgrade hijacks the HTTP request into a frame transport.
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	conn, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("ws upgrade: %w", err)
	}
	return NewConn(conn), nil
}
