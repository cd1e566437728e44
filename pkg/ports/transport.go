package ports

import (
	"context"
	"errors"
)

// ErrTransportClosed is returned by Receive and Send once the
// underlying connection is gone.
var ErrTransportClosed = errors.New("transport closed")

// Transport carries protocol frames between the runtime and the peer.
// One frame is one UTF-8 JSON text message.
type Transport interface {
	// Receive blocks until the next inbound frame arrives.
	// Returns ErrTransportClosed once the connection is gone.
	Receive(ctx context.Context) (string, error)

	// Send delivers one frame to the peer.
	Send(ctx context.Context, frame string) error

	// Close tears down the connection. Safe to call more than once.
	Close() error
}
