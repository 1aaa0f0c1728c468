// Package transport provides the network transport of the session
// protocol. It owns framing and connection lifecycle, converting wire
// payloads to domain messages so the session layer only sees domain types.
package transport

import (
	"context"
	"net"

	"github.com/asmap/asdird/internal/asdir/domain"
)

// RequestHandler is how the session layer receives decoded requests. A
// returned error means no response frame is written and the connection is
// torn down; otherwise the response is written and the request kind
// decides whether the connection stays open.
type RequestHandler interface {
	Handle(ctx context.Context, req domain.Request, clientAddr net.Addr) (domain.Response, error)
}

// ServerTransport is the contract the composition root drives. A TCP
// implementation exists today; alternative stream transports would
// implement the same contract.
type ServerTransport interface {
	// Start begins accepting connections and dispatching requests to the
	// handler. It returns once the listener is up.
	Start(ctx context.Context, handler RequestHandler) error

	// Stop closes the listener and waits for in-flight connections to
	// finish their current exchange.
	Stop() error

	// Address returns the bound network address.
	Address() string
}
