package interfaces

import (
	"context"

	domaintypes "netauth/internal/domain/types"
)

// Transport is the server's view of the message transport.
type Transport interface {
	Send(ctx context.Context, id domaintypes.ConnectionID, envelope domaintypes.Envelope) error
	// Disconnect closes the connection. The transport still reports the
	// closure through ConnectionHandler.OnDisconnect.
	Disconnect(id domaintypes.ConnectionID, reason string) error
}

// ConnectionHandler receives connection lifecycle notifications and
// inbound messages from a transport.
type ConnectionHandler interface {
	OnConnect(id domaintypes.ConnectionID)
	OnMessage(id domaintypes.ConnectionID, envelope domaintypes.Envelope)
	OnDisconnect(id domaintypes.ConnectionID)
}

// ClientConn is the client's end of one connection.
type ClientConn interface {
	Send(ctx context.Context, envelope domaintypes.Envelope) error
	Receive(ctx context.Context) (domaintypes.Envelope, error)
	Close() error
}
