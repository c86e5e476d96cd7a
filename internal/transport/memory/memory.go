package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"netauth/internal/domain"
)

// ErrClosed is returned for operations on a closed connection.
var ErrClosed = errors.New("connection closed")

const clientBuffer = 16

// Network is both the server's domain.Transport and the clients' dialer.
type Network struct {
	mu      sync.Mutex
	handler domain.ConnectionHandler
	conns   map[domain.ConnectionID]*Conn
}

// NewNetwork returns a network with no handler attached.
func NewNetwork() *Network {
	return &Network{conns: make(map[domain.ConnectionID]*Conn)}
}

// Serve attaches the handler that receives every connection.
func (n *Network) Serve(h domain.ConnectionHandler) {
	n.mu.Lock()
	n.handler = h
	n.mu.Unlock()
}

// Dial opens a connection and notifies the handler.
func (n *Network) Dial(ctx context.Context) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.Lock()
	h := n.handler
	if h == nil {
		n.mu.Unlock()
		return nil, errors.New("no handler attached")
	}
	c := &Conn{
		id:     domain.ConnectionID(uuid.NewString()),
		net:    n,
		inbox:  make(chan domain.Envelope, clientBuffer),
		closed: make(chan struct{}),
	}
	n.conns[c.id] = c
	n.mu.Unlock()

	h.OnConnect(c.id)
	return c, nil
}

// Send delivers env to the client side of id.
func (n *Network) Send(ctx context.Context, id domain.ConnectionID, env domain.Envelope) error {
	n.mu.Lock()
	c, ok := n.conns[id]
	n.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrClosed, id)
	}
	select {
	case c.inbox <- env:
		return nil
	case <-c.closed:
		return fmt.Errorf("%w: %s", ErrClosed, id)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect closes id from the server side.
func (n *Network) Disconnect(id domain.ConnectionID, reason string) error {
	if !n.drop(id, reason) {
		return fmt.Errorf("%w: %s", ErrClosed, id)
	}
	return nil
}

// Len returns the number of open connections.
func (n *Network) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.conns)
}

func (n *Network) drop(id domain.ConnectionID, reason string) bool {
	n.mu.Lock()
	c, ok := n.conns[id]
	delete(n.conns, id)
	h := n.handler
	n.mu.Unlock()
	if !ok {
		return false
	}
	// The handler sees the disconnect before the client does.
	if h != nil {
		h.OnDisconnect(id)
	}
	c.once.Do(func() {
		c.reason = reason
		close(c.closed)
	})
	return true
}

// Conn is the client end of an in-memory connection.
type Conn struct {
	id     domain.ConnectionID
	net    *Network
	inbox  chan domain.Envelope
	closed chan struct{}
	once   sync.Once
	reason string
}

// ID returns the connection id the server sees.
func (c *Conn) ID() domain.ConnectionID { return c.id }

// Send hands env to the server's handler.
func (c *Conn) Send(ctx context.Context, env domain.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	c.net.mu.Lock()
	h := c.net.handler
	c.net.mu.Unlock()
	h.OnMessage(c.id, env)
	return nil
}

// Receive returns the next message from the server. Messages queued before
// a disconnect are still delivered.
func (c *Conn) Receive(ctx context.Context) (domain.Envelope, error) {
	select {
	case env := <-c.inbox:
		return env, nil
	default:
	}
	select {
	case env := <-c.inbox:
		return env, nil
	case <-c.closed:
		select {
		case env := <-c.inbox:
			return env, nil
		default:
		}
		return domain.Envelope{}, ErrClosed
	case <-ctx.Done():
		return domain.Envelope{}, ctx.Err()
	}
}

// Closed is closed once the connection ends from either side.
func (c *Conn) Closed() <-chan struct{} { return c.closed }

// Reason returns why the server closed the connection, once Closed is.
func (c *Conn) Reason() string {
	select {
	case <-c.closed:
		return c.reason
	default:
		return ""
	}
}

// Close ends the connection from the client side.
func (c *Conn) Close() error {
	c.net.drop(c.id, "client closed")
	return nil
}

// Compile-time assertions.
var (
	_ domain.Transport  = (*Network)(nil)
	_ domain.ClientConn = (*Conn)(nil)
)
