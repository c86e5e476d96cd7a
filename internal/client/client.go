package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"netauth/internal/crypto"
	"netauth/internal/domain"
	"netauth/internal/protocol/handshake"
	"netauth/internal/protocol/wire"
)

var (
	// ErrHandshakeFailed reports a failed key exchange; the connection is closed.
	ErrHandshakeFailed = errors.New("handshake failed")
	// ErrHandshakeRequired reports a credential request before Handshake.
	ErrHandshakeRequired = errors.New("handshake required")
	// ErrUnexpectedMessage reports a reply of the wrong type.
	ErrUnexpectedMessage = errors.New("unexpected message")
)

// Result is the outcome of a registration. A successful registration is
// followed by an automatic login in the same round trip.
type Result struct {
	Registered    bool
	Authenticated bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// Client drives one connection.
type Client struct {
	conn domain.ClientConn
	log  zerolog.Logger

	mu     sync.Mutex
	secret domain.SharedSecret
	ready  bool
	seq    uint64
}

// New wraps conn.
func New(conn domain.ClientConn, opts ...Option) *Client {
	c := &Client{conn: conn, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handshake runs the key exchange. On failure the connection is closed.
func (c *Client) Handshake(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return fmt.Errorf("%w: already completed", ErrHandshakeFailed)
	}

	hs, req, err := handshake.Initiate()
	if err != nil {
		return c.failHandshake(err)
	}
	if err := c.send(ctx, req); err != nil {
		return c.failHandshake(err)
	}
	resp, err := receive[domain.HandshakeResponse](ctx, c.conn)
	if err != nil {
		return c.failHandshake(err)
	}
	secret, err := hs.Complete(resp)
	if err != nil {
		return c.failHandshake(err)
	}
	c.secret, c.ready = secret, true
	c.log.Debug().Str("fingerprint", hs.Fingerprint().String()).Msg("handshake complete")
	return nil
}

func (c *Client) failHandshake(err error) error {
	_ = c.conn.Close()
	c.log.Warn().Err(err).Msg("handshake failed")
	return fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
}

// Register creates an account and reports whether the server also logged
// the connection in.
func (c *Client) Register(ctx context.Context, username, password, email string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sealed, seq, err := c.seal(username, password)
	if err != nil {
		return Result{}, err
	}
	if err := c.send(ctx, sealed.RegisterRequest(email, seq)); err != nil {
		return Result{}, err
	}
	reg, err := receive[domain.RegisterResponse](ctx, c.conn)
	if err != nil {
		return Result{}, err
	}
	if !reg.Registered {
		return Result{}, nil
	}
	auth, err := receive[domain.AuthResponse](ctx, c.conn)
	if err != nil {
		return Result{Registered: true}, err
	}
	return Result{Registered: true, Authenticated: auth.Authenticated}, nil
}

// Authenticate logs in with username and password.
func (c *Client) Authenticate(ctx context.Context, username, password string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sealed, seq, err := c.seal(username, password)
	if err != nil {
		return false, err
	}
	if err := c.send(ctx, sealed.AuthRequest(seq)); err != nil {
		return false, err
	}
	resp, err := receive[domain.AuthResponse](ctx, c.conn)
	if err != nil {
		return false, err
	}
	return resp.Authenticated, nil
}

// Close wipes the shared secret and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	crypto.WipeSecret(&c.secret)
	c.ready = false
	return c.conn.Close()
}

// seal encrypts the credentials under the next sequence number.
func (c *Client) seal(username, password string) (handshake.Sealed, uint64, error) {
	if !c.ready {
		return handshake.Sealed{}, 0, ErrHandshakeRequired
	}
	pw := []byte(password)
	defer crypto.Wipe(pw)
	c.seq++
	sealed, err := handshake.Seal(c.secret, c.seq, []byte(username), pw)
	if err != nil {
		return handshake.Sealed{}, 0, err
	}
	return sealed, c.seq, nil
}

func (c *Client) send(ctx context.Context, msg domain.Message) error {
	env, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	return c.conn.Send(ctx, env)
}

func receive[T domain.Message](ctx context.Context, conn domain.ClientConn) (T, error) {
	var zero T
	env, err := conn.Receive(ctx)
	if err != nil {
		return zero, err
	}
	msg, err := wire.Decode[T](env)
	if errors.Is(err, wire.ErrTypeMismatch) {
		return zero, fmt.Errorf("%w: %v", ErrUnexpectedMessage, err)
	}
	return msg, err
}
