package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"netauth/internal/crypto"
	"netauth/internal/domain"
	"netauth/internal/services/session"
	"netauth/internal/telemetry"
)

var (
	// ErrRunning is returned by Start on a running server.
	ErrRunning = errors.New("server already running")
	// ErrSelfTest wraps a failed startup check of the crypto primitives.
	ErrSelfTest = errors.New("crypto self test failed")
)

const (
	defaultRequestTimeout = 5 * time.Second
	defaultInboxSize      = 16
)

// handlerFunc handles one message for one connection.
type handlerFunc func(ctx context.Context, c *conn, env domain.Envelope)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option { return func(s *Server) { s.log = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m *telemetry.Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithRegistry sets the session registry. A fresh one is used otherwise.
func WithRegistry(r *session.Registry) Option { return func(s *Server) { s.sessions = r } }

// WithRequestTimeout bounds each store-backed request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithInboxSize bounds the queued messages per connection.
func WithInboxSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.inboxSize = n
		}
	}
}

// Server drives the protocol for every connection of a transport.
type Server struct {
	transport domain.Transport
	accounts  domain.AccountService
	sessions  *session.Registry
	log       zerolog.Logger
	metrics   *telemetry.Metrics
	timeout   time.Duration
	inboxSize int

	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	routes  map[domain.MessageType]handlerFunc
	conns   map[domain.ConnectionID]*conn
	actors  sync.WaitGroup
	running bool
}

// New returns a stopped server. Call Start before attaching it to a
// transport.
func New(transport domain.Transport, accounts domain.AccountService, opts ...Option) *Server {
	s := &Server{
		transport: transport,
		accounts:  accounts,
		log:       zerolog.Nop(),
		timeout:   defaultRequestTimeout,
		inboxSize: defaultInboxSize,
		conns:     make(map[domain.ConnectionID]*conn),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions == nil {
		s.sessions = session.NewRegistry()
	}
	return s
}

// Start checks the crypto primitives and installs the route table.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunning
	}
	if err := crypto.SelfTest(); err != nil {
		return fmt.Errorf("%w: %v", ErrSelfTest, err)
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.routes = map[domain.MessageType]handlerFunc{
		domain.TypeHandshakeRequest: s.handleHandshake,
		domain.TypeRegisterRequest:  s.handleRegister,
		domain.TypeAuthRequest:      s.handleAuth,
	}
	s.running = true
	s.log.Info().Int("routes", len(s.routes)).Msg("server started")
	return nil
}

// Stop removes the routes, stops every actor and closes every session.
// Connections stay open at the transport; their messages are dropped.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.routes = nil
	s.cancel()
	conns := s.conns
	s.conns = make(map[domain.ConnectionID]*conn)
	s.mu.Unlock()

	for _, c := range conns {
		c.stop()
		s.metrics.SessionClosed()
	}
	s.actors.Wait()
	s.sessions.CloseAll()
	s.log.Info().Int("connections", len(conns)).Msg("server stopped")
}

// SessionState reports the protocol state of a live connection.
func (s *Server) SessionState(id domain.ConnectionID) (session.State, bool) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return session.Closed, false
	}
	return sess.State(), true
}

// OnConnect opens a session and starts the connection's actor.
func (s *Server) OnConnect(id domain.ConnectionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		s.log.Warn().Str("conn", id.String()).Msg("connection while stopped")
		return
	}
	if old := s.conns[id]; old != nil {
		old.stop()
	}
	c := &conn{
		id:      id,
		session: s.sessions.Open(id),
		inbox:   make(chan domain.Envelope, s.inboxSize),
		done:    make(chan struct{}),
	}
	s.conns[id] = c
	s.metrics.SessionOpened()
	s.actors.Add(1)
	go s.run(s.ctx, c)
	s.log.Debug().Str("conn", id.String()).Msg("connection opened")
}

// OnMessage queues env for the connection's actor.
func (s *Server) OnMessage(id domain.ConnectionID, env domain.Envelope) {
	s.mu.RLock()
	c, ok := s.conns[id]
	s.mu.RUnlock()
	if !ok {
		s.log.Warn().Str("conn", id.String()).Str("type", string(env.Type)).Msg("message for unknown connection")
		return
	}
	select {
	case c.inbox <- env:
	case <-c.done:
	default:
		s.metrics.Violation("inbox_full")
		s.log.Warn().Str("conn", id.String()).Msg("inbox full")
		s.disconnect(c, "too many queued messages")
	}
}

// OnDisconnect stops the actor and clears this connection's session only.
func (s *Server) OnDisconnect(id domain.ConnectionID) {
	s.mu.Lock()
	c, ok := s.conns[id]
	delete(s.conns, id)
	s.mu.Unlock()
	if !ok {
		return
	}
	c.stop()
	s.sessions.Close(id)
	s.metrics.SessionClosed()
	s.log.Debug().Str("conn", id.String()).Msg("connection closed")
}

func (s *Server) run(ctx context.Context, c *conn) {
	defer s.actors.Done()
	for {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case env := <-c.inbox:
			if c.stopped() {
				return
			}
			s.dispatch(ctx, c, env)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, c *conn, env domain.Envelope) {
	s.mu.RLock()
	h, ok := s.routes[env.Type]
	s.mu.RUnlock()
	if !ok {
		s.metrics.Violation("unknown_type")
		s.log.Warn().Str("conn", c.id.String()).Str("type", string(env.Type)).Msg("no route for message")
		return
	}
	h(ctx, c, env)
}

func (s *Server) disconnect(c *conn, reason string) {
	if err := s.transport.Disconnect(c.id, reason); err != nil {
		s.log.Warn().Err(err).Str("conn", c.id.String()).Msg("disconnect failed")
	}
}

// conn is one connection's actor state.
type conn struct {
	id      domain.ConnectionID
	session *session.Session
	inbox   chan domain.Envelope
	done    chan struct{}
	once    sync.Once
}

func (c *conn) stop() { c.once.Do(func() { close(c.done) }) }

func (c *conn) stopped() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Compile-time assertion that Server implements domain.ConnectionHandler.
var _ domain.ConnectionHandler = (*Server)(nil)
