package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"netauth/internal/domain"
	"netauth/internal/protocol/wire"
)

// ErrUnknownConnection is returned for an id the server does not hold.
var ErrUnknownConnection = errors.New("unknown connection")

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 16 << 10
	sendQueue      = 16
)

// Server is the WebSocket domain.Transport.
type Server struct {
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.RWMutex
	handler domain.ConnectionHandler
	conns   map[domain.ConnectionID]*client
}

// NewServer returns a transport with no handler attached.
func NewServer(log zerolog.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		log:      log,
		conns:    make(map[domain.ConnectionID]*client),
	}
}

// Serve attaches the handler that receives every connection.
func (s *Server) Serve(h domain.ConnectionHandler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// Router returns the HTTP handler: /ws for the protocol, /healthz, and
// /metrics when gatherer is non-nil.
func (s *Server) Router(gatherer prometheus.Gatherer) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ws", s.handleUpgrade)
	r.GET("/healthz", func(c *gin.Context) {
		s.mu.RLock()
		n := len(s.conns)
		s.mu.RUnlock()
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": n})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

func (s *Server) handleUpgrade(c *gin.Context) {
	s.mu.RLock()
	h := s.handler
	s.mu.RUnlock()
	if h == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "not serving"})
		return
	}
	wsConn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	cl := &client{
		id:   domain.ConnectionID(uuid.NewString()),
		conn: wsConn,
		send: make(chan domain.Envelope, sendQueue),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	s.conns[cl.id] = cl
	s.mu.Unlock()

	s.log.Debug().Str("conn", cl.id.String()).Str("remote", c.Request.RemoteAddr).Msg("websocket connected")
	h.OnConnect(cl.id)
	go s.writePump(cl)
	s.readPump(h, cl)
}

// readPump runs on the request goroutine until the socket fails.
func (s *Server) readPump(h domain.ConnectionHandler, cl *client) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, cl.id)
		s.mu.Unlock()
		cl.close()
		h.OnDisconnect(cl.id)
		s.log.Debug().Str("conn", cl.id.String()).Msg("websocket disconnected")
	}()
	cl.conn.SetReadLimit(maxMessageSize)
	for {
		_, b, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Str("conn", cl.id.String()).Msg("read failed")
			}
			return
		}
		env, err := wire.Unmarshal(b)
		if err != nil {
			s.log.Warn().Err(err).Str("conn", cl.id.String()).Msg("dropping unframed message")
			continue
		}
		h.OnMessage(cl.id, env)
	}
}

func (s *Server) writePump(cl *client) {
	for {
		select {
		case env := <-cl.send:
			if err := write(cl.conn, env); err != nil {
				s.log.Debug().Err(err).Str("conn", cl.id.String()).Msg("write failed")
				cl.close()
				_ = cl.conn.Close()
				return
			}
		case <-cl.done:
			s.flush(cl)
			reason := cl.reason()
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
			_ = cl.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			_ = cl.conn.Close()
			return
		}
	}
}

// flush writes whatever is still queued without blocking for more.
func (s *Server) flush(cl *client) {
	for {
		select {
		case env := <-cl.send:
			if err := write(cl.conn, env); err != nil {
				return
			}
		default:
			return
		}
	}
}

// write frames env as one text message.
func write(conn *websocket.Conn, env domain.Envelope) error {
	b, err := wire.Marshal(env)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// Send queues env for the connection's write pump.
func (s *Server) Send(ctx context.Context, id domain.ConnectionID, env domain.Envelope) error {
	s.mu.RLock()
	cl, ok := s.conns[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, id)
	}
	select {
	case cl.send <- env:
		return nil
	case <-cl.done:
		return fmt.Errorf("%w: %s", ErrUnknownConnection, id)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect closes the connection after flushing queued responses.
func (s *Server) Disconnect(id domain.ConnectionID, reason string) error {
	s.mu.RLock()
	cl, ok := s.conns[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConnection, id)
	}
	cl.closeWith(reason)
	return nil
}

// Shutdown disconnects every connection.
func (s *Server) Shutdown() {
	s.mu.RLock()
	all := make([]*client, 0, len(s.conns))
	for _, cl := range s.conns {
		all = append(all, cl)
	}
	s.mu.RUnlock()
	for _, cl := range all {
		cl.closeWith("server shutting down")
	}
}

type client struct {
	id   domain.ConnectionID
	conn *websocket.Conn
	send chan domain.Envelope
	done chan struct{}

	once sync.Once
	mu   sync.Mutex
	why  string
}

func (c *client) closeWith(reason string) {
	c.mu.Lock()
	if c.why == "" {
		c.why = reason
	}
	c.mu.Unlock()
	c.close()
}

func (c *client) close() { c.once.Do(func() { close(c.done) }) }

func (c *client) reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.why
}

// Compile-time assertion that Server implements domain.Transport.
var _ domain.Transport = (*Server)(nil)
