package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"netauth/internal/domain"
	"netauth/internal/protocol/wire"
)

// ErrClosed is returned by a closed ClientConn.
var ErrClosed = errors.New("websocket closed")

// ClientConn is the client end of a WebSocket connection.
type ClientConn struct {
	conn *websocket.Conn

	wmu sync.Mutex

	recv chan domain.Envelope
	done chan struct{}
	once sync.Once
	err  error
}

// Dial connects to a server's /ws endpoint, e.g. ws://127.0.0.1:8080/ws.
func Dial(ctx context.Context, url string) (*ClientConn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxMessageSize)
	c := &ClientConn{
		conn: conn,
		recv: make(chan domain.Envelope, sendQueue),
		done: make(chan struct{}),
	}
	go c.readPump()
	return c, nil
}

func (c *ClientConn) readPump() {
	defer close(c.recv)
	for {
		_, b, err := c.conn.ReadMessage()
		if err != nil {
			c.err = err
			return
		}
		env, err := wire.Unmarshal(b)
		if err != nil {
			continue
		}
		select {
		case c.recv <- env:
		case <-c.done:
			return
		}
	}
}

// Send writes env as one text frame.
func (c *ClientConn) Send(ctx context.Context, env domain.Envelope) error {
	b, err := wire.Marshal(env)
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return nil
}

// Receive returns the next envelope from the server.
func (c *ClientConn) Receive(ctx context.Context) (domain.Envelope, error) {
	select {
	case env, ok := <-c.recv:
		if !ok {
			return domain.Envelope{}, fmt.Errorf("%w: %v", ErrClosed, c.err)
		}
		return env, nil
	case <-ctx.Done():
		return domain.Envelope{}, ctx.Err()
	}
}

// Close sends a close frame and releases the socket.
func (c *ClientConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.wmu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		c.wmu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// Compile-time assertion that ClientConn implements domain.ClientConn.
var _ domain.ClientConn = (*ClientConn)(nil)
