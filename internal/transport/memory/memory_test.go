package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"netauth/internal/domain"
	"netauth/internal/transport/memory"
)

// echo replies to every message with the same envelope.
type echo struct {
	net *memory.Network

	mu           sync.Mutex
	connected    []domain.ConnectionID
	disconnected []domain.ConnectionID
}

func (e *echo) OnConnect(id domain.ConnectionID) {
	e.mu.Lock()
	e.connected = append(e.connected, id)
	e.mu.Unlock()
}

func (e *echo) OnMessage(id domain.ConnectionID, env domain.Envelope) {
	_ = e.net.Send(context.Background(), id, env)
}

func (e *echo) OnDisconnect(id domain.ConnectionID) {
	e.mu.Lock()
	e.disconnected = append(e.disconnected, id)
	e.mu.Unlock()
}

func TestNetwork_RoundTripAndLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	n := memory.NewNetwork()
	h := &echo{net: n}
	n.Serve(h)

	c, err := n.Dial(ctx)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if len(h.connected) != 1 || h.connected[0] != c.ID() {
		t.Fatal("OnConnect not called with the connection id")
	}

	want := domain.Envelope{Type: domain.TypeAuthResponse, Payload: []byte(`{"authenticated":true}`)}
	if err := c.Send(ctx, want); err != nil {
		t.Fatalf("Send: %v", err)
	}
	got, err := c.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if got.Type != want.Type || string(got.Payload) != string(want.Payload) {
		t.Fatalf("got %+v", got)
	}

	if err := n.Disconnect(c.ID(), "test"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if len(h.disconnected) != 1 {
		t.Fatal("OnDisconnect not called")
	}
	if _, err := c.Receive(ctx); !errors.Is(err, memory.ErrClosed) {
		t.Fatalf("Receive after disconnect: want ErrClosed, got %v", err)
	}
	if err := c.Send(ctx, want); !errors.Is(err, memory.ErrClosed) {
		t.Fatalf("Send after disconnect: want ErrClosed, got %v", err)
	}
	if err := n.Disconnect(c.ID(), "again"); !errors.Is(err, memory.ErrClosed) {
		t.Fatalf("second Disconnect: want ErrClosed, got %v", err)
	}
	if n.Len() != 0 {
		t.Fatalf("Len = %d", n.Len())
	}
}

func TestConn_ReceiveHonoursContext(t *testing.T) {
	n := memory.NewNetwork()
	n.Serve(&echo{net: n})
	c, err := n.Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want DeadlineExceeded, got %v", err)
	}
}

func TestDial_NoHandler(t *testing.T) {
	if _, err := memory.NewNetwork().Dial(context.Background()); err == nil {
		t.Fatal("Dial succeeded without a handler")
	}
}
