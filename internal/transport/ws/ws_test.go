package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"netauth/internal/domain"
	"netauth/internal/protocol/wire"
	"netauth/internal/transport/ws"
)

func init() { gin.SetMode(gin.TestMode) }

// echo answers every message with the same envelope and records lifecycle
// events.
type echo struct {
	srv *ws.Server

	mu   sync.Mutex
	ids  []domain.ConnectionID
	gone chan domain.ConnectionID
}

func (e *echo) OnConnect(id domain.ConnectionID) {
	e.mu.Lock()
	e.ids = append(e.ids, id)
	e.mu.Unlock()
}

func (e *echo) OnMessage(id domain.ConnectionID, env domain.Envelope) {
	if env.Type == "close_me" {
		_ = e.srv.Disconnect(id, "asked to")
		return
	}
	_ = e.srv.Send(context.Background(), id, env)
}

func (e *echo) OnDisconnect(id domain.ConnectionID) { e.gone <- id }

func start(t *testing.T) (*echo, *httptest.Server) {
	t.Helper()
	srv := ws.NewServer(zerolog.Nop())
	h := &echo{srv: srv, gone: make(chan domain.ConnectionID, 4)}
	srv.Serve(h)
	hs := httptest.NewServer(srv.Router(prometheus.NewRegistry()))
	t.Cleanup(hs.Close)
	return h, hs
}

func wsURL(hs *httptest.Server) string {
	return "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
}

func TestRoundTrip(t *testing.T) {
	h, hs := start(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := ws.Dial(ctx, wsURL(hs))
	require.NoError(t, err)

	want := domain.Envelope{Type: domain.TypeHandshakeRequest, Payload: json.RawMessage(`{"public_key":"AAEC"}`)}
	require.NoError(t, c.Send(ctx, want))
	got, err := c.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, want.Type, got.Type)
	require.JSONEq(t, string(want.Payload), string(got.Payload))

	require.NoError(t, c.Close())
	select {
	case id := <-h.gone:
		h.mu.Lock()
		require.Equal(t, h.ids[0], id)
		h.mu.Unlock()
	case <-ctx.Done():
		t.Fatal("OnDisconnect not called after client close")
	}
}

func TestServerDisconnect(t *testing.T) {
	h, hs := start(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := ws.Dial(ctx, wsURL(hs))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Send(ctx, domain.Envelope{Type: "close_me", Payload: json.RawMessage(`{}`)}))
	_, err = c.Receive(ctx)
	require.ErrorIs(t, err, ws.ErrClosed)

	select {
	case <-h.gone:
	case <-ctx.Done():
		t.Fatal("OnDisconnect not called after server disconnect")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, hs := start(t)

	resp, err := http.Get(hs.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)

	mresp, err := http.Get(hs.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	require.Equal(t, http.StatusOK, mresp.StatusCode)
}

func TestSendUnknownConnection(t *testing.T) {
	srv := ws.NewServer(zerolog.Nop())
	err := srv.Send(context.Background(), "nope", domain.Envelope{Type: domain.TypeAuthResponse})
	require.ErrorIs(t, err, ws.ErrUnknownConnection)
	require.ErrorIs(t, srv.Disconnect("nope", ""), ws.ErrUnknownConnection)
}

func TestSendRejectsUntypedEnvelope(t *testing.T) {
	h, hs := start(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := ws.Dial(ctx, wsURL(hs))
	require.NoError(t, err)
	defer c.Close()

	err = c.Send(ctx, domain.Envelope{Payload: json.RawMessage(`{}`)})
	require.ErrorIs(t, err, wire.ErrUnknownMessage)

	// The connection is still usable.
	want := domain.Envelope{Type: domain.TypeAuthResponse, Payload: json.RawMessage(`{"authenticated":false}`)}
	require.NoError(t, c.Send(ctx, want))
	got, err := c.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, want.Type, got.Type)
	h.mu.Lock()
	require.Len(t, h.ids, 1)
	h.mu.Unlock()
}
