package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"netauth/internal/client"
	"netauth/internal/crypto"
	"netauth/internal/domain"
	"netauth/internal/server"
	"netauth/internal/services/account"
	"netauth/internal/services/session"
	"netauth/internal/store"
	"netauth/internal/telemetry"
	"netauth/internal/transport/ws"
)

// ServerWire bundles the server-side dependency graph.
type ServerWire struct {
	Config    Config
	Log       zerolog.Logger
	Store     domain.AccountStore
	Accounts  *account.Service
	Sessions  *session.Registry
	Transport *ws.Server
	Server    *server.Server
	Metrics   *telemetry.Metrics
	Registry  *prometheus.Registry
	HTTP      *http.Server

	closers []io.Closer
}

// NewServer constructs the server dependency graph from cfg.
func NewServer(cfg Config, log zerolog.Logger) (*ServerWire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &ServerWire{Config: cfg, Log: log}

	st, closer, err := OpenAccountStore(cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		w.closers = append(w.closers, closer)
	}
	w.Store = st

	hasher, err := crypto.NewHasher(crypto.Algorithm(cfg.HashAlgorithm))
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	w.Accounts, err = account.New(st, hasher,
		account.WithLogger(log.With().Str("component", "account").Logger()),
		account.WithRehashOnLogin(cfg.RehashOnLogin),
	)
	if err != nil {
		_ = w.Close()
		return nil, err
	}

	var gatherer prometheus.Gatherer
	if cfg.Metrics {
		w.Registry = prometheus.NewRegistry()
		w.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		w.Metrics = telemetry.NewMetrics(w.Registry)
		gatherer = w.Registry
	}

	w.Sessions = session.NewRegistry()
	w.Transport = ws.NewServer(log.With().Str("component", "transport").Logger())
	w.Server = server.New(w.Transport, w.Accounts,
		server.WithLogger(log.With().Str("component", "server").Logger()),
		server.WithMetrics(w.Metrics),
		server.WithRegistry(w.Sessions),
		server.WithRequestTimeout(cfg.RequestTimeout),
		server.WithInboxSize(cfg.InboxSize),
	)
	w.Transport.Serve(w.Server)

	gin.SetMode(gin.ReleaseMode)
	w.HTTP = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           w.Transport.Router(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return w, nil
}

// OpenAccountStore opens the configured account backend. The closer is nil
// for backends without resources.
func OpenAccountStore(cfg Config) (domain.AccountStore, io.Closer, error) {
	switch cfg.StoreDriver {
	case StoreMemory:
		return store.NewMemoryAccountStore(), nil, nil
	case StoreFile:
		if err := os.MkdirAll(cfg.StorePath, 0o700); err != nil {
			return nil, nil, err
		}
		return store.NewAccountFileStore(cfg.StorePath), nil, nil
	case StoreSQLite:
		if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
			return nil, nil, err
		}
		s, err := store.OpenAccountSQLStore(cfg.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Close releases the store.
func (w *ServerWire) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	w.closers = nil
	return first
}

// ClientWire bundles the client-side dependencies.
type ClientWire struct {
	Config   Config
	Log      zerolog.Logger
	Profiles domain.ProfileStore
}

// NewClient constructs the client dependency graph from cfg.
func NewClient(cfg Config, log zerolog.Logger) (*ClientWire, error) {
	if cfg.Home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cfg.Home = filepath.Join(dir, ".netauth")
	}
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}
	return &ClientWire{
		Config:   cfg,
		Log:      log,
		Profiles: store.NewProfileFileStore(cfg.Home),
	}, nil
}

// Dial connects to the configured server and completes the handshake.
func (w *ClientWire) Dial(ctx context.Context) (*client.Client, error) {
	conn, err := ws.Dial(ctx, w.Config.ServerURL)
	if err != nil {
		return nil, err
	}
	c := client.New(conn, client.WithLogger(w.Log))
	if err := c.Handshake(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Remember records a successful login for serverURL.
func (w *ClientWire) Remember(username domain.Username, at time.Time) error {
	return w.Profiles.SaveAccountProfile(domain.AccountProfile{
		ServerURL: w.Config.ServerURL,
		Username:  username,
		LastLogin: at.UTC(),
	})
}
