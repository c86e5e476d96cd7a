package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"netauth/internal/crypto"
	"netauth/internal/telemetry"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home string // config directory, e.g. $HOME/.netauth

	// Server
	ListenAddr     string        // e.g. 127.0.0.1:8080
	StoreDriver    string        // memory, file or sqlite
	StorePath      string        // file: directory; sqlite: database file. Defaults under Home.
	HashAlgorithm  string        // algorithm for new password hashes
	RehashOnLogin  bool          // upgrade hashes made with another algorithm
	RequestTimeout time.Duration // bound on each store-backed request
	InboxSize      int           // queued messages per connection
	Metrics        bool          // expose /metrics

	// Client
	ServerURL string // e.g. ws://127.0.0.1:8080/ws

	LogLevel  string
	LogFormat string
}

// DefaultConfig returns the configuration used when no flag or environment
// variable overrides a field.
func DefaultConfig() Config {
	return Config{
		ListenAddr:     "127.0.0.1:8080",
		StoreDriver:    StoreSQLite,
		HashAlgorithm:  string(crypto.Argon2id),
		RequestTimeout: 5 * time.Second,
		InboxSize:      16,
		Metrics:        true,
		ServerURL:      "ws://127.0.0.1:8080/ws",
		LogLevel:       "info",
		LogFormat:      telemetry.FormatConsole,
	}
}

// Validate rejects unknown drivers and algorithms and fills Home and
// StorePath when empty.
func (c *Config) Validate() error {
	if c.Home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.Home = filepath.Join(dir, ".netauth")
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StoreFile:
		if c.StorePath == "" {
			c.StorePath = filepath.Join(c.Home, "accounts")
		}
	case StoreSQLite:
		if c.StorePath == "" {
			c.StorePath = filepath.Join(c.Home, "accounts.db")
		}
	default:
		return fmt.Errorf("unknown store driver %q (want memory, file or sqlite)", c.StoreDriver)
	}
	if _, err := crypto.NewHasher(crypto.Algorithm(c.HashAlgorithm)); err != nil {
		return err
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.InboxSize <= 0 {
		return errors.New("inbox size must be positive")
	}
	return nil
}
