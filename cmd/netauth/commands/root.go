package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"netauth/internal/app"
	"netauth/internal/telemetry"
)

var (
	cfg    = app.DefaultConfig()
	logger zerolog.Logger
)

// Execute runs the root command.
func Execute() error {
	root := &cobra.Command{
		Use:           "netauth",
		Short:         "Encrypted credential exchange over an X25519 handshake",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = telemetry.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfg.Home, "home", envString("HOME", ""), "config dir (default ~/.netauth)")
	pf.StringVar(&cfg.LogLevel, "log-level", envString("LOG_LEVEL", cfg.LogLevel), "log level: debug, info, warn, error")
	pf.StringVar(&cfg.LogFormat, "log-format", envString("LOG_FORMAT", cfg.LogFormat), "log format: console or json")

	root.AddCommand(serveCmd(), registerCmd(), loginCmd(), versionCmd())
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return err
}

// envString reads NETAUTH_<key>, returning def when unset.
func envString(key, def string) string {
	if v, ok := os.LookupEnv("NETAUTH_" + key); ok {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	if v, ok := os.LookupEnv("NETAUTH_" + key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv("NETAUTH_" + key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv("NETAUTH_" + key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}
