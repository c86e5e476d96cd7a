package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"netauth/internal/app"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the authentication server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, err := app.NewServer(cfg, logger)
			if err != nil {
				return err
			}
			defer w.Close()
			return w.Run(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.ListenAddr, "listen", envString("LISTEN", cfg.ListenAddr), "listen address")
	f.StringVar(&cfg.StoreDriver, "store", envString("STORE", cfg.StoreDriver), "account store: memory, file or sqlite")
	f.StringVar(&cfg.StorePath, "store-path", envString("STORE_PATH", cfg.StorePath), "store location (default under --home)")
	f.StringVar(&cfg.HashAlgorithm, "hash", envString("HASH", cfg.HashAlgorithm), "password hash: argon2id, scrypt, pbkdf2-sha512, hmac-sha512")
	f.BoolVar(&cfg.RehashOnLogin, "rehash-on-login", envBool("REHASH_ON_LOGIN", cfg.RehashOnLogin), "upgrade hashes made with another algorithm on login")
	f.DurationVar(&cfg.RequestTimeout, "request-timeout", envDuration("REQUEST_TIMEOUT", cfg.RequestTimeout), "bound on each store-backed request")
	f.IntVar(&cfg.InboxSize, "inbox-size", envInt("INBOX_SIZE", cfg.InboxSize), "queued messages per connection")
	f.BoolVar(&cfg.Metrics, "metrics", envBool("METRICS", cfg.Metrics), "expose /metrics")
	return cmd
}
