package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"netauth/internal/app"
	"netauth/internal/domain"
)

func registerCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account; a successful registration also logs in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]
			if email == "" {
				return errors.New("--email is required")
			}
			pw, err := readPassword(cmd)
			if err != nil {
				return err
			}

			cw, err := app.NewClient(cfg, logger)
			if err != nil {
				return err
			}
			ctx, cancel := clientContext()
			defer cancel()

			c, err := cw.Dial(ctx)
			if err != nil {
				return err
			}
			defer c.Close()

			res, err := c.Register(ctx, username, pw, email)
			if err != nil {
				return err
			}
			if !res.Registered {
				return errors.New("registration refused")
			}
			if res.Authenticated {
				if err := cw.Remember(domain.Username(username), time.Now()); err != nil {
					logger.Warn().Err(err).Msg("could not save profile")
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (logged in: %t)\n", username, res.Authenticated)
			return nil
		},
	}
	addClientFlags(cmd)
	cmd.Flags().StringVar(&email, "email", envString("EMAIL", ""), "account email (required)")
	return cmd
}
