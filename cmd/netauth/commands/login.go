package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"netauth/internal/app"
	"netauth/internal/domain"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Authenticate; the username defaults to the last one used on --server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cw, err := app.NewClient(cfg, logger)
			if err != nil {
				return err
			}

			var username domain.Username
			if len(args) == 1 {
				username = domain.Username(args[0])
			} else {
				p, ok, err := cw.Profiles.LastAccountProfile(cfg.ServerURL)
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("no saved account for this server; pass a username")
				}
				username = p.Username
			}

			pw, err := readPassword(cmd)
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

			ok, err := c.Authenticate(ctx, username.String(), pw)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("authentication failed")
			}
			if err := cw.Remember(username, time.Now()); err != nil {
				logger.Warn().Err(err).Msg("could not save profile")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", username)
			return nil
		},
	}
	addClientFlags(cmd)
	return cmd
}
