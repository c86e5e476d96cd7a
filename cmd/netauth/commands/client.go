package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const clientTimeout = 30 * time.Second

var password string

func addClientFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&cfg.ServerURL, "server", envString("SERVER", cfg.ServerURL), "server WebSocket URL")
	f.StringVarP(&password, "password", "p", envString("PASSWORD", ""), "account password (read from stdin when empty)")
}

// readPassword returns --password, or the first line of stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	if password != "" {
		return password, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password required (-p or stdin)")
	}
	return pw, nil
}

func clientContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), clientTimeout)
}
