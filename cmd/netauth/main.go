package main

import (
	"os"

	"netauth/cmd/netauth/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
