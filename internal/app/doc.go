// Package app wires application dependencies for the CLI.
//
// It builds the account store, services, transport and protocol server
// from Config for `netauth serve`, and the profile store and protocol
// client for the client commands.
package app
