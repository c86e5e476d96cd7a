// Package commands defines the netauth CLI.
//
// Commands
//
//   - serve     Run the authentication server
//   - register  Create an account on a server (logs in on success)
//   - login     Authenticate with an existing account
//   - version   Print the build version
//
// Flags fall back to NETAUTH_* environment variables, e.g. NETAUTH_HOME,
// NETAUTH_SERVER, NETAUTH_PASSWORD.
package commands
