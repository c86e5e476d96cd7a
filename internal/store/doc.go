// Package store provides the account and profile persistence backends.
//
// Server side, three AccountStore implementations share one contract:
//   - MemoryAccountStore keeps accounts in a map (tests, ephemeral servers)
//   - AccountFileStore serialises accounts as JSON under a directory
//   - AccountSQLStore keeps accounts in SQLite through gorm
//
// Client side, ProfileFileStore remembers which account the CLI used on
// each server. All stores are safe for concurrent use.
package store
