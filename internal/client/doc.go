// Package client is the client side of the authentication protocol.
//
// A Client wraps one domain.ClientConn. Handshake must succeed before
// Register or Authenticate; each credential request carries a fresh
// sequence number and seals username and password under their own nonces.
package client
