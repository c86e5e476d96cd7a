// Package session tracks the protocol state of each live connection.
//
// A Session moves New -> HandshakeComplete -> Authenticated and ends in
// Closed. It owns the connection's shared secret and the highest credential
// request sequence seen so far. The Registry maps connection ids to
// sessions and is passed explicitly to whoever needs it.
package session
