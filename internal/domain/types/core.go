package types

// Username is the login name of an account.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// ConnectionID identifies one transport connection for its whole lifetime.
// A reconnecting peer always receives a new ConnectionID.
type ConnectionID string

// String returns the string form of the connection identifier.
func (id ConnectionID) String() string { return string(id) }

// Fingerprint is a short identifier for public keys shown in logs.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
