package types

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// KeyPair is an ephemeral X25519 key pair. The private half never leaves
// the process and is wiped when the owning handshake or session ends.
type KeyPair struct {
	Public  X25519Public
	Private X25519Private
}

// HandshakeMaterial is what the server contributes to a handshake besides
// its public key. Random and IV are fresh for every handshake.
type HandshakeMaterial struct {
	Random [64]byte
	IV     [16]byte
}

// SharedSecret is the symmetric key and IV both sides derive from a
// handshake. It lives only in memory for one connection.
type SharedSecret struct {
	Key [32]byte
	IV  [16]byte
}

// IsZero reports whether no key has been derived.
func (s SharedSecret) IsZero() bool {
	var acc byte
	for _, b := range s.Key {
		acc |= b
	}
	return acc == 0
}
