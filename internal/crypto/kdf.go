package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"netauth/internal/domain"
)

const (
	// RandomBytes is the length of the server's handshake randomness.
	RandomBytes = 64
	// IVBytes is the length of the handshake IV.
	IVBytes = 16
	// KeyBytes is the length of the derived symmetric key.
	KeyBytes = 32

	handshakeLabel = "netauth/handshake/v1"
)

// Transcript binds a derived key to the public values of one handshake.
type Transcript struct {
	ClientPublic domain.X25519Public
	ServerPublic domain.X25519Public
	IV           [IVBytes]byte
}

func (t Transcript) info() []byte {
	out := make([]byte, 0, len(handshakeLabel)+2*32+IVBytes)
	out = append(out, handshakeLabel...)
	out = append(out, t.ClientPublic[:]...)
	out = append(out, t.ServerPublic[:]...)
	out = append(out, t.IV[:]...)
	return out
}

// DeriveSharedSecret combines X25519(local, peer) with the server's fresh
// randomness through HKDF-SHA256 and returns the connection's key and IV.
//
// Both sides obtain the same secret as long as they agree on the
// transcript; the randomness is the HKDF salt, the transcript the info.
func DeriveSharedSecret(
	local domain.X25519Private,
	peer domain.X25519Public,
	random []byte,
	t Transcript,
) (domain.SharedSecret, error) {
	if len(random) != RandomBytes {
		return domain.SharedSecret{}, fmt.Errorf("%w: random material is %d bytes, want %d", ErrKeyExchange, len(random), RandomBytes)
	}
	if isZero(random) {
		return domain.SharedSecret{}, fmt.Errorf("%w: all-zero random material", ErrKeyExchange)
	}
	dh, err := DH(local, peer)
	if err != nil {
		return domain.SharedSecret{}, err
	}
	defer Wipe(dh[:])

	var secret domain.SharedSecret
	r := hkdf.New(sha256.New, dh[:], random, t.info())
	if _, err := io.ReadFull(r, secret.Key[:]); err != nil {
		return domain.SharedSecret{}, err
	}
	secret.IV = t.IV
	if secret.IsZero() {
		return domain.SharedSecret{}, fmt.Errorf("%w: degenerate derived key", ErrKeyExchange)
	}
	return secret, nil
}
