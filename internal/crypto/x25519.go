package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"netauth/internal/domain"
)

// ErrKeyExchange reports malformed or degenerate key-exchange material.
var ErrKeyExchange = errors.New("invalid key exchange material")

// GenerateKeyPair returns a fresh Curve25519 key pair.
// The private key is clamped per RFC 7748.
func GenerateKeyPair() (domain.KeyPair, error) {
	var kp domain.KeyPair
	if _, err := rand.Read(kp.Private[:]); err != nil {
		return domain.KeyPair{}, err
	}
	clamp(&kp.Private)
	pub, err := curve25519.X25519(kp.Private.Slice(), curve25519.Basepoint)
	if err != nil {
		return domain.KeyPair{}, err
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// ParsePublicKey validates a peer public key received from the wire.
func ParsePublicKey(b []byte) (domain.X25519Public, error) {
	var pub domain.X25519Public
	if len(b) != curve25519.PointSize {
		return pub, fmt.Errorf("%w: public key is %d bytes, want %d", ErrKeyExchange, len(b), curve25519.PointSize)
	}
	copy(pub[:], b)
	if isZero(pub[:]) {
		return domain.X25519Public{}, fmt.Errorf("%w: all-zero public key", ErrKeyExchange)
	}
	return pub, nil
}

// DH computes X25519 Diffie-Hellman. Low-order peer points, which would
// yield the all-zero shared value, are rejected.
func DH(priv domain.X25519Private, pub domain.X25519Public) (out [32]byte, err error) {
	secret, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrKeyExchange, err)
	}
	copy(out[:], secret)
	Wipe(secret)
	return out, nil
}

// FingerprintX25519 returns a short fingerprint of the public key.
func FingerprintX25519(pub domain.X25519Public) domain.Fingerprint {
	sum := sha256.Sum256(pub[:])
	return domain.Fingerprint(hex.EncodeToString(sum[:10]))
}

func clamp(k *domain.X25519Private) {
	kb := k[:]
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}

func isZero(b []byte) bool {
	var acc byte
	for _, v := range b {
		acc |= v
	}
	return acc == 0
}
