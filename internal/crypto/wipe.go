package crypto

import (
	"netauth/internal/domain"
	"netauth/internal/util/memzero"
)

// Wipe zeroes b. It is best effort; Go may have copied the data elsewhere.
func Wipe(b []byte) { memzero.Zero(b) }

// WipeSecret zeroes the key and IV of s.
func WipeSecret(s *domain.SharedSecret) {
	if s == nil {
		return
	}
	memzero.Zero(s.Key[:])
	memzero.Zero(s.IV[:])
}

// WipeKeyPair zeroes the private half of kp.
func WipeKeyPair(kp *domain.KeyPair) {
	if kp == nil {
		return
	}
	memzero.Zero(kp.Private[:])
}
