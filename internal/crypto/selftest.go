package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
)

// SelfTest exercises the random source and every primitive the handshake
// needs. A failure means the process cannot serve safely.
func SelfTest() error {
	buf := make([]byte, RandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("secure random source: %w", err)
	}
	if isZero(buf) {
		return errors.New("secure random source returned zeros")
	}

	client, err := GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("key generation: %w", err)
	}
	defer WipeKeyPair(&client)
	server, err := GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("key generation: %w", err)
	}
	defer WipeKeyPair(&server)

	t := Transcript{ClientPublic: client.Public, ServerPublic: server.Public}
	copy(t.IV[:], buf[:IVBytes])
	a, err := DeriveSharedSecret(client.Private, server.Public, buf, t)
	if err != nil {
		return fmt.Errorf("key agreement: %w", err)
	}
	defer WipeSecret(&a)
	b, err := DeriveSharedSecret(server.Private, client.Public, buf, t)
	if err != nil {
		return fmt.Errorf("key agreement: %w", err)
	}
	defer WipeSecret(&b)
	if a != b {
		return errors.New("key agreement: sides disagree")
	}

	msg := []byte("self-test")
	nonce := FieldNonce(a.IV, 1, FieldUsername)
	ct, pad, err := Encrypt(a.Key, nonce, msg, FieldUsername.Label())
	if err != nil {
		return fmt.Errorf("cipher: %w", err)
	}
	pt, err := Decrypt(b.Key, nonce, ct, pad, FieldUsername.Label())
	if err != nil {
		return fmt.Errorf("cipher: %w", err)
	}
	if !bytes.Equal(pt, msg) {
		return errors.New("cipher: round trip mismatch")
	}
	return nil
}
