package crypto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// BlockSize is the padding granularity of credential fields.
	BlockSize = 16
	// NonceBytes is the length of the nonce Encrypt and Decrypt expect.
	NonceBytes = chacha20poly1305.NonceSizeX
	// MaxSequence is the largest request number FieldNonce can encode
	// without two requests sharing a nonce.
	MaxSequence = math.MaxUint64 >> 1
)

var (
	// ErrMalformedCiphertext reports a pad count or ciphertext length that
	// cannot have come from Encrypt.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
	// ErrDecrypt reports a wrong key or a modified ciphertext.
	ErrDecrypt = errors.New("ciphertext authentication failed")
	// ErrEmptyPlaintext is returned by Encrypt for a zero-length input.
	ErrEmptyPlaintext = errors.New("empty plaintext")
)

// Field selects one of the credential fields sealed under a request.
type Field uint8

const (
	FieldUsername Field = iota
	FieldPassword
)

// Label is the associated data bound to a field's ciphertext.
func (f Field) Label() []byte {
	switch f {
	case FieldUsername:
		return []byte("username")
	case FieldPassword:
		return []byte("password")
	default:
		return []byte("unknown")
	}
}

// FieldNonce builds the 24-byte nonce for field of the request numbered seq:
// iv || big-endian(seq*2 + field). Distinct (seq, field) pairs with
// seq <= MaxSequence never share a nonce under one handshake key.
func FieldNonce(iv [IVBytes]byte, seq uint64, field Field) []byte {
	nonce := make([]byte, NonceBytes)
	copy(nonce, iv[:])
	binary.BigEndian.PutUint64(nonce[IVBytes:], seq<<1|uint64(field&1))
	return nonce
}

// PadCount returns how many bytes pad n up to a multiple of BlockSize.
func PadCount(n int) int {
	return (BlockSize - n%BlockSize) % BlockSize
}

// Encrypt zero-pads plaintext to a multiple of BlockSize and seals it with
// XChaCha20-Poly1305. The returned ciphertext length is always a positive
// multiple of BlockSize; padCount must travel with it.
func Encrypt(key [KeyBytes]byte, nonce, plaintext, aad []byte) (ciphertext []byte, padCount int, err error) {
	if len(plaintext) == 0 {
		return nil, 0, ErrEmptyPlaintext
	}
	if len(nonce) != NonceBytes {
		return nil, 0, fmt.Errorf("nonce is %d bytes, want %d", len(nonce), NonceBytes)
	}
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, 0, err
	}
	padCount = PadCount(len(plaintext))
	padded := make([]byte, len(plaintext)+padCount)
	copy(padded, plaintext)
	defer Wipe(padded)

	return aead.Seal(nil, nonce, padded, boundAAD(aad, padCount)), padCount, nil
}

// boundAAD appends the pad count so it is authenticated with the ciphertext.
func boundAAD(aad []byte, padCount int) []byte {
	out := make([]byte, 0, len(aad)+1)
	out = append(out, aad...)
	return append(out, byte(padCount))
}

// Decrypt validates the framing, opens the ciphertext and strips padCount
// bytes from the end of the last block.
func Decrypt(key [KeyBytes]byte, nonce, ciphertext []byte, padCount int, aad []byte) ([]byte, error) {
	if padCount < 0 || padCount >= BlockSize {
		return nil, fmt.Errorf("%w: pad count %d out of range", ErrMalformedCiphertext, padCount)
	}
	if len(ciphertext) < BlockSize+chacha20poly1305.Overhead || len(ciphertext)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedCiphertext, len(ciphertext))
	}
	if len(nonce) != NonceBytes {
		return nil, fmt.Errorf("%w: nonce is %d bytes", ErrMalformedCiphertext, len(nonce))
	}
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, err
	}
	padded, err := aead.Open(nil, nonce, ciphertext, boundAAD(aad, padCount))
	if err != nil {
		return nil, ErrDecrypt
	}
	plain := make([]byte, len(padded)-padCount)
	copy(plain, padded)
	Wipe(padded)
	return plain, nil
}
