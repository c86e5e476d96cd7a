package handshake

import (
	"errors"
	"fmt"

	"netauth/internal/crypto"
	"netauth/internal/domain"
)

// ErrNoSecret is returned when sealing or opening without a shared secret.
var ErrNoSecret = errors.New("no shared secret")

// Sealed is the encrypted form of one request's username and password.
type Sealed struct {
	Username         []byte
	UsernamePadCount int
	Password         []byte
	PasswordPadCount int
}

// Seal encrypts username and password for the request numbered seq.
func Seal(secret domain.SharedSecret, seq uint64, username, password []byte) (Sealed, error) {
	if secret.IsZero() {
		return Sealed{}, ErrNoSecret
	}
	u, upad, err := crypto.Encrypt(secret.Key, crypto.FieldNonce(secret.IV, seq, crypto.FieldUsername), username, crypto.FieldUsername.Label())
	if err != nil {
		return Sealed{}, fmt.Errorf("seal username: %w", err)
	}
	p, ppad, err := crypto.Encrypt(secret.Key, crypto.FieldNonce(secret.IV, seq, crypto.FieldPassword), password, crypto.FieldPassword.Label())
	if err != nil {
		return Sealed{}, fmt.Errorf("seal password: %w", err)
	}
	return Sealed{Username: u, UsernamePadCount: upad, Password: p, PasswordPadCount: ppad}, nil
}

// Open decrypts both fields of s. The caller owns the returned slices and
// should wipe the password when done.
func Open(secret domain.SharedSecret, seq uint64, s Sealed) (username, password []byte, err error) {
	if secret.IsZero() {
		return nil, nil, ErrNoSecret
	}
	username, err = crypto.Decrypt(secret.Key, crypto.FieldNonce(secret.IV, seq, crypto.FieldUsername), s.Username, s.UsernamePadCount, crypto.FieldUsername.Label())
	if err != nil {
		return nil, nil, fmt.Errorf("open username: %w", err)
	}
	password, err = crypto.Decrypt(secret.Key, crypto.FieldNonce(secret.IV, seq, crypto.FieldPassword), s.Password, s.PasswordPadCount, crypto.FieldPassword.Label())
	if err != nil {
		crypto.Wipe(username)
		return nil, nil, fmt.Errorf("open password: %w", err)
	}
	return username, password, nil
}

// RegisterRequest builds the wire message for a registration.
func (s Sealed) RegisterRequest(email string, seq uint64) domain.RegisterRequest {
	return domain.RegisterRequest{
		Username:         s.Username,
		UsernamePadCount: s.UsernamePadCount,
		Password:         s.Password,
		PasswordPadCount: s.PasswordPadCount,
		Email:            email,
		Sequence:         seq,
	}
}

// AuthRequest builds the wire message for an authentication attempt.
func (s Sealed) AuthRequest(seq uint64) domain.AuthRequest {
	return domain.AuthRequest{
		Username:         s.Username,
		UsernamePadCount: s.UsernamePadCount,
		Password:         s.Password,
		PasswordPadCount: s.PasswordPadCount,
		Sequence:         seq,
	}
}

// FromRegister extracts the sealed fields of a registration.
func FromRegister(r domain.RegisterRequest) Sealed {
	return Sealed{r.Username, r.UsernamePadCount, r.Password, r.PasswordPadCount}
}

// FromAuth extracts the sealed fields of an authentication attempt.
func FromAuth(r domain.AuthRequest) Sealed {
	return Sealed{r.Username, r.UsernamePadCount, r.Password, r.PasswordPadCount}
}
