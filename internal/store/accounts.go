package store

import (
	"errors"
	"fmt"

	"netauth/internal/domain"
)

// ErrAccountNotFound is returned by UpdateAccount for an unknown id.
var ErrAccountNotFound = errors.New("account not found")

// matches reports whether a satisfies q: equal username or equal email,
// ignoring empty query fields.
func matches(a domain.Account, q domain.AccountQuery) bool {
	if q.Username != "" && a.Username == q.Username {
		return true
	}
	return q.Email != "" && a.Email == q.Email
}

// checkLimits enforces the column limits every backend shares.
func checkLimits(a domain.Account) error {
	switch {
	case a.Username == "" || len(a.Username) > domain.MaxUsernameLength:
		return fmt.Errorf("username length %d out of range", len(a.Username))
	case len(a.Email) > domain.MaxEmailLength:
		return fmt.Errorf("email length %d out of range", len(a.Email))
	case len(a.PasswordHash) == 0 || len(a.PasswordHash) > domain.MaxHashLength:
		return fmt.Errorf("password hash length %d out of range", len(a.PasswordHash))
	case len(a.PasswordSalt) == 0 || len(a.PasswordSalt) > domain.MaxSaltLength:
		return fmt.Errorf("password salt length %d out of range", len(a.PasswordSalt))
	}
	return nil
}

// conflict returns ErrAccountExists if any of existing collides with a.
func conflict(existing []domain.Account, a domain.Account) error {
	for _, e := range existing {
		if e.ID == a.ID {
			continue
		}
		if e.Username == a.Username {
			return fmt.Errorf("%w: username %q", domain.ErrAccountExists, a.Username)
		}
		if a.Email != "" && e.Email == a.Email {
			return fmt.Errorf("%w: email", domain.ErrAccountExists)
		}
	}
	return nil
}

func cloneAccount(a domain.Account) domain.Account {
	a.PasswordHash = append([]byte(nil), a.PasswordHash...)
	a.PasswordSalt = append([]byte(nil), a.PasswordSalt...)
	return a
}
