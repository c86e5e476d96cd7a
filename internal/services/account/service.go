package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"netauth/internal/crypto"
	"netauth/internal/domain"
)

var (
	// ErrInvalidUsername is returned by ValidateUsername.
	ErrInvalidUsername = fmt.Errorf("username must be 1 to %d bytes of printable UTF-8", domain.MaxUsernameLength)
	// ErrInvalidEmail is returned by ValidateEmail.
	ErrInvalidEmail = fmt.Errorf("email must be a plain address of at most %d bytes", domain.MaxEmailLength)
	// ErrEmptyPassword is returned for a zero-length password.
	ErrEmptyPassword = errors.New("password is empty")
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithRehashOnLogin upgrades hashes made with another scheme after a
// successful login.
func WithRehashOnLogin(enabled bool) Option {
	return func(s *Service) { s.rehash = enabled }
}

// WithClock overrides time.Now for account creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service implements domain.AccountService.
type Service struct {
	store  domain.AccountStore
	hasher *crypto.Hasher
	log    zerolog.Logger
	rehash bool
	now    func() time.Time

	// dummy is verified against when no account matches, so a missing
	// username costs about as much as a wrong password.
	dummy domain.PasswordHash
}

// New returns an account service backed by store.
func New(store domain.AccountStore, hasher *crypto.Hasher, opts ...Option) (*Service, error) {
	s := &Service{
		store:  store,
		hasher: hasher,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	dummy, err := hasher.Hash([]byte("netauth-placeholder"))
	if err != nil {
		return nil, fmt.Errorf("prepare placeholder hash: %w", err)
	}
	s.dummy = dummy
	return s, nil
}

// Register creates an account unless the username or email is taken.
func (s *Service) Register(ctx context.Context, c domain.Credentials) (bool, error) {
	if err := ValidateUsername(string(c.Username)); err != nil {
		s.log.Debug().Err(err).Msg("registration rejected")
		return false, nil
	}
	if err := ValidateEmail(c.Email); err != nil {
		s.log.Debug().Err(err).Msg("registration rejected")
		return false, nil
	}
	if len(c.Password) == 0 {
		s.log.Debug().Err(ErrEmptyPassword).Msg("registration rejected")
		return false, nil
	}

	_, found, err := s.store.FindAccount(ctx, domain.AccountQuery{Username: c.Username, Email: c.Email})
	if err != nil {
		return false, fmt.Errorf("%w: find account: %v", domain.ErrStoreUnavailable, err)
	}
	if found {
		s.log.Info().Str("result", "conflict").Msg("registration rejected")
		return false, nil
	}

	ph, err := s.hasher.Hash(c.Password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	acct := &domain.Account{
		Username:      c.Username,
		Email:         c.Email,
		PasswordHash:  ph.Hash,
		PasswordSalt:  ph.Salt,
		HashAlgorithm: ph.Algorithm,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.InsertAccount(ctx, acct); err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			// Lost a race with a concurrent registration.
			return false, nil
		}
		return false, fmt.Errorf("%w: insert account: %v", domain.ErrStoreUnavailable, err)
	}
	s.log.Info().Uint64("account", acct.ID).Msg("account registered")
	return true, nil
}

// Authenticate reports whether the password matches the stored hash of
// the named account. A missing account and a wrong password are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, c domain.Credentials) (bool, error) {
	if c.Username == "" || len(c.Password) == 0 {
		s.hasher.Verify(c.Password, s.dummy)
		return false, nil
	}
	acct, found, err := s.store.FindAccount(ctx, domain.AccountQuery{Username: c.Username})
	if err != nil {
		return false, fmt.Errorf("%w: find account: %v", domain.ErrStoreUnavailable, err)
	}
	if !found {
		s.hasher.Verify(c.Password, s.dummy)
		return false, nil
	}

	stored := domain.PasswordHash{Algorithm: acct.HashAlgorithm, Hash: acct.PasswordHash, Salt: acct.PasswordSalt}
	if !s.hasher.Verify(c.Password, stored) {
		return false, nil
	}
	if s.rehash && s.hasher.NeedsRehash(stored) {
		s.upgrade(ctx, acct, c.Password)
	}
	return true, nil
}

// upgrade rehashes the password with the current scheme. Failure leaves the
// old hash in place and does not affect the login.
func (s *Service) upgrade(ctx context.Context, acct domain.Account, password []byte) {
	ph, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn().Err(err).Uint64("account", acct.ID).Msg("rehash failed")
		return
	}
	from := acct.HashAlgorithm
	acct.PasswordHash, acct.PasswordSalt, acct.HashAlgorithm = ph.Hash, ph.Salt, ph.Algorithm
	if err := s.store.UpdateAccount(ctx, acct); err != nil {
		s.log.Warn().Err(err).Uint64("account", acct.ID).Msg("rehash not stored")
		return
	}
	s.log.Info().Uint64("account", acct.ID).Str("from", from).Str("to", ph.Algorithm).Msg("password rehashed")
}

// ValidateUsername checks length and character rules for a username.
func ValidateUsername(u string) error {
	if len(u) == 0 || len(u) > domain.MaxUsernameLength || !utf8.ValidString(u) {
		return ErrInvalidUsername
	}
	if strings.TrimSpace(u) != u {
		return ErrInvalidUsername
	}
	for _, r := range u {
		if !unicode.IsPrint(r) {
			return ErrInvalidUsername
		}
	}
	return nil
}

// ValidateEmail checks that e is a bare address within the length limit.
func ValidateEmail(e string) error {
	if len(e) == 0 || len(e) > domain.MaxEmailLength {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e {
		return ErrInvalidEmail
	}
	return nil
}

// Compile-time assertion that Service implements domain.AccountService.
var _ domain.AccountService = (*Service)(nil)
