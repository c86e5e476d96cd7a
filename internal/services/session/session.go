package session

import (
	"errors"
	"sync"

	"netauth/internal/crypto"
	"netauth/internal/domain"
)

var (
	// ErrOutOfOrder reports a message the current state does not accept.
	ErrOutOfOrder = errors.New("message out of order")
	// ErrDuplicateAuthentication reports a credential request on a connection
	// that is already authenticated.
	ErrDuplicateAuthentication = errors.New("connection already authenticated")
	// ErrReplay reports a credential request whose sequence is not above the
	// last one accepted, or is too large to number a nonce.
	ErrReplay = errors.New("replayed request sequence")
	// ErrClosed reports use of a closed session.
	ErrClosed = errors.New("session closed")
)

// State is the protocol phase of a connection.
type State int

const (
	New State = iota
	HandshakeComplete
	Authenticated
	Closed
)

func (s State) String() string {
	switch s {
	case New:
		return "new"
	case HandshakeComplete:
		return "handshake_complete"
	case Authenticated:
		return "authenticated"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the per-connection state machine.
type Session struct {
	id domain.ConnectionID

	mu           sync.Mutex
	state        State
	secret       domain.SharedSecret
	lastSequence uint64
}

// NewSession returns a session in state New.
func NewSession(id domain.ConnectionID) *Session {
	return &Session{id: id}
}

// ID returns the connection id the session belongs to.
func (s *Session) ID() domain.ConnectionID { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CompleteHandshake stores secret and moves New -> HandshakeComplete.
// A connection performs exactly one handshake.
func (s *Session) CompleteHandshake(secret domain.SharedSecret) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case New:
	case Closed:
		return ErrClosed
	default:
		return ErrOutOfOrder
	}
	if secret.IsZero() {
		return crypto.ErrKeyExchange
	}
	s.secret = secret
	s.state = HandshakeComplete
	return nil
}

// BeginCredentialRequest admits a register or auth request numbered seq and
// returns a copy of the shared secret to open it with. The sequence is not
// consumed until CommitSequence; an unauthenticated request must not move it.
func (s *Session) BeginCredentialRequest(seq uint64) (domain.SharedSecret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.admit(seq); err != nil {
		return domain.SharedSecret{}, err
	}
	return s.secret, nil
}

// CommitSequence records seq as the last accepted request once its
// ciphertext has been opened.
func (s *Session) CommitSequence(seq uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.admit(seq); err != nil {
		return err
	}
	s.lastSequence = seq
	return nil
}

func (s *Session) admit(seq uint64) error {
	switch s.state {
	case HandshakeComplete:
	case New:
		return ErrOutOfOrder
	case Authenticated:
		return ErrDuplicateAuthentication
	default:
		return ErrClosed
	}
	// Sequences above MaxSequence would wrap the nonce counter.
	if seq <= s.lastSequence || seq > crypto.MaxSequence {
		return ErrReplay
	}
	return nil
}

// MarkAuthenticated moves HandshakeComplete -> Authenticated.
func (s *Session) MarkAuthenticated() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case HandshakeComplete:
		s.state = Authenticated
		return nil
	case Authenticated:
		return ErrDuplicateAuthentication
	case Closed:
		return ErrClosed
	default:
		return ErrOutOfOrder
	}
}

// Close wipes the secret and moves the session to Closed. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	crypto.WipeSecret(&s.secret)
	s.state = Closed
}
