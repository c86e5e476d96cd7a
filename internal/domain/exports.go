package domain

import (
	"errors"

	interfaces "netauth/internal/domain/interfaces"
	types "netauth/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Username          = types.Username
	ConnectionID      = types.ConnectionID
	Fingerprint       = types.Fingerprint
	X25519Public      = types.X25519Public
	X25519Private     = types.X25519Private
	KeyPair           = types.KeyPair
	HandshakeMaterial = types.HandshakeMaterial
	SharedSecret      = types.SharedSecret
	Account           = types.Account
	AccountQuery      = types.AccountQuery
	AccountProfile    = types.AccountProfile
	PasswordHash      = types.PasswordHash
	Credentials       = types.Credentials
	MessageType       = types.MessageType
	Envelope          = types.Envelope
	Message           = types.Message
	HandshakeRequest  = types.HandshakeRequest
	HandshakeResponse = types.HandshakeResponse
	RegisterRequest   = types.RegisterRequest
	RegisterResponse  = types.RegisterResponse
	AuthRequest       = types.AuthRequest
	AuthResponse      = types.AuthResponse
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	AccountStore      = interfaces.AccountStore
	ProfileStore      = interfaces.ProfileStore
	AccountService    = interfaces.AccountService
	Transport         = interfaces.Transport
	ConnectionHandler = interfaces.ConnectionHandler
	ClientConn        = interfaces.ClientConn
)

// Message types.
const (
	TypeHandshakeRequest  = types.TypeHandshakeRequest
	TypeHandshakeResponse = types.TypeHandshakeResponse
	TypeRegisterRequest   = types.TypeRegisterRequest
	TypeRegisterResponse  = types.TypeRegisterResponse
	TypeAuthRequest       = types.TypeAuthRequest
	TypeAuthResponse      = types.TypeAuthResponse
)

// Account field limits.
const (
	MaxUsernameLength = types.MaxUsernameLength
	MaxEmailLength    = types.MaxEmailLength
	MaxHashLength     = types.MaxHashLength
	MaxSaltLength     = types.MaxSaltLength
)

var (
	// ErrStoreUnavailable wraps any failure of an AccountStore call.
	ErrStoreUnavailable = errors.New("account store unavailable")
	// ErrAccountExists is returned by stores when a username or email is taken.
	ErrAccountExists = errors.New("account already exists")
)
