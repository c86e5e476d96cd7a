package types

import "encoding/json"

// MessageType names a wire message.
type MessageType string

// Wire message types.
const (
	TypeHandshakeRequest  MessageType = "handshake_request"
	TypeHandshakeResponse MessageType = "handshake_response"
	TypeRegisterRequest   MessageType = "register_request"
	TypeRegisterResponse  MessageType = "register_response"
	TypeAuthRequest       MessageType = "auth_request"
	TypeAuthResponse      MessageType = "auth_response"
)

// Envelope is the framing every transport carries.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Message is implemented by every payload type.
type Message interface {
	MessageType() MessageType
}

// HandshakeRequest carries the client's ephemeral public key.
type HandshakeRequest struct {
	PublicKey []byte `json:"public_key"`
}

// HandshakeResponse carries the server's ephemeral public key and 80 bytes
// of handshake material: 64 random bytes followed by the 16-byte IV.
type HandshakeResponse struct {
	PublicKey   []byte `json:"public_key"`
	RandomBytes []byte `json:"random_bytes"`
}

// RegisterRequest carries encrypted credentials and a plaintext email.
type RegisterRequest struct {
	Username         []byte `json:"username"`
	UsernamePadCount int    `json:"username_pad_count"`
	Password         []byte `json:"password"`
	PasswordPadCount int    `json:"password_pad_count"`
	Email            string `json:"email"`
	Sequence         uint64 `json:"sequence"`
}

// RegisterResponse reports whether an account was created.
type RegisterResponse struct {
	Registered bool `json:"registered"`
}

// AuthRequest carries encrypted credentials.
type AuthRequest struct {
	Username         []byte `json:"username"`
	UsernamePadCount int    `json:"username_pad_count"`
	Password         []byte `json:"password"`
	PasswordPadCount int    `json:"password_pad_count"`
	Sequence         uint64 `json:"sequence"`
}

// AuthResponse reports whether the credentials were accepted.
type AuthResponse struct {
	Authenticated bool `json:"authenticated"`
}

func (HandshakeRequest) MessageType() MessageType  { return TypeHandshakeRequest }
func (HandshakeResponse) MessageType() MessageType { return TypeHandshakeResponse }
func (RegisterRequest) MessageType() MessageType   { return TypeRegisterRequest }
func (RegisterResponse) MessageType() MessageType  { return TypeRegisterResponse }
func (AuthRequest) MessageType() MessageType       { return TypeAuthRequest }
func (AuthResponse) MessageType() MessageType      { return TypeAuthResponse }
