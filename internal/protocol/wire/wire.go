package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"netauth/internal/domain"
)

var (
	// ErrUnknownMessage reports an envelope without a message type.
	ErrUnknownMessage = errors.New("unknown message type")
	// ErrTypeMismatch reports an envelope decoded as the wrong message.
	ErrTypeMismatch = errors.New("message type mismatch")
)

// Encode wraps msg in an envelope.
func Encode(msg domain.Message) (domain.Envelope, error) {
	if msg == nil {
		return domain.Envelope{}, errors.New("nil message")
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("encode %s: %w", msg.MessageType(), err)
	}
	return domain.Envelope{Type: msg.MessageType(), Payload: payload}, nil
}

// Decode unmarshals env into T after checking env names T.
func Decode[T domain.Message](env domain.Envelope) (T, error) {
	var msg T
	if env.Type != msg.MessageType() {
		return msg, fmt.Errorf("%w: got %q, want %q", ErrTypeMismatch, env.Type, msg.MessageType())
	}
	if err := json.Unmarshal(env.Payload, &msg); err != nil {
		return msg, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return msg, nil
}

// Marshal frames env as JSON bytes for a transport.
func Marshal(env domain.Envelope) ([]byte, error) {
	if env.Type == "" {
		return nil, fmt.Errorf("%w: empty type", ErrUnknownMessage)
	}
	return json.Marshal(env)
}

// Unmarshal parses a JSON-framed envelope.
func Unmarshal(b []byte) (domain.Envelope, error) {
	var env domain.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return domain.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return domain.Envelope{}, fmt.Errorf("%w: empty type", ErrUnknownMessage)
	}
	return env, nil
}
