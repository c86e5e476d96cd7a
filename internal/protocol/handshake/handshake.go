package handshake

import (
	"crypto/rand"
	"fmt"

	"netauth/internal/crypto"
	"netauth/internal/domain"
)

// MaterialBytes is the length of HandshakeResponse.RandomBytes.
const MaterialBytes = crypto.RandomBytes + crypto.IVBytes

// Initiator holds the client's ephemeral key between the request and the
// server's response.
type Initiator struct {
	kp   domain.KeyPair
	done bool
}

// Initiate starts a handshake and returns the request to send.
func Initiate() (*Initiator, domain.HandshakeRequest, error) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, domain.HandshakeRequest{}, fmt.Errorf("generate ephemeral key: %w", err)
	}
	return &Initiator{kp: kp}, domain.HandshakeRequest{PublicKey: kp.Public.Slice()}, nil
}

// Fingerprint identifies the ephemeral public key sent in the request.
func (i *Initiator) Fingerprint() domain.Fingerprint {
	return crypto.FingerprintX25519(i.kp.Public)
}

// Complete derives the shared secret from the server's response. The
// ephemeral private key is wiped whether or not derivation succeeds, so an
// Initiator completes at most once.
func (i *Initiator) Complete(resp domain.HandshakeResponse) (domain.SharedSecret, error) {
	if i.done {
		return domain.SharedSecret{}, fmt.Errorf("%w: handshake already completed", crypto.ErrKeyExchange)
	}
	i.done = true
	defer crypto.WipeKeyPair(&i.kp)

	peer, err := crypto.ParsePublicKey(resp.PublicKey)
	if err != nil {
		return domain.SharedSecret{}, err
	}
	mat, err := ParseMaterial(resp.RandomBytes)
	if err != nil {
		return domain.SharedSecret{}, err
	}
	t := crypto.Transcript{ClientPublic: i.kp.Public, ServerPublic: peer, IV: mat.IV}
	return crypto.DeriveSharedSecret(i.kp.Private, peer, mat.Random[:], t)
}

// Respond validates a client's request and returns the reply together with
// the connection's shared secret.
func Respond(req domain.HandshakeRequest) (domain.HandshakeResponse, domain.SharedSecret, error) {
	peer, err := crypto.ParsePublicKey(req.PublicKey)
	if err != nil {
		return domain.HandshakeResponse{}, domain.SharedSecret{}, err
	}
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return domain.HandshakeResponse{}, domain.SharedSecret{}, fmt.Errorf("generate ephemeral key: %w", err)
	}
	defer crypto.WipeKeyPair(&kp)

	material := make([]byte, MaterialBytes)
	if _, err := rand.Read(material); err != nil {
		return domain.HandshakeResponse{}, domain.SharedSecret{}, fmt.Errorf("handshake randomness: %w", err)
	}
	mat, err := ParseMaterial(material)
	if err != nil {
		return domain.HandshakeResponse{}, domain.SharedSecret{}, err
	}
	t := crypto.Transcript{ClientPublic: peer, ServerPublic: kp.Public, IV: mat.IV}
	secret, err := crypto.DeriveSharedSecret(kp.Private, peer, mat.Random[:], t)
	if err != nil {
		return domain.HandshakeResponse{}, domain.SharedSecret{}, err
	}
	return domain.HandshakeResponse{PublicKey: kp.Public.Slice(), RandomBytes: material}, secret, nil
}

// ParseMaterial splits the 80-byte handshake material into randomness and IV.
func ParseMaterial(b []byte) (domain.HandshakeMaterial, error) {
	var m domain.HandshakeMaterial
	if len(b) != MaterialBytes {
		return m, fmt.Errorf("%w: handshake material is %d bytes, want %d", crypto.ErrKeyExchange, len(b), MaterialBytes)
	}
	copy(m.Random[:], b[:crypto.RandomBytes])
	copy(m.IV[:], b[crypto.RandomBytes:])
	return m, nil
}
