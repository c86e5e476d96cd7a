// Package crypto exposes the primitives netauth's handshake relies on.
//
// Contents
//
//   - X25519 key generation and Diffie-Hellman (GenerateKeyPair, ParsePublicKey, DH)
//   - Shared-secret derivation: HKDF-SHA256 over the DH value, the server's
//     64 random bytes and the handshake transcript (DeriveSharedSecret)
//   - Credential field encryption with block padding and an explicit pad
//     count, sealed with XChaCha20-Poly1305 (Encrypt, Decrypt, FieldNonce)
//   - Salted password hashing with constant-time verification (Hasher)
//   - Best-effort memory wiping (Wipe, WipeSecret, WipeKeyPair)
//   - A startup self test (SelfTest)
//
// # Errors
//
// ErrKeyExchange, ErrMalformedCiphertext and ErrDecrypt classify every
// failure a peer can provoke; callers match them with errors.Is.
package crypto
