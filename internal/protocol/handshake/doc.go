// Package handshake implements the key agreement that opens every
// connection and the sealing of credential fields under the agreed key.
//
// # Flow
//
// Client:
//  1. Generate an ephemeral X25519 key pair and send the public half.
//  2. Receive the server's public key and 80 bytes of handshake material
//     (64 random bytes followed by a 16-byte IV).
//  3. Derive the shared secret and discard the private key.
//
// Server:
//  1. Validate the client's public key.
//  2. Generate an ephemeral key pair, 64 random bytes and an IV.
//  3. Derive the same shared secret and reply with its public key and
//     the material.
//
// Both sides feed X25519(ephemeral, peer) into HKDF-SHA256, salted with
// the server's randomness and bound to both public keys and the IV.
//
// # Credentials
//
// Seal encrypts the username and password of one request under distinct
// nonces derived from the request's sequence number. Open reverses it.
package handshake
