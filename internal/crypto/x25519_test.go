package crypto_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"netauth/internal/crypto"
	"netauth/internal/domain"
)

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return b
}

func TestDeriveSharedSecret_BothSidesAgree(t *testing.T) {
	for i := 0; i < 20; i++ {
		client, err := crypto.GenerateKeyPair()
		if err != nil {
			t.Fatalf("GenerateKeyPair: %v", err)
		}
		server, err := crypto.GenerateKeyPair()
		if err != nil {
			t.Fatalf("GenerateKeyPair: %v", err)
		}
		random := randomBytes(t, crypto.RandomBytes)
		tr := crypto.Transcript{ClientPublic: client.Public, ServerPublic: server.Public}
		copy(tr.IV[:], randomBytes(t, crypto.IVBytes))

		a, err := crypto.DeriveSharedSecret(client.Private, server.Public, random, tr)
		if err != nil {
			t.Fatalf("client derive: %v", err)
		}
		b, err := crypto.DeriveSharedSecret(server.Private, client.Public, random, tr)
		if err != nil {
			t.Fatalf("server derive: %v", err)
		}
		if a != b {
			t.Fatal("derived secrets differ")
		}
		if a.IsZero() {
			t.Fatal("derived key is zero")
		}
		if a.IV != tr.IV {
			t.Fatal("IV not carried into the secret")
		}
	}
}

func TestDeriveSharedSecret_FreshRandomnessChangesKey(t *testing.T) {
	client, _ := crypto.GenerateKeyPair()
	server, _ := crypto.GenerateKeyPair()
	tr := crypto.Transcript{ClientPublic: client.Public, ServerPublic: server.Public}

	a, err := crypto.DeriveSharedSecret(client.Private, server.Public, randomBytes(t, 64), tr)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	b, err := crypto.DeriveSharedSecret(client.Private, server.Public, randomBytes(t, 64), tr)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if bytes.Equal(a.Key[:], b.Key[:]) {
		t.Fatal("replayed public keys with new randomness produced the same key")
	}
}

func TestDeriveSharedSecret_TranscriptBinding(t *testing.T) {
	client, _ := crypto.GenerateKeyPair()
	server, _ := crypto.GenerateKeyPair()
	random := randomBytes(t, 64)
	tr := crypto.Transcript{ClientPublic: client.Public, ServerPublic: server.Public}

	a, _ := crypto.DeriveSharedSecret(client.Private, server.Public, random, tr)
	tr.IV[0] ^= 1
	b, _ := crypto.DeriveSharedSecret(client.Private, server.Public, random, tr)
	if a.Key == b.Key {
		t.Fatal("changing the transcript IV did not change the key")
	}
}

func TestDeriveSharedSecret_RejectsBadInput(t *testing.T) {
	kp, _ := crypto.GenerateKeyPair()
	good, _ := crypto.GenerateKeyPair()

	cases := []struct {
		name   string
		peer   domain.X25519Public
		random []byte
	}{
		{"short random", good.Public, make([]byte, 10)},
		{"zero random", good.Public, make([]byte, crypto.RandomBytes)},
		// The identity point yields an all-zero shared value.
		{"low order point", domain.X25519Public{}, randomBytes(t, crypto.RandomBytes)},
		{"order two point", domain.X25519Public{1}, randomBytes(t, crypto.RandomBytes)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := crypto.DeriveSharedSecret(kp.Private, tc.peer, tc.random, crypto.Transcript{})
			if !errors.Is(err, crypto.ErrKeyExchange) {
				t.Fatalf("want ErrKeyExchange, got %v", err)
			}
		})
	}
}

func TestParsePublicKey(t *testing.T) {
	kp, _ := crypto.GenerateKeyPair()
	pub, err := crypto.ParsePublicKey(kp.Public.Slice())
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if pub != kp.Public {
		t.Fatal("parsed key differs")
	}

	for _, b := range [][]byte{nil, make([]byte, 31), make([]byte, 33), make([]byte, 32)} {
		if _, err := crypto.ParsePublicKey(b); !errors.Is(err, crypto.ErrKeyExchange) {
			t.Fatalf("len %d: want ErrKeyExchange, got %v", len(b), err)
		}
	}
}

func TestGenerateKeyPair_Fresh(t *testing.T) {
	a, _ := crypto.GenerateKeyPair()
	b, _ := crypto.GenerateKeyPair()
	if a.Public == b.Public {
		t.Fatal("two key pairs share a public key")
	}
	if a.Private[0]&7 != 0 || a.Private[31]&128 != 0 || a.Private[31]&64 == 0 {
		t.Fatal("private key not clamped")
	}
}

func TestSelfTest(t *testing.T) {
	if err := crypto.SelfTest(); err != nil {
		t.Fatalf("SelfTest: %v", err)
	}
}
