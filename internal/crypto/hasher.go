package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/bytemare/hash"
	"github.com/bytemare/ksf"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/scrypt"

	"netauth/internal/domain"
)

// Algorithm names a password hashing scheme.
type Algorithm string

const (
	Argon2id     Algorithm = "argon2id"
	Scrypt       Algorithm = "scrypt"
	PBKDF2SHA512 Algorithm = "pbkdf2-sha512"
	// HMACSHA512 keys HMAC-SHA512 with a 128-byte random salt. It is the
	// scheme older deployments stored and is kept so those accounts verify.
	HMACSHA512 Algorithm = "hmac-sha512"
)

const (
	// HashBytes is the output length of every scheme.
	HashBytes = 64
	// SaltBytes is the salt length of the stretching schemes.
	SaltBytes = 32
	// HMACSaltBytes is the HMAC-SHA512 key length used as salt.
	HMACSaltBytes = 128
)

// Argon2Params tunes argon2id.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// ScryptParams tunes scrypt. N is 1<<LogN.
type ScryptParams struct {
	LogN uint8
	R    int
	P    int
}

// Hasher produces and verifies salted password hashes.
//
// The stored algorithm string records the scheme and its parameters, so
// verification keeps working after the configured scheme changes.
type Hasher struct {
	alg    Algorithm
	argon  Argon2Params
	scrypt ScryptParams
}

// HasherOption configures a Hasher.
type HasherOption func(*Hasher)

// WithArgon2Params overrides the argon2id parameters.
func WithArgon2Params(p Argon2Params) HasherOption {
	return func(h *Hasher) { h.argon = p }
}

// WithScryptParams overrides the scrypt parameters.
func WithScryptParams(p ScryptParams) HasherOption {
	return func(h *Hasher) { h.scrypt = p }
}

// NewHasher returns a Hasher that creates new hashes with alg.
func NewHasher(alg Algorithm, opts ...HasherOption) (*Hasher, error) {
	switch alg {
	case Argon2id, Scrypt, PBKDF2SHA512, HMACSHA512:
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", alg)
	}
	h := &Hasher{
		alg:    alg,
		argon:  Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4},
		scrypt: ScryptParams{LogN: 15, R: 8, P: 1},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Algorithm returns the scheme used for new hashes.
func (h *Hasher) Algorithm() Algorithm { return h.alg }

// Hash salts and hashes password with a fresh random salt.
func (h *Hasher) Hash(password []byte) (domain.PasswordHash, error) {
	saltLen := SaltBytes
	if h.alg == HMACSHA512 {
		saltLen = HMACSaltBytes
	}
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return domain.PasswordHash{}, err
	}
	descriptor := h.descriptor()
	sum, err := compute(descriptor, password, salt)
	if err != nil {
		return domain.PasswordHash{}, err
	}
	return domain.PasswordHash{Algorithm: descriptor, Hash: sum, Salt: salt}, nil
}

// Verify recomputes the hash of password with the stored salt and scheme
// and compares it in constant time.
func (h *Hasher) Verify(password []byte, stored domain.PasswordHash) bool {
	sum, err := compute(stored.Algorithm, password, stored.Salt)
	if err != nil {
		return false
	}
	defer Wipe(sum)
	return subtle.ConstantTimeCompare(sum, stored.Hash) == 1
}

// NeedsRehash reports whether stored was produced with a different scheme
// or different parameters than h uses for new hashes.
func (h *Hasher) NeedsRehash(stored domain.PasswordHash) bool {
	return stored.Algorithm != h.descriptor()
}

func (h *Hasher) descriptor() string {
	switch h.alg {
	case Argon2id:
		return fmt.Sprintf("%s$m=%d,t=%d,p=%d", Argon2id, h.argon.Memory, h.argon.Time, h.argon.Threads)
	case Scrypt:
		return fmt.Sprintf("%s$ln=%d,r=%d,p=%d", Scrypt, h.scrypt.LogN, h.scrypt.R, h.scrypt.P)
	default:
		return string(h.alg)
	}
}

func compute(descriptor string, password, salt []byte) ([]byte, error) {
	name, params, _ := strings.Cut(descriptor, "$")
	if len(salt) == 0 {
		return nil, fmt.Errorf("empty salt")
	}
	switch Algorithm(name) {
	case Argon2id:
		var p Argon2Params
		if _, err := fmt.Sscanf(params, "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
			return nil, fmt.Errorf("argon2id parameters %q: %w", params, err)
		}
		if p.Time == 0 || p.Threads == 0 {
			return nil, fmt.Errorf("argon2id parameters %q out of range", params)
		}
		return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, HashBytes), nil
	case Scrypt:
		var p ScryptParams
		if _, err := fmt.Sscanf(params, "ln=%d,r=%d,p=%d", &p.LogN, &p.R, &p.P); err != nil {
			return nil, fmt.Errorf("scrypt parameters %q: %w", params, err)
		}
		if p.LogN == 0 || p.LogN > 30 {
			return nil, fmt.Errorf("scrypt parameters %q out of range", params)
		}
		return scrypt.Key(password, salt, 1<<p.LogN, p.R, p.P, HashBytes)
	case PBKDF2SHA512:
		return ksf.PBKDF2Sha512.Get().Harden(password, salt, HashBytes), nil
	case HMACSHA512:
		return hash.FromCrypto(stdcrypto.SHA512).GetHashFunction().Hmac(password, salt), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", name)
	}
}
