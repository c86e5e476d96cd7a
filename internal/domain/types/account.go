package types

import "time"

// Field limits enforced at registration and by the stores.
const (
	MaxUsernameLength = 64
	MaxEmailLength    = 64
	MaxHashLength     = 128
	MaxSaltLength     = 128
)

// Account is a registered user as persisted by an AccountStore.
type Account struct {
	ID            uint64    `json:"id"`
	Username      Username  `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  []byte    `json:"password_hash"`
	PasswordSalt  []byte    `json:"password_salt"`
	HashAlgorithm string    `json:"hash_algorithm"`
	CreatedAt     time.Time `json:"created_at"`
}

// AccountQuery selects an account by username or email. Empty fields are
// ignored; when both are set an account matching either one is returned.
type AccountQuery struct {
	Username Username
	Email    string
}

// PasswordHash is the output of a credential hasher.
type PasswordHash struct {
	Algorithm string
	Hash      []byte
	Salt      []byte
}

// Credentials are the decrypted fields of a registration or login request.
type Credentials struct {
	Username Username
	Password []byte
	Email    string
}

// AccountProfile remembers which account the CLI last used on a server.
type AccountProfile struct {
	ServerURL string    `json:"server_url"`
	Username  Username  `json:"username"`
	LastLogin time.Time `json:"last_login"`
}
