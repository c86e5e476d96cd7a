package interfaces

import (
	"context"

	domaintypes "netauth/internal/domain/types"
)

// AccountService registers and authenticates decrypted credentials.
//
// A false result with a nil error is a normal rejection. A non-nil error
// means the store could not answer; callers treat it as a rejection too.
type AccountService interface {
	Register(ctx context.Context, credentials domaintypes.Credentials) (bool, error)
	Authenticate(ctx context.Context, credentials domaintypes.Credentials) (bool, error)
}
