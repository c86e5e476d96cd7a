package interfaces

import (
	"context"

	domaintypes "netauth/internal/domain/types"
)

// AccountStore persists registered accounts. Implementations must reject an
// insert whose username or email is already taken with ErrAccountExists.
type AccountStore interface {
	FindAccount(
		ctx context.Context,
		query domaintypes.AccountQuery,
	) (domaintypes.Account, bool, error)
	InsertAccount(ctx context.Context, account *domaintypes.Account) error
	UpdateAccount(ctx context.Context, account domaintypes.Account) error
}
