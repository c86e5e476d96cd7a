package store

import (
	"context"
	"sync"

	"netauth/internal/domain"
)

// MemoryAccountStore keeps accounts in memory.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts []domain.Account
	nextID   uint64
}

// NewMemoryAccountStore returns an empty store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{nextID: 1}
}

// FindAccount returns the first account matching q.
func (s *MemoryAccountStore) FindAccount(ctx context.Context, q domain.AccountQuery) (domain.Account, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if matches(a, q) {
			return cloneAccount(a), true, nil
		}
	}
	return domain.Account{}, false, nil
}

// InsertAccount stores a and assigns its ID.
func (s *MemoryAccountStore) InsertAccount(ctx context.Context, a *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkLimits(*a); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := conflict(s.accounts, *a); err != nil {
		return err
	}
	a.ID = s.nextID
	s.nextID++
	s.accounts = append(s.accounts, cloneAccount(*a))
	return nil
}

// UpdateAccount replaces the stored account with the same ID.
func (s *MemoryAccountStore) UpdateAccount(ctx context.Context, a domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkLimits(a); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := conflict(s.accounts, a); err != nil {
		return err
	}
	for i := range s.accounts {
		if s.accounts[i].ID == a.ID {
			s.accounts[i] = cloneAccount(a)
			return nil
		}
	}
	return ErrAccountNotFound
}

// Compile-time assertion that MemoryAccountStore implements domain.AccountStore.
var _ domain.AccountStore = (*MemoryAccountStore)(nil)
