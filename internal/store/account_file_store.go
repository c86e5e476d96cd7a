package store

import (
	"context"
	"path/filepath"
	"sync"

	"netauth/internal/domain"
)

const accountsFile = "accounts.json"

type accountsDoc struct {
	NextID   uint64           `json:"next_id"`
	Accounts []domain.Account `json:"accounts"`
}

// AccountFileStore persists accounts as a JSON document under dir.
// Every call re-reads the file so several processes see each other's writes.
type AccountFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewAccountFileStore returns an AccountFileStore rooted at dir.
func NewAccountFileStore(dir string) *AccountFileStore {
	return &AccountFileStore{dir: dir}
}

func (s *AccountFileStore) path() string { return filepath.Join(s.dir, accountsFile) }

func (s *AccountFileStore) load() (accountsDoc, error) {
	doc := accountsDoc{NextID: 1}
	if err := readJSON(s.path(), &doc); err != nil {
		return accountsDoc{}, err
	}
	if doc.NextID == 0 {
		doc.NextID = 1
	}
	return doc, nil
}

// FindAccount returns the first account matching q.
func (s *AccountFileStore) FindAccount(ctx context.Context, q domain.AccountQuery) (domain.Account, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return domain.Account{}, false, err
	}
	for _, a := range doc.Accounts {
		if matches(a, q) {
			return a, true, nil
		}
	}
	return domain.Account{}, false, nil
}

// InsertAccount appends a and assigns its ID.
func (s *AccountFileStore) InsertAccount(ctx context.Context, a *domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkLimits(*a); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := conflict(doc.Accounts, *a); err != nil {
		return err
	}
	stored := *a
	stored.ID = doc.NextID
	doc.NextID++
	doc.Accounts = append(doc.Accounts, stored)
	if err := writeJSON(s.path(), doc, 0o600); err != nil {
		return err
	}
	a.ID = stored.ID
	return nil
}

// UpdateAccount replaces the stored account with the same ID.
func (s *AccountFileStore) UpdateAccount(ctx context.Context, a domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkLimits(a); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := conflict(doc.Accounts, a); err != nil {
		return err
	}
	for i := range doc.Accounts {
		if doc.Accounts[i].ID == a.ID {
			doc.Accounts[i] = a
			return writeJSON(s.path(), doc, 0o600)
		}
	}
	return ErrAccountNotFound
}

// Compile-time assertion that AccountFileStore implements domain.AccountStore.
var _ domain.AccountStore = (*AccountFileStore)(nil)
