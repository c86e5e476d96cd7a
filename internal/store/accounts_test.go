package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/go-test/deep"

	"netauth/internal/domain"
	"netauth/internal/store"
)

func backends(t *testing.T) map[string]domain.AccountStore {
	t.Helper()
	sqlStore, err := store.OpenAccountSQLStore(filepath.Join(t.TempDir(), "accounts.db"))
	if err != nil {
		t.Fatalf("OpenAccountSQLStore: %v", err)
	}
	t.Cleanup(func() { _ = sqlStore.Close() })
	return map[string]domain.AccountStore{
		"memory": store.NewMemoryAccountStore(),
		"file":   store.NewAccountFileStore(t.TempDir()),
		"sqlite": sqlStore,
	}
}

func newAccount(username, email string) *domain.Account {
	return &domain.Account{
		Username:      domain.Username(username),
		Email:         email,
		PasswordHash:  []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"),
		PasswordSalt:  []byte("salt-salt-salt-salt-salt-salt-32"),
		HashAlgorithm: "argon2id$m=65536,t=1,p=4",
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestAccountStore_InsertFind(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			alice := newAccount("alice", "a@example.com")
			if err := s.InsertAccount(ctx, alice); err != nil {
				t.Fatalf("insert: %v", err)
			}
			if alice.ID == 0 {
				t.Fatal("ID not assigned")
			}

			for _, q := range []domain.AccountQuery{
				{Username: "alice"},
				{Email: "a@example.com"},
				{Username: "nobody", Email: "a@example.com"},
				{Username: "alice", Email: "other@example.com"},
			} {
				got, ok, err := s.FindAccount(ctx, q)
				if err != nil || !ok {
					t.Fatalf("find %+v: ok=%v err=%v", q, ok, err)
				}
				got.CreatedAt = got.CreatedAt.UTC()
				if diff := deep.Equal(got, *alice); diff != nil {
					t.Fatalf("find %+v: %v", q, diff)
				}
			}

			if _, ok, err := s.FindAccount(ctx, domain.AccountQuery{Username: "bob"}); err != nil || ok {
				t.Fatalf("find missing: ok=%v err=%v", ok, err)
			}
			if _, ok, err := s.FindAccount(ctx, domain.AccountQuery{}); err != nil || ok {
				t.Fatalf("empty query: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestAccountStore_Uniqueness(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.InsertAccount(ctx, newAccount("alice", "a@example.com")); err != nil {
				t.Fatalf("insert: %v", err)
			}
			if err := s.InsertAccount(ctx, newAccount("alice", "b@example.com")); !errors.Is(err, domain.ErrAccountExists) {
				t.Fatalf("same username: want ErrAccountExists, got %v", err)
			}
			if err := s.InsertAccount(ctx, newAccount("bob", "a@example.com")); !errors.Is(err, domain.ErrAccountExists) {
				t.Fatalf("same email: want ErrAccountExists, got %v", err)
			}
			if err := s.InsertAccount(ctx, newAccount("bob", "b@example.com")); err != nil {
				t.Fatalf("distinct account: %v", err)
			}
		})
	}
}

func TestAccountStore_Update(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			alice := newAccount("alice", "a@example.com")
			if err := s.InsertAccount(ctx, alice); err != nil {
				t.Fatalf("insert: %v", err)
			}
			updated := *alice
			updated.HashAlgorithm = "scrypt$ln=15,r=8,p=1"
			updated.PasswordHash = []byte("fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210")
			if err := s.UpdateAccount(ctx, updated); err != nil {
				t.Fatalf("update: %v", err)
			}
			got, ok, err := s.FindAccount(ctx, domain.AccountQuery{Username: "alice"})
			if err != nil || !ok {
				t.Fatalf("find: ok=%v err=%v", ok, err)
			}
			got.CreatedAt = got.CreatedAt.UTC()
			if diff := deep.Equal(got, updated); diff != nil {
				t.Fatal(diff)
			}

			missing := updated
			missing.ID = 999
			missing.Username = "ghost"
			missing.Email = "ghost@example.com"
			if err := s.UpdateAccount(ctx, missing); !errors.Is(err, store.ErrAccountNotFound) {
				t.Fatalf("want ErrAccountNotFound, got %v", err)
			}
		})
	}
}

func TestAccountStore_Limits(t *testing.T) {
	ctx := context.Background()
	long := make([]byte, domain.MaxUsernameLength+1)
	for i := range long {
		long[i] = 'x'
	}
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.InsertAccount(ctx, newAccount(string(long), "a@example.com")); err == nil {
				t.Fatal("accepted an over-long username")
			}
			a := newAccount("alice", "a@example.com")
			a.PasswordSalt = make([]byte, domain.MaxSaltLength+1)
			if err := s.InsertAccount(ctx, a); err == nil {
				t.Fatal("accepted an over-long salt")
			}
		})
	}
}

func TestAccountStore_ConcurrentInsertSameUsername(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var (
				wg  sync.WaitGroup
				mu  sync.Mutex
				won int
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					err := s.InsertAccount(ctx, newAccount("alice", "a"+string(rune('0'+i))+"@example.com"))
					if err == nil {
						mu.Lock()
						won++
						mu.Unlock()
					}
				}(i)
			}
			wg.Wait()
			if won != 1 {
				t.Fatalf("%d inserts succeeded, want 1", won)
			}
		})
	}
}

func TestAccountFileStore_Persists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	if err := store.NewAccountFileStore(dir).InsertAccount(ctx, newAccount("alice", "a@example.com")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	reopened := store.NewAccountFileStore(dir)
	if _, ok, err := reopened.FindAccount(ctx, domain.AccountQuery{Username: "alice"}); err != nil || !ok {
		t.Fatalf("find after reopen: ok=%v err=%v", ok, err)
	}
	b := newAccount("bob", "b@example.com")
	if err := reopened.InsertAccount(ctx, b); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if b.ID != 2 {
		t.Fatalf("ID = %d, want 2", b.ID)
	}
}

func TestAccountFileStore_FailedWriteLeavesIDUnset(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("needs a directory that refuses new files even for root")
	}
	// /proc/self has no accounts.json and does not accept new files.
	s := store.NewAccountFileStore("/proc/self")
	a := newAccount("alice", "a@example.com")
	if err := s.InsertAccount(context.Background(), a); err == nil {
		t.Fatal("insert into /proc/self succeeded")
	}
	if a.ID != 0 {
		t.Fatalf("ID = %d after failed write, want 0", a.ID)
	}
}

func TestMemoryAccountStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := store.NewMemoryAccountStore()
	if _, _, err := s.FindAccount(ctx, domain.AccountQuery{Username: "alice"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
