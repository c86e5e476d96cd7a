package account_test

import (
	"context"
	"errors"
	"testing"

	"netauth/internal/crypto"
	"netauth/internal/domain"
	"netauth/internal/services/account"
	"netauth/internal/store"
)

func fastHasher(t *testing.T, alg crypto.Algorithm) *crypto.Hasher {
	t.Helper()
	h, err := crypto.NewHasher(alg,
		crypto.WithArgon2Params(crypto.Argon2Params{Time: 1, Memory: 1024, Threads: 1}),
		crypto.WithScryptParams(crypto.ScryptParams{LogN: 10, R: 8, P: 1}),
	)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return h
}

func newService(t *testing.T, s domain.AccountStore, opts ...account.Option) *account.Service {
	t.Helper()
	svc, err := account.New(s, fastHasher(t, crypto.Argon2id), opts...)
	if err != nil {
		t.Fatalf("account.New: %v", err)
	}
	return svc
}

func creds(user, pw, email string) domain.Credentials {
	return domain.Credentials{Username: domain.Username(user), Password: []byte(pw), Email: email}
}

func TestRegisterThenAuthenticate(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryAccountStore()
	svc := newService(t, st)

	ok, err := svc.Register(ctx, creds("alice", "secret1", "a@example.com"))
	if err != nil || !ok {
		t.Fatalf("Register: ok=%v err=%v", ok, err)
	}
	acct, found, _ := st.FindAccount(ctx, domain.AccountQuery{Username: "alice"})
	if !found {
		t.Fatal("account not stored")
	}
	if string(acct.PasswordHash) == "secret1" || len(acct.PasswordSalt) == 0 {
		t.Fatal("password stored without hashing")
	}
	if acct.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not set")
	}

	if ok, err := svc.Authenticate(ctx, creds("alice", "secret1", "")); err != nil || !ok {
		t.Fatalf("Authenticate: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.Authenticate(ctx, creds("alice", "wrong", "")); err != nil || ok {
		t.Fatalf("wrong password: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.Authenticate(ctx, creds("nobody", "secret1", "")); err != nil || ok {
		t.Fatalf("missing account: ok=%v err=%v", ok, err)
	}
}

func TestRegister_Conflicts(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, store.NewMemoryAccountStore())
	if ok, _ := svc.Register(ctx, creds("alice", "secret1", "a@example.com")); !ok {
		t.Fatal("first registration failed")
	}
	if ok, err := svc.Register(ctx, creds("alice2", "x", "a@example.com")); ok || err != nil {
		t.Fatalf("same email: ok=%v err=%v", ok, err)
	}
	if ok, err := svc.Register(ctx, creds("alice", "x", "other@example.com")); ok || err != nil {
		t.Fatalf("same username: ok=%v err=%v", ok, err)
	}
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, store.NewMemoryAccountStore())
	long := string(make([]byte, 65))
	cases := map[string]domain.Credentials{
		"empty username":  creds("", "pw", "a@example.com"),
		"long username":   creds(long, "pw", "a@example.com"),
		"invalid utf8":    creds("\xff\xfe", "pw", "a@example.com"),
		"control char":    creds("al\x00ice", "pw", "a@example.com"),
		"padded username": creds(" alice", "pw", "a@example.com"),
		"empty password":  creds("alice", "", "a@example.com"),
		"missing email":   creds("alice", "pw", ""),
		"bad email":       creds("alice", "pw", "not-an-address"),
		"named address":   creds("alice", "pw", "Alice <a@example.com>"),
		"long email":      creds("alice", "pw", string(make([]byte, 60))+"@x.io"),
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			if ok, err := svc.Register(ctx, c); ok || err != nil {
				t.Fatalf("ok=%v err=%v", ok, err)
			}
		})
	}
}

// failingStore fails every call.
type failingStore struct{ calls int }

var errOutage = errors.New("connection refused")

func (f *failingStore) FindAccount(context.Context, domain.AccountQuery) (domain.Account, bool, error) {
	f.calls++
	return domain.Account{}, false, errOutage
}

func (f *failingStore) InsertAccount(context.Context, *domain.Account) error {
	f.calls++
	return errOutage
}

func (f *failingStore) UpdateAccount(context.Context, domain.Account) error {
	f.calls++
	return errOutage
}

func TestStoreOutage(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &failingStore{})

	ok, err := svc.Register(ctx, creds("alice", "pw", "a@example.com"))
	if ok || !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("Register: ok=%v err=%v", ok, err)
	}
	ok, err = svc.Authenticate(ctx, creds("alice", "pw", ""))
	if ok || !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("Authenticate: ok=%v err=%v", ok, err)
	}
}

func TestAuthenticate_RehashOnLogin(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryAccountStore()

	legacy, err := account.New(st, fastHasher(t, crypto.HMACSHA512))
	if err != nil {
		t.Fatalf("account.New: %v", err)
	}
	if ok, _ := legacy.Register(ctx, creds("alice", "secret1", "a@example.com")); !ok {
		t.Fatal("legacy registration failed")
	}

	plain := newService(t, st)
	if ok, _ := plain.Authenticate(ctx, creds("alice", "secret1", "")); !ok {
		t.Fatal("legacy hash did not verify")
	}
	acct, _, _ := st.FindAccount(ctx, domain.AccountQuery{Username: "alice"})
	if acct.HashAlgorithm != string(crypto.HMACSHA512) {
		t.Fatalf("rehashed without opt-in: %s", acct.HashAlgorithm)
	}

	upgrading := newService(t, st, account.WithRehashOnLogin(true))
	if ok, _ := upgrading.Authenticate(ctx, creds("alice", "wrong", "")); ok {
		t.Fatal("wrong password accepted")
	}
	acct, _, _ = st.FindAccount(ctx, domain.AccountQuery{Username: "alice"})
	if acct.HashAlgorithm != string(crypto.HMACSHA512) {
		t.Fatal("rehashed after a failed login")
	}

	if ok, _ := upgrading.Authenticate(ctx, creds("alice", "secret1", "")); !ok {
		t.Fatal("login failed")
	}
	acct, _, _ = st.FindAccount(ctx, domain.AccountQuery{Username: "alice"})
	if acct.HashAlgorithm == string(crypto.HMACSHA512) {
		t.Fatal("hash not upgraded")
	}
	if ok, _ := upgrading.Authenticate(ctx, creds("alice", "secret1", "")); !ok {
		t.Fatal("login after upgrade failed")
	}
}

func TestValidateEmail(t *testing.T) {
	if err := account.ValidateEmail("a@example.com"); err != nil {
		t.Fatalf("valid address rejected: %v", err)
	}
	if err := account.ValidateEmail("a@"); !errors.Is(err, account.ErrInvalidEmail) {
		t.Fatalf("want ErrInvalidEmail, got %v", err)
	}
}
