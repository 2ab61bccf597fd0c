package registry

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multicloud/vm-service/pkg/cipher"
	"github.com/multicloud/vm-service/pkg/model"
	"github.com/multicloud/vm-service/pkg/server/store"
	"github.com/multicloud/vm-service/pkg/vault"
)

// fakeAccountsStore is an in-memory, mutex-protected store.AccountsStore
// so concurrent registration tests exercise the registry's serialization
// rather than racing the fixture.
type fakeAccountsStore struct {
	mu       sync.Mutex
	accounts []store.Account
	nextID   uint
}

func (f *fakeAccountsStore) CreateAccount(account *store.Account) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	record := *account
	record.ID = f.nextID
	f.accounts = append(f.accounts, record)
	return record.ID, nil
}

func (f *fakeAccountsStore) ListByUser(userID uint, provider model.Provider) ([]store.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Account
	for _, a := range f.accounts {
		if a.UserID == userID && a.Provider == provider {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccountsStore) FirstAccount(provider model.Provider) (*store.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.accounts {
		if f.accounts[i].Provider == provider {
			account := f.accounts[i]
			return &account, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (f *fakeAccountsStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accounts)
}

type fakeUsersStore struct {
	mu    sync.Mutex
	users map[string]*store.User
}

func newFakeUsersStore() *fakeUsersStore {
	return &fakeUsersStore{users: make(map[string]*store.User)}
}

func (f *fakeUsersStore) FindByUsername(username string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[username]; ok {
		user := *u
		return &user, nil
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUsersStore) FindByID(id uint) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			user := *u
			return &user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUsersStore) CreateUser(username, email string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[username]; ok {
		return nil, store.ErrUserExists
	}
	user := &store.User{ID: uint(len(f.users) + 1), Username: username, Email: email}
	f.users[username] = user
	return user, nil
}

func newTestRegistry(t *testing.T) (*Registry, *fakeAccountsStore, *fakeUsersStore) {
	t.Helper()

	key := make([]byte, cipher.KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	c, err := cipher.NewSymmetric(key)
	require.NoError(t, err)

	accounts := &fakeAccountsStore{}
	users := newFakeUsersStore()
	v := vault.New(accounts, c, zerolog.Nop())
	return New(v, users, accounts, zerolog.Nop()), accounts, users
}

func TestRegisterCredential(t *testing.T) {
	r, accounts, _ := newTestRegistry(t)

	id, err := r.RegisterCredential(1, model.ProviderAWS, "AKIA1234567890ABCD", "secret-value", "us-east-1")
	require.NoError(t, err)
	assert.Equal(t, uint(1), id)
	assert.Equal(t, 1, accounts.count())
}

func TestRegisterCredentialDuplicate(t *testing.T) {
	r, accounts, _ := newTestRegistry(t)

	_, err := r.RegisterCredential(1, model.ProviderAWS, "AKIA1234567890ABCD", "secret-value", "us-east-1")
	require.NoError(t, err)

	_, err = r.RegisterCredential(1, model.ProviderAWS, "AKIA1234567890ABCD", "secret-value", "us-east-1")
	assert.ErrorIs(t, err, ErrDuplicateCredential)
	assert.Equal(t, 1, accounts.count(), "no second record may be created")

	// Same key for a different user is a separate credential.
	_, err = r.RegisterCredential(2, model.ProviderAWS, "AKIA1234567890ABCD", "secret-value", "us-east-1")
	require.NoError(t, err)
	assert.Equal(t, 2, accounts.count())
}

func TestRegisterCredentialConcurrentDuplicates(t *testing.T) {
	r, accounts, _ := newTestRegistry(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.RegisterCredential(1, model.ProviderAWS, "AKIA1234567890ABCD", "secret-value", "us-east-1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	duplicates := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrDuplicateCredential):
			duplicates++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one registration may win")
	assert.Equal(t, attempts-1, duplicates)
	assert.Equal(t, 1, accounts.count())
}

func TestListCredentialSummariesMasksKeyID(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	_, err := r.RegisterCredential(1, model.ProviderAWS, "AKIA1234567890ABCD", "secret-value", "us-east-1")
	require.NoError(t, err)

	summaries, err := r.ListCredentialSummaries(1, model.ProviderAWS)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	assert.Equal(t, "AKIAXXXXABCD", summaries[0].KeyID)
	assert.Equal(t, model.ProviderAWS, summaries[0].Provider)
	assert.Equal(t, "us-east-1", summaries[0].Region)
}

func TestListDecryptedCredentials(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	_, err := r.RegisterCredential(1, model.ProviderAWS, "AKIAFIRSTKEY000001", "secret-one", "us-east-1")
	require.NoError(t, err)
	_, err = r.RegisterCredential(1, model.ProviderAWS, "AKIASECONDKEY00002", "secret-two", "eu-west-1")
	require.NoError(t, err)

	credentials, err := r.ListDecryptedCredentials(1, model.ProviderAWS)
	require.NoError(t, err)
	require.Len(t, credentials, 2)
	assert.Equal(t, "AKIAFIRSTKEY000001", credentials[0].AccessKeyID)
	assert.Equal(t, "secret-one", credentials[0].SecretAccessKey)
	assert.Equal(t, "AKIASECONDKEY00002", credentials[1].AccessKeyID)
}

func TestFirstCredential(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	_, err := r.FirstCredential(model.ProviderAWS)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)

	_, err = r.RegisterCredential(2, model.ProviderAWS, "AKIAFIRSTKEY000001", "secret-one", "us-east-1")
	require.NoError(t, err)
	_, err = r.RegisterCredential(1, model.ProviderAWS, "AKIASECONDKEY00002", "secret-two", "eu-west-1")
	require.NoError(t, err)

	// The oldest record wins regardless of which user stored it.
	cred, err := r.FirstCredential(model.ProviderAWS)
	require.NoError(t, err)
	assert.Equal(t, "AKIAFIRSTKEY000001", cred.AccessKeyID)
	assert.Equal(t, uint(2), cred.UserID)
}

func TestCreateUser(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	user, err := r.CreateUser("alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = r.CreateUser("alice", "alice@example.com")
	assert.ErrorIs(t, err, store.ErrUserExists)

	found, err := r.FindUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = r.FindUserByUsername("nobody")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}
