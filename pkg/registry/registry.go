package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/multicloud/vm-service/pkg/model"
	"github.com/multicloud/vm-service/pkg/server/store"
	"github.com/multicloud/vm-service/pkg/vault"
)

// ErrDuplicateCredential is returned when the user already registered the
// same credential for the same provider. Safe to treat as success on
// retry: the credential is stored.
var ErrDuplicateCredential = errors.New("credential already registered for this user")

// CredentialSummary is the non-secret display view of a stored credential.
// KeyID is masked; the full identifier never leaves the registry.
type CredentialSummary struct {
	AccountID uint           `json:"id"`
	Provider  model.Provider `json:"provider"`
	KeyID     string         `json:"keyId"`
	Region    string         `json:"region"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Registry persists credential records scoped to a user and lists them
// back, masked or decrypted.
type Registry struct {
	vault    *vault.Vault
	users    store.UsersStore
	accounts store.AccountsStore
	logger   zerolog.Logger

	mu        sync.Mutex
	userLocks map[uint]*sync.Mutex
}

// New creates a Registry.
func New(v *vault.Vault, users store.UsersStore, accounts store.AccountsStore, logger zerolog.Logger) *Registry {
	return &Registry{
		vault:     v,
		users:     users,
		accounts:  accounts,
		logger:    logger,
		userLocks: make(map[uint]*sync.Mutex),
	}
}

// userLock returns the mutex serializing registrations for one user.
func (r *Registry) userLock(userID uint) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.userLocks[userID] = lock
	}
	return lock
}

// RegisterCredential stores a new credential for the user unless an equal
// one already exists. The exists-check and insert run under a per-user
// lock; the check alone is not atomic against concurrent registration.
func (r *Registry) RegisterCredential(userID uint, provider model.Provider, accessKeyID, secretAccessKey, region string) (uint, error) {
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	exists, err := r.vault.CredentialExists(userID, provider, accessKeyID)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, ErrDuplicateCredential
	}

	id, err := r.vault.StoreCredential(userID, provider, accessKeyID, secretAccessKey, region)
	if err != nil {
		return 0, err
	}

	r.logger.Info().
		Uint("user_id", userID).
		Str("provider", provider.String()).
		Str("key_id", vault.Mask(accessKeyID)).
		Msg("credential registered")

	return id, nil
}

// ListCredentialSummaries returns the masked view of every credential the
// user has stored for the provider. Only the identifier field is
// decrypted, and only its masked form is exposed. Unreadable records are
// skipped so one corrupt row cannot hide the rest.
func (r *Registry) ListCredentialSummaries(userID uint, provider model.Provider) ([]CredentialSummary, error) {
	records, err := r.accounts.ListByUser(userID, provider)
	if err != nil {
		return nil, err
	}

	summaries := make([]CredentialSummary, 0, len(records))
	for i := range records {
		keyID, err := r.vault.DecryptKeyID(&records[i])
		if err != nil {
			r.logger.Error().
				Uint("account_id", records[i].ID).
				Err(err).
				Msg("skipping unreadable credential record in summary listing")
			continue
		}
		summaries = append(summaries, CredentialSummary{
			AccountID: records[i].ID,
			Provider:  records[i].Provider,
			KeyID:     vault.Mask(keyID),
			Region:    records[i].Region,
			CreatedAt: records[i].CreatedAt,
		})
	}
	return summaries, nil
}

// ListDecryptedCredentials returns every credential for the user fully
// decrypted. This is the only registry method that yields plaintext
// secrets; it exists for callers that make outbound provider calls within
// the same request.
func (r *Registry) ListDecryptedCredentials(userID uint, provider model.Provider) ([]vault.DecryptedCredential, error) {
	return r.vault.ListDecrypted(userID, provider)
}

// FirstCredential returns the service-level default credential for a
// provider: the oldest stored record across all users, decrypted.
// Returns store.ErrAccountNotFound when nothing is stored.
func (r *Registry) FirstCredential(provider model.Provider) (*vault.DecryptedCredential, error) {
	account, err := r.accounts.FirstAccount(provider)
	if err != nil {
		return nil, err
	}
	return r.vault.DecryptForUse(account)
}

// FindUserByUsername resolves a username to the internal user record.
// Returns store.ErrUserNotFound when no such user exists.
func (r *Registry) FindUserByUsername(username string) (*store.User, error) {
	return r.users.FindByUsername(username)
}

// CreateUser provisions a new user. Used by the provisioning listener;
// duplicate usernames return store.ErrUserExists.
func (r *Registry) CreateUser(username, email string) (*store.User, error) {
	user, err := r.users.CreateUser(username, email)
	if err != nil {
		return nil, err
	}

	r.logger.Info().
		Uint("user_id", user.ID).
		Str("username", username).
		Msg("user provisioned")

	return user, nil
}
