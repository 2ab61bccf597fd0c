package store

import (
	"errors"
	"time"

	"github.com/multicloud/vm-service/pkg/model"
)

// ErrAccountNotFound is returned when no credential record matches.
var ErrAccountNotFound = errors.New("cloud account not found")

// Account is a stored credential record. Secret fields are ciphertext.
type Account struct {
	ID              uint
	UserID          uint
	Provider        model.Provider
	AccessKeyID     []byte
	SecretAccessKey []byte
	Region          string
	CreatedAt       time.Time
}

// AccountsStore abstracts credential record persistence.
type AccountsStore interface {
	// CreateAccount inserts a new credential record and returns its id.
	CreateAccount(account *Account) (uint, error)

	// ListByUser returns every credential record for a user and provider,
	// oldest first.
	ListByUser(userID uint, provider model.Provider) ([]Account, error)

	// FirstAccount returns the service-level default credential record:
	// the oldest stored record for the provider across all users.
	// Returns ErrAccountNotFound when nothing is stored.
	FirstAccount(provider model.Provider) (*Account, error)
}
