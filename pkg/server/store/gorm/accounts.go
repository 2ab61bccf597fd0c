package gorm

import (
	"errors"

	"gorm.io/gorm"

	"github.com/multicloud/vm-service/pkg/model"
	"github.com/multicloud/vm-service/pkg/server/store"
)

// Ensure AccountsStore implements store.AccountsStore
var _ store.AccountsStore = (*AccountsStore)(nil)

// AccountsStore implements store.AccountsStore using GORM
type AccountsStore struct {
	db *gorm.DB
}

// NewAccountsStore creates a new AccountsStore
func NewAccountsStore(db *gorm.DB) *AccountsStore {
	return &AccountsStore{db: db}
}

// CreateAccount inserts a new credential record and returns its id.
func (s *AccountsStore) CreateAccount(account *store.Account) (uint, error) {
	record := model.CloudAccount{
		UserID:          account.UserID,
		Provider:        account.Provider,
		AccessKeyID:     account.AccessKeyID,
		SecretAccessKey: account.SecretAccessKey,
		Region:          account.Region,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

// ListByUser returns every credential record for a user and provider,
// oldest first.
func (s *AccountsStore) ListByUser(userID uint, provider model.Provider) ([]store.Account, error) {
	var records []model.CloudAccount
	tx := s.db.
		Where("user_id = ? AND provider = ?", userID, provider.String()).
		Order("id asc").
		Find(&records)
	if tx.Error != nil {
		return nil, tx.Error
	}

	accounts := make([]store.Account, 0, len(records))
	for i := range records {
		accounts = append(accounts, *toStoreAccount(&records[i]))
	}
	return accounts, nil
}

// FirstAccount returns the oldest stored credential record for the provider.
func (s *AccountsStore) FirstAccount(provider model.Provider) (*store.Account, error) {
	var record model.CloudAccount
	tx := s.db.
		Where("provider = ?", provider.String()).
		Order("id asc").
		First(&record)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrAccountNotFound
		}
		return nil, tx.Error
	}
	return toStoreAccount(&record), nil
}

func toStoreAccount(r *model.CloudAccount) *store.Account {
	return &store.Account{
		ID:              r.ID,
		UserID:          r.UserID,
		Provider:        r.Provider,
		AccessKeyID:     r.AccessKeyID,
		SecretAccessKey: r.SecretAccessKey,
		Region:          r.Region,
		CreatedAt:       r.CreatedAt,
	}
}
