package gorm

import (
	"errors"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"

	"github.com/multicloud/vm-service/pkg/model"
	"github.com/multicloud/vm-service/pkg/server/store"
)

// Ensure UsersStore implements store.UsersStore
var _ store.UsersStore = (*UsersStore)(nil)

// UsersStore implements store.UsersStore using GORM
type UsersStore struct {
	db *gorm.DB
}

// NewUsersStore creates a new UsersStore
func NewUsersStore(db *gorm.DB) *UsersStore {
	return &UsersStore{db: db}
}

// FindByUsername returns the user with the given username.
func (s *UsersStore) FindByUsername(username string) (*store.User, error) {
	var user model.User
	tx := s.db.Where(&model.User{Username: username}).First(&user)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, tx.Error
	}

	return toStoreUser(&user), nil
}

// FindByID returns the user with the given internal identifier.
func (s *UsersStore) FindByID(id uint) (*store.User, error) {
	var user model.User
	tx := s.db.Where(&model.User{UserID: id}).First(&user)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, tx.Error
	}

	return toStoreUser(&user), nil
}

// CreateUser inserts a new user.
func (s *UsersStore) CreateUser(username, email string) (*store.User, error) {
	user := model.User{
		Username: username,
		Email:    email,
	}
	tx := s.db.Create(&user)
	if tx.Error != nil {
		if isUniqueViolation(tx.Error) {
			return nil, store.ErrUserExists
		}
		return nil, tx.Error
	}

	return toStoreUser(&user), nil
}

func toStoreUser(u *model.User) *store.User {
	return &store.User{
		ID:        u.UserID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
