package store

import (
	"errors"
	"time"
)

// ErrUserNotFound is returned when no user row matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned when creating a user whose username or email
// is already taken.
var ErrUserExists = errors.New("user already exists")

// User is a provisioned account holder.
type User struct {
	ID        uint
	Username  string
	Email     string
	CreatedAt time.Time
}

// UsersStore abstracts user persistence.
type UsersStore interface {
	// FindByUsername returns the user with the given username.
	// Returns ErrUserNotFound if no such user exists.
	FindByUsername(username string) (*User, error)

	// FindByID returns the user with the given internal identifier.
	// Returns ErrUserNotFound if no such user exists.
	FindByID(id uint) (*User, error)

	// CreateUser inserts a new user. Returns ErrUserExists when the
	// username or email is already taken.
	CreateUser(username, email string) (*User, error)
}
