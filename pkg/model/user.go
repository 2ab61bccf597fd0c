package model

import "time"

// User is created by the external provisioning path (the auth service
// publishes a user-created event). Within this service it is read-only.
type User struct {
	UserID    uint      `gorm:"column:user_id;primaryKey"`
	Username  string    `gorm:"uniqueIndex"`
	Email     string    `gorm:"uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (User) TableName() string {
	return "users"
}
