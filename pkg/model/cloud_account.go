package model

import "time"

// CloudAccount is one stored provider credential belonging to a user.
// AccessKeyID and SecretAccessKey hold packed ciphertext, encrypted
// independently so a single field can be rotated later without touching
// the other. Region is cleartext metadata.
type CloudAccount struct {
	ID              uint     `gorm:"primaryKey"`
	UserID          uint     `gorm:"column:user_id;index;not null"`
	Provider        Provider `gorm:"type:varchar(16);not null"`
	AccessKeyID     []byte   `gorm:"column:access_key_id;type:bytea;not null"`
	SecretAccessKey []byte   `gorm:"column:secret_access_key;type:bytea;not null"`
	Region          string   `gorm:"type:varchar(100);not null"`
	CreatedAt       time.Time
}

func (CloudAccount) TableName() string {
	return "cloud_accounts"
}
