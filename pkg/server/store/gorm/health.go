package gorm

import "gorm.io/gorm"

// HealthCheck verifies database connectivity.
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
