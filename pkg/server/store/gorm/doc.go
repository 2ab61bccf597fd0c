// Package gorm implements the store interfaces on GORM + Postgres.
package gorm
