// Package db embeds the SQL schema migrations so production builds can
// run them without the migration files on disk.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
