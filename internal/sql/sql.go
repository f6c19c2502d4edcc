// Package sql holds the embedded schema migrations.
package sql

import "embed"

// Migrations contains all schema migration files, applied in filename order.
//
//go:embed migrations/*.sql
var Migrations embed.FS
