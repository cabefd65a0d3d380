// Package migration embeds the SQL schema migrations of the record store.
package migration

import "embed"

// TargetSchemaVersion determines the database schema version.
const TargetSchemaVersion uint = 1

// FS holds the up and down migration files.
//
//go:embed *.sql
var FS embed.FS
