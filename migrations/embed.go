// Package migrations embeds the schema migrations for every supported store.
package migrations

import "embed"

// Postgres holds migrations applied to PostgreSQL, under postgres/.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite holds migrations applied to SQLite files, under sqlite/.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
