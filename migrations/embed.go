// Package migrations embeds the SQL migration files so they can be used
// by the goose programmatic API in tests, the admin CLI and server bootstrap.
// Each dialect keeps its own directory because the column types differ.
package migrations

import (
	"embed"
	"io/fs"
)

// FS holds every *.sql migration file, one directory per dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Postgres returns the migrations for the Postgres schema.
func Postgres() fs.FS { return mustSub("postgres") }

// SQLite returns the migrations for the SQLite schema.
func SQLite() fs.FS { return mustSub("sqlite") }

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(FS, dir)
	if err != nil {
		panic("migrations: " + err.Error())
	}
	return sub
}
