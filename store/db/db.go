package db

import (
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

//go:embed migration
var migrationFS embed.FS

func NewDB(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite serializes writes; a single connection avoids busy
	// errors under concurrent uploads.
	d.SetMaxOpenConns(1)
	return d, nil
}

// Migrate applies the latest schema. Every statement is idempotent, so this
// runs unconditionally at startup.
func Migrate(d *sql.DB) error {
	schema, err := migrationFS.ReadFile("migration/LATEST_SCHEMA.sql")
	if err != nil {
		return errors.Wrap(err, "unable to read embedded schema")
	}
	if _, err := d.Exec(string(schema)); err != nil {
		return errors.Wrap(err, "unable to apply schema")
	}
	return nil
}
