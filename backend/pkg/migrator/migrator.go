package migrator

import (
	"fmt"
	"io/fs"
	"log/slog"

	"dispenser-bridge/backend/pkg/dialect"
)

// Migrator defines the interface for database migrations and schema operations.
type Migrator interface {
	Migrate() error
	DumpSchema(outputPath string) error
}

// New creates a migrator for the given dialect. For SQLite the connection
// string is a file path; for PostgreSQL it is a URL. The filesystem must
// contain a top-level "migrations" directory.
//
//nolint:ireturn // Returns Migrator interface
func New(l *slog.Logger, d dialect.Dialect, connStr string, fsys fs.FS) (Migrator, error) {
	switch d {
	case dialect.SQLite:
		return newSQLiteMigrator(l, fsys, connStr)
	case dialect.PostgreSQL:
		return newPostgresMigrator(l, fsys, connStr)
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", d)
	}
}
