package postgres

import (
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// Migrate aplica las migraciones SQL embebidas con goose.
func Migrate(db *sql.DB, migrations fs.FS) error {
	const op = "postgres.migrate"

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
