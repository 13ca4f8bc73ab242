package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Dialect selects the migration set and database driver
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

// dir returns the embedded directory holding the dialect's migrations
func (d Dialect) dir() (string, error) {
	switch d {
	case Postgres:
		return "postgres", nil
	case SQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported migration dialect %q", d)
	}
}

// newMigrate builds a migrate instance over db for the given dialect. The
// returned release func must be called when done: it hands the Postgres
// connection back to the pool and leaves db open.
func newMigrate(db *sql.DB, dialect Dialect) (*migrate.Migrate, func(), error) {
	dir, err := dialect.dir()
	if err != nil {
		return nil, nil, err
	}

	src, err := iofs.New(files, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening embedded migrations: %w", err)
	}

	var (
		driver  database.Driver
		release = func() {}
	)
	switch dialect {
	case Postgres:
		ctx := context.Background()
		conn, connErr := db.Conn(ctx)
		if connErr != nil {
			return nil, nil, fmt.Errorf("error acquiring migration connection: %w", connErr)
		}
		driver, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			conn.Close()
		}
	case SQLite:
		// The sqlite3 driver pins no connection, and closing it would close db
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	}
	if err != nil {
		return nil, nil, fmt.Errorf("error creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(dialect), driver)
	if err != nil {
		if dialect == Postgres {
			driver.Close()
		}
		return nil, nil, fmt.Errorf("error creating migration instance: %w", err)
	}
	if dialect == Postgres {
		release = func() { m.Close() }
	}
	return m, release, nil
}

// RunMigrations applies every pending migration
func RunMigrations(db *sql.DB, dialect Dialect) error {
	m, release, err := newMigrate(db, dialect)
	if err != nil {
		return err
	}
	defer release()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migrations: %w", err)
	}
	return nil
}

// RollbackMigration rolls back the last applied migration
func RollbackMigration(db *sql.DB, dialect Dialect) error {
	m, release, err := newMigrate(db, dialect)
	if err != nil {
		return err
	}
	defer release()

	if err := m.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("no migrations to rollback")
		}
		return fmt.Errorf("error rolling back migration: %w", err)
	}
	return nil
}

// Version reports the currently applied migration version
func Version(db *sql.DB, dialect Dialect) (uint, bool, error) {
	m, release, err := newMigrate(db, dialect)
	if err != nil {
		return 0, false, err
	}
	defer release()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
