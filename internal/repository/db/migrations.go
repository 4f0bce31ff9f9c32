package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func MigrateUp(db *sql.DB, migrationsURL string) error {
	log.Println("Migrating up:", migrationsURL)

	m, err := newMigrate(db, migrationsURL)
	if err != nil {
		return fmt.Errorf("db.MigrateUp: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db.MigrateUp: %w", err)
	}
	return nil
}

func MigrateDown(db *sql.DB, migrationsURL string) error {
	log.Println("Migrating down:", migrationsURL)

	m, err := newMigrate(db, migrationsURL)
	if err != nil {
		return fmt.Errorf("db.MigrateDown: %w", err)
	}

	err = m.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("db.MigrateDown: %w", err)
	}
	return nil
}

// Version reports the applied schema version, 0 when nothing is applied.
func Version(db *sql.DB, migrationsURL string) (uint, bool, error) {
	m, err := newMigrate(db, migrationsURL)
	if err != nil {
		return 0, false, fmt.Errorf("db.Version: %w", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, fmt.Errorf("db.Version: %w", err)
	}
	return version, dirty, nil
}

// The migrate instance is not closed: closing it would close the shared *sql.DB.
func newMigrate(db *sql.DB, migrationsURL string) (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithDatabaseInstance(migrationsURL, "postgres", driver)
}
