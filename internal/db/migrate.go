package db

import (
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// DefaultMigrationsDir is the migrate source used when none is given.
const DefaultMigrationsDir = "file://migrations"

// Migrate applies schema migrations from dir. steps of 0 means all.
func Migrate(dir, dsn, direction string, steps int) error {
	if dir == "" {
		dir = DefaultMigrationsDir
	}
	if dsn == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if steps < 0 {
		return fmt.Errorf("steps must not be negative")
	}

	var run func(m *migrate.Migrate) error
	switch direction {
	case "up":
		run = func(m *migrate.Migrate) error {
			if steps > 0 {
				return m.Steps(steps)
			}
			return m.Up()
		}
	case "down":
		run = func(m *migrate.Migrate) error {
			if steps > 0 {
				return m.Steps(-steps)
			}
			return m.Down()
		}
	default:
		return fmt.Errorf("unknown direction: %s", direction)
	}

	m, err := migrate.New(dir, dsn)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	defer m.Close()

	err = run(m)
	if errors.Is(err, migrate.ErrNoChange) {
		log.Printf("INFO: No migrations to apply (%s)", direction)
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", direction, err)
	}
	version, dirty, verr := m.Version()
	if verr == nil {
		log.Printf("INFO: Migrated %s to version %d (dirty=%t)", direction, version, dirty)
	}
	return nil
}
