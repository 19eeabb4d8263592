package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/gurbanow/rideline/pkg/config"
)

// Migrate applies all pending schema migrations from the configured
// directory. A database that is already up to date is not an error.
func Migrate(cfg *config.DatabaseConfig) error {
	m, err := migrate.New(fmt.Sprintf("file://%s", cfg.MigrationsDir), cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
