package db

import (
	"fmt"
	"go-ledger-api/config"
	"go-ledger-api/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies all pending schema migrations before the server starts
// serving traffic.
func RunMigrations() error {
	cfg := config.AppConfig.Database

	migrationsDir := cfg.MigrationsDir
	if migrationsDir == "" {
		migrationsDir = "db/migrations"
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)

	mig, err := migrate.New("file://"+migrationsDir, connStr)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to create migrate instance")
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Log.WithError(err).Error("Failed to apply migrations")
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Log.Info("Database schema is up to date")
	return nil
}
