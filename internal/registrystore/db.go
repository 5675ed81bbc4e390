// Package registrystore is the registry daemon's account-enumeration
// store (spec.md sections 1 and 6): the one piece of durable state this
// runtime owns is which accounts/providers are installed — not their
// credentials, which remain the authentication broker's responsibility.
// Mirrors arkeep's internal/db package in structure, repurposed to a
// two-table schema.
package registrystore

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	// modernc pure-Go SQLite driver, registers itself as "sqlite" in
	// database/sql — no CGO required, matching arkeep's internal/db.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config holds the parameters needed to open the registry store.
type Config struct {
	// DSN is the SQLite file path, or ":memory:" for tests.
	DSN    string
	Logger *zap.Logger
}

// Open opens the SQLite-backed store, applies pending migrations, and
// returns the ready-to-use *gorm.DB. Unlike arkeep's db.New, there is no
// Postgres branch: SPEC_FULL.md drops it, since a handful of installed-
// provider rows never justifies a network database (see DESIGN.md).
func Open(cfg Config) (*gorm.DB, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("registrystore: logger is required")
	}

	sqlDB, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("registrystore: opening sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	database, err := gorm.Open(gormsqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: newZapGORMLogger(cfg.Logger),
	})
	if err != nil {
		return nil, fmt.Errorf("registrystore: initializing gorm: %w", err)
	}

	if err := runMigrations(sqlDB, cfg.Logger); err != nil {
		return nil, fmt.Errorf("registrystore: migrations: %w", err)
	}

	return database, nil
}

func runMigrations(sqlDB *sql.DB, logger *zap.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}
	drv, err := migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("applying migrations: %w", err)
	}
	logger.Info("registry store migrations applied")
	return nil
}
