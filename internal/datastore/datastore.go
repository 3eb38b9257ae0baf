// Package datastore opens the SQLite capture database and prepares the
// legacy tables. The normalized target tables are never created here; they
// come from the canonical schema definition during migration.
package datastore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voicevault/voicevault/internal/entities"
	"github.com/voicevault/voicevault/internal/errors"
)

// Open opens the SQLite database at path and auto-migrates the legacy
// tables. The migration_state singleton row is seeded on first open.
func Open(path string, logger *slog.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Newf("failed to create database directory: %v", err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Build()
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: newGormLogger(logger),
	})
	if err != nil {
		return nil, errors.Newf("failed to open database: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	if err := prepareLegacy(db); err != nil {
		return nil, err
	}

	logger.Info("database opened", "legacy_schema_version", entities.LegacySchemaVersion)
	return db, nil
}

// OpenInMemory opens a private in-memory database for tests. The connection
// pool is capped at one connection so the memory database is shared across
// all statements.
func OpenInMemory(logger *slog.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: newGormLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := prepareLegacy(db); err != nil {
		return nil, err
	}
	return db, nil
}

// prepareLegacy creates the legacy tables and seeds the migration state row.
func prepareLegacy(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entities.Recording{},
		&entities.Transcript{},
		&entities.Embedding{},
		&entities.Meeting{},
		&entities.MigrationState{},
	); err != nil {
		return errors.Newf("failed to migrate legacy tables: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	seed := entities.MigrationState{
		ID:            1,
		SchemaVersion: entities.LegacySchemaVersion,
		Status:        entities.MigrationStatusPending,
	}
	if err := db.Where(entities.MigrationState{ID: 1}).FirstOrCreate(&seed).Error; err != nil {
		return errors.Newf("failed to seed migration state: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	return nil
}
