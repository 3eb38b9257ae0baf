// Package backup captures affected rows into attempt-scoped shadow tables
// before destructive operations, and restores them on demand. A snapshot is
// structurally identical to its source table but holds only the rows the
// attempt will touch. Restore reverses affected rows wholesale by primary
// key, which reinstates deleted rows and reverts updated scalar fields in
// one statement.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/voicevault/voicevault/internal/errors"
)

// DefaultTablePrefix is used when no prefix is configured.
const DefaultTablePrefix = "vv_backup"

// identifierPattern restricts table names and attempt keys to characters
// safe to interpolate into DDL.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Manager creates, restores and disposes attempt-scoped snapshot tables.
type Manager struct {
	db     *gorm.DB
	prefix string
	logger *slog.Logger
}

// NewManager creates a backup manager on the given database.
func NewManager(db *gorm.DB, prefix string, logger *slog.Logger) *Manager {
	if prefix == "" {
		prefix = DefaultTablePrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{db: db, prefix: prefix, logger: logger}
}

// Snapshot freezes the rows of sourceTable matching the where clause into
// the attempt's shadow table for that source. Must be called before the
// first destructive statement touching those rows. An attempt keeps one
// shadow table per source table: a second snapshot of the same source
// appends the newly affected rows, already-frozen rows stay frozen.
// Source tables are keyed by an integer "id" primary key.
func (m *Manager) Snapshot(ctx context.Context, attemptID, sourceTable, where string, args ...any) error {
	name, err := m.backupTableName(sourceTable, attemptID)
	if err != nil {
		return err
	}
	if where == "" {
		where = "1=1"
	}

	exists, err := m.tableExists(ctx, name)
	if err != nil {
		return err
	}

	var stmt string
	if exists {
		stmt = fmt.Sprintf(
			`INSERT INTO %q SELECT * FROM %q WHERE (%s) AND %q.id NOT IN (SELECT id FROM %q)`,
			name, sourceTable, where, sourceTable, name)
	} else {
		stmt = fmt.Sprintf(`CREATE TABLE %q AS SELECT * FROM %q WHERE %s`, name, sourceTable, where)
	}

	if err := m.db.WithContext(ctx).Exec(stmt, args...).Error; err != nil {
		return errors.Newf("failed to snapshot %s: %v", sourceTable, err).
			Component("backup").
			Category(errors.CategoryDatabase).
			Context("attempt_id", attemptID).
			Build()
	}

	m.logger.Info("snapshot created", "table", sourceTable, "backup_table", name, "attempt_id", attemptID)
	return nil
}

// tableExists reports whether a table with the given name exists.
func (m *Manager) tableExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).
		Scan(&count).Error
	if err != nil {
		return false, errors.Newf("failed to check backup table %s: %v", name, err).
			Component("backup").
			Category(errors.CategoryDatabase).
			Build()
	}
	return count > 0, nil
}

// Restore reapplies every backed-up row of the attempt onto the live tables
// by primary key. Rows deleted since the snapshot are reinserted, rows
// updated since the snapshot get their fields reverted.
func (m *Manager) Restore(ctx context.Context, attemptID string) error {
	tables, err := m.tablesFor(ctx, attemptID)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		return errors.Newf("no backup exists for attempt %s", attemptID).
			Component("backup").
			Category(errors.CategoryRollbackUnavailable).
			Build()
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, backupTable := range tables {
			source, err := m.sourceOf(backupTable, attemptID)
			if err != nil {
				return err
			}
			stmt := fmt.Sprintf(`INSERT OR REPLACE INTO %q SELECT * FROM %q`, source, backupTable)
			if err := tx.Exec(stmt).Error; err != nil {
				return errors.Newf("failed to restore %s from %s: %v", source, backupTable, err).
					Component("backup").
					Category(errors.CategoryDatabase).
					Build()
			}
			m.logger.Info("rows restored", "table", source, "backup_table", backupTable, "attempt_id", attemptID)
		}
		return nil
	})
}

// Dispose drops all backup tables for the attempt. Called only after a
// confirmed terminal outcome or when the attempt's backups were consumed.
func (m *Manager) Dispose(ctx context.Context, attemptID string) error {
	tables, err := m.tablesFor(ctx, attemptID)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := m.db.WithContext(ctx).Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q`, table)).Error; err != nil {
			return errors.Newf("failed to drop backup table %s: %v", table, err).
				Component("backup").
				Category(errors.CategoryDatabase).
				Build()
		}
	}
	if len(tables) > 0 {
		m.logger.Info("backups disposed", "attempt_id", attemptID, "tables", len(tables))
	}
	return nil
}

// DisposeAll drops every backup table regardless of attempt, used when a new
// attempt supersedes leftovers of earlier ones.
func (m *Manager) DisposeAll(ctx context.Context) error {
	tables, err := m.List(ctx)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err := m.db.WithContext(ctx).Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q`, table)).Error; err != nil {
			return errors.Newf("failed to drop backup table %s: %v", table, err).
				Component("backup").
				Category(errors.CategoryDatabase).
				Build()
		}
	}
	return nil
}

// HasBackups reports whether any backup table exists for the attempt.
func (m *Manager) HasBackups(ctx context.Context, attemptID string) (bool, error) {
	tables, err := m.tablesFor(ctx, attemptID)
	if err != nil {
		return false, err
	}
	return len(tables) > 0, nil
}

// List returns the names of all backup tables in the database, including
// leftovers from crashed attempts.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	var names []string
	err := m.db.WithContext(ctx).
		Raw(`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE ?`, m.prefix+"_%").
		Scan(&names).Error
	if err != nil {
		return nil, errors.Newf("failed to list backup tables: %v", err).
			Component("backup").
			Category(errors.CategoryDatabase).
			Build()
	}
	return names, nil
}

// tablesFor returns the backup tables belonging to one attempt.
func (m *Manager) tablesFor(ctx context.Context, attemptID string) ([]string, error) {
	key, err := attemptKey(attemptID)
	if err != nil {
		return nil, err
	}
	var names []string
	err = m.db.WithContext(ctx).
		Raw(`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE ?`, m.prefix+"_%_"+key).
		Scan(&names).Error
	if err != nil {
		return nil, errors.Newf("failed to list backup tables: %v", err).
			Component("backup").
			Category(errors.CategoryDatabase).
			Build()
	}
	return names, nil
}

// backupTableName builds the shadow table name for a source table and
// attempt, validating both against the identifier pattern.
func (m *Manager) backupTableName(sourceTable, attemptID string) (string, error) {
	if !identifierPattern.MatchString(sourceTable) {
		return "", errors.Newf("invalid source table name %q", sourceTable).
			Component("backup").
			Category(errors.CategoryValidation).
			Build()
	}
	key, err := attemptKey(attemptID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s_%s", m.prefix, sourceTable, key), nil
}

// sourceOf derives the source table name back out of a backup table name.
func (m *Manager) sourceOf(backupTable, attemptID string) (string, error) {
	key, err := attemptKey(attemptID)
	if err != nil {
		return "", err
	}
	source := strings.TrimPrefix(backupTable, m.prefix+"_")
	source = strings.TrimSuffix(source, "_"+key)
	if source == "" || source == backupTable || !identifierPattern.MatchString(source) {
		return "", errors.Newf("backup table %q does not belong to attempt %s", backupTable, attemptID).
			Component("backup").
			Category(errors.CategoryValidation).
			Build()
	}
	return source, nil
}

// attemptKey normalizes an attempt identifier (usually a UUID) into a safe
// table-name fragment.
func attemptKey(attemptID string) (string, error) {
	key := strings.ReplaceAll(attemptID, "-", "")
	if !identifierPattern.MatchString(key) {
		return "", errors.Newf("invalid attempt identifier %q", attemptID).
			Component("backup").
			Category(errors.CategoryValidation).
			Build()
	}
	return key, nil
}
