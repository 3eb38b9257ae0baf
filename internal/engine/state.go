package engine

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/voicevault/voicevault/internal/entities"
	"github.com/voicevault/voicevault/internal/errors"
)

// stateManager persists the migration status and schema-version marker.
// Transitions are atomic SQL updates guarded by the expected current status,
// with RowsAffected checked to detect races.
type stateManager struct {
	db *gorm.DB
}

func newStateManager(db *gorm.DB) *stateManager {
	return &stateManager{db: db}
}

// Get returns the current migration state singleton.
func (m *stateManager) Get(ctx context.Context) (*entities.MigrationState, error) {
	var state entities.MigrationState
	if err := m.db.WithContext(ctx).First(&state, 1).Error; err != nil {
		return nil, errors.Newf("failed to get migration state: %v", err).
			Component("engine").
			Category(errors.CategoryDatabase).
			Build()
	}
	return &state, nil
}

// BeginAttempt transitions to in-progress. Any non-running status may start
// an attempt: a completed database re-runs as a no-op, a failed or
// rolled-back one retries.
func (m *stateManager) BeginAttempt(ctx context.Context, attemptID string) error {
	startable := []entities.MigrationStatus{
		entities.MigrationStatusPending,
		entities.MigrationStatusFailed,
		entities.MigrationStatusCompleted,
		entities.MigrationStatusRolledBack,
	}

	now := time.Now()
	return m.transition(ctx, startable, map[string]any{
		"status":          entities.MigrationStatusInProgress,
		"last_attempt_id": attemptID,
		"last_attempt_at": &now,
		"last_error":      "",
	})
}

// Complete transitions from in-progress to completed and persists the new
// schema version.
func (m *stateManager) Complete(ctx context.Context, schemaVersion int) error {
	return m.transition(ctx,
		[]entities.MigrationStatus{entities.MigrationStatusInProgress},
		map[string]any{
			"status":         entities.MigrationStatusCompleted,
			"schema_version": schemaVersion,
		})
}

// Fail transitions from in-progress to failed, recording the sanitized
// error message.
func (m *stateManager) Fail(ctx context.Context, sanitizedMsg string) error {
	return m.transition(ctx,
		[]entities.MigrationStatus{entities.MigrationStatusInProgress},
		map[string]any{
			"status":     entities.MigrationStatusFailed,
			"last_error": sanitizedMsg,
		})
}

// MarkRolledBack transitions from completed or failed to rolled-back and
// resets the schema-version marker.
func (m *stateManager) MarkRolledBack(ctx context.Context) error {
	return m.transition(ctx,
		[]entities.MigrationStatus{
			entities.MigrationStatusCompleted,
			entities.MigrationStatusFailed,
		},
		map[string]any{
			"status":         entities.MigrationStatusRolledBack,
			"schema_version": entities.LegacySchemaVersion,
		})
}

// ResetToPending finishes a rollback: rolled-back becomes pending.
func (m *stateManager) ResetToPending(ctx context.Context) error {
	return m.transition(ctx,
		[]entities.MigrationStatus{entities.MigrationStatusRolledBack},
		map[string]any{
			"status":     entities.MigrationStatusPending,
			"last_error": "",
		})
}

// transition performs one guarded status update.
func (m *stateManager) transition(ctx context.Context, from []entities.MigrationStatus, updates map[string]any) error {
	result := m.db.WithContext(ctx).
		Model(&entities.MigrationState{}).
		Where("id = 1 AND status IN ?", from).
		Updates(updates)

	if result.Error != nil {
		return errors.Newf("failed to update migration state: %v", result.Error).
			Component("engine").
			Category(errors.CategoryDatabase).
			Build()
	}

	if result.RowsAffected == 0 {
		current, err := m.Get(ctx)
		if err != nil {
			return err
		}
		return errors.Newf("cannot transition migration state: current status is %s", current.Status).
			Component("engine").
			Category(errors.CategoryState).
			Build()
	}

	return nil
}
