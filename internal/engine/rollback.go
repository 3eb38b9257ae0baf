package engine

import (
	"context"
	"fmt"

	"github.com/voicevault/voicevault/internal/entities"
	"github.com/voicevault/voicevault/internal/errors"
	"github.com/voicevault/voicevault/internal/privacy"
)

// normalizedTables are the target-schema tables removed by a rollback, in
// child-before-parent order.
var normalizedTables = []string{
	entities.ActionItem{}.TableName(),
	entities.Decision{}.TableName(),
	entities.FollowUp{}.TableName(),
	entities.KnowledgeCapture{}.TableName(),
}

// RollbackMigration reverts a completed migration (deliberate downgrade) or
// a failed attempt with a backup present. It takes the same exclusive lock
// as forward migration, restores the snapshot, removes the normalized
// tables, disposes the consumed backups and resets the migration status to
// pending. Absent a backup it fails closed with a non-retryable error.
func (e *Engine) RollbackMigration(ctx context.Context) *RollbackResult {
	result := &RollbackResult{}

	if !e.lock.TryAcquire() {
		e.metrics.RecordRollbackAttempt("refused")
		result.Errors = append(result.Errors, lockHeldMessage)
		return result
	}
	defer e.lock.Release()

	state, err := e.state.Get(ctx)
	if err != nil {
		e.metrics.RecordRollbackAttempt("failed")
		result.Errors = append(result.Errors, privacy.ScrubMessage(err.Error()))
		return result
	}

	if state.Status != entities.MigrationStatusCompleted && state.Status != entities.MigrationStatusFailed {
		e.metrics.RecordRollbackAttempt("refused")
		result.Errors = append(result.Errors,
			fmt.Sprintf("rollback unavailable: migration status is %s", state.Status))
		return result
	}

	attemptID := state.LastAttemptID
	has, err := e.backups.HasBackups(ctx, attemptID)
	if err != nil {
		e.metrics.RecordRollbackAttempt("failed")
		result.Errors = append(result.Errors, privacy.ScrubMessage(err.Error()))
		return result
	}
	if !has {
		// Fail closed: without a snapshot there is no exact reversal.
		e.metrics.RecordRollbackAttempt("refused")
		rbErr := errors.Newf("rollback unavailable: no backup exists for attempt %s", attemptID).
			Component("engine").
			Category(errors.CategoryRollbackUnavailable).
			Build()
		result.Errors = append(result.Errors, privacy.ScrubMessage(rbErr.Error()))
		return result
	}

	e.notifier.Register(attemptID)
	defer e.notifier.Unregister(attemptID)
	e.logger.Info("rollback started", "attempt_id", attemptID, "from_status", state.Status)

	if err := e.backups.Restore(ctx, attemptID); err != nil {
		e.metrics.RecordRollbackAttempt("failed")
		result.Errors = append(result.Errors, privacy.ScrubMessage(err.Error()))
		return result
	}

	// Migration markers are only ever written by the migration itself, so
	// clearing them is an exact inverse even for rows outside the snapshot.
	clearErr := e.db.WithContext(ctx).Model(&entities.Recording{}).
		Where("migration_status = ?", entities.RowMigrated).
		Updates(map[string]any{
			"migration_status":     "",
			"migrated_at":          nil,
			"knowledge_capture_id": nil,
		}).Error
	if clearErr != nil {
		e.metrics.RecordRollbackAttempt("failed")
		result.Errors = append(result.Errors, privacy.ScrubMessage(clearErr.Error()))
		return result
	}

	// Remove the normalized tables created by the attempt. A failed attempt
	// never committed them, the drops are no-ops then.
	for _, table := range normalizedTables {
		if err := e.db.WithContext(ctx).Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q`, table)).Error; err != nil {
			e.metrics.RecordRollbackAttempt("failed")
			result.Errors = append(result.Errors, privacy.ScrubMessage(err.Error()))
			return result
		}
	}

	if err := e.state.MarkRolledBack(ctx); err != nil {
		e.metrics.RecordRollbackAttempt("failed")
		result.Errors = append(result.Errors, privacy.ScrubMessage(err.Error()))
		return result
	}

	// The backups have been consumed.
	if err := e.backups.Dispose(ctx, attemptID); err != nil {
		e.logger.Warn("failed to dispose consumed backups", "error", err)
	}

	if err := e.state.ResetToPending(ctx); err != nil {
		e.metrics.RecordRollbackAttempt("failed")
		result.Errors = append(result.Errors, privacy.ScrubMessage(err.Error()))
		return result
	}

	e.metrics.RecordRollbackAttempt("completed")
	e.notifier.Publish(attemptID, PhaseRolledBack, 0)
	e.logger.Info("rollback completed", "attempt_id", attemptID)

	result.Success = true
	return result
}
