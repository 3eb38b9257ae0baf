package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voicevault/voicevault/internal/entities"
	"github.com/voicevault/voicevault/internal/errors"
	"github.com/voicevault/voicevault/internal/normalize"
	"github.com/voicevault/voicevault/internal/privacy"
	"github.com/voicevault/voicevault/internal/schema"
)

// lockHeldMessage is the outward-facing text for a refused attempt. It never
// varies, so near-simultaneous callers see a stable, retry-free refusal.
const lockHeldMessage = "another migration or rollback attempt is already in progress"

// migrationBatchSize is the number of recording/transcript pairs processed
// per batch during data transformation.
const migrationBatchSize = 100

// summaryMaxRunes bounds the capture summary derived from the transcript body.
const summaryMaxRunes = 500

// eligibleRecordingWhere selects the migration cohort: recordings not yet
// migrated, not marked as duplicate losers, having at least one transcript.
const eligibleRecordingWhere = `recordings.migration_status = '' AND recordings.location != 'deleted'
	AND EXISTS (SELECT 1 FROM transcripts t WHERE t.recording_id = recordings.id)`

// transcriptlessRecordingWhere selects live, unmigrated recordings that have
// no transcript at all. They cannot migrate and are not repairable, but they
// must still show up in reporting so operators know they exist.
const transcriptlessRecordingWhere = `recordings.migration_status = '' AND recordings.location != 'deleted'
	AND NOT EXISTS (SELECT 1 FROM transcripts t WHERE t.recording_id = recordings.id)`

// RunMigration executes the full Locked → Committed flow: lock, backup,
// schema-apply, data-transform, verify, commit. Any fault aborts the
// transaction, restores from backup, and records a sanitized error. The
// per-row migration markers make re-runs no-ops for already-migrated rows.
func (e *Engine) RunMigration(ctx context.Context) *MigrationResult {
	result := &MigrationResult{AttemptID: uuid.NewString()}

	if !e.lock.TryAcquire() {
		e.metrics.RecordMigrationAttempt("refused")
		result.Errors = append(result.Errors, lockHeldMessage)
		return result
	}
	defer e.lock.Release()

	e.notifier.Register(result.AttemptID)
	defer e.notifier.Unregister(result.AttemptID)
	e.notifier.Publish(result.AttemptID, PhaseLocked, 0)
	e.logger.Info("migration attempt started", "attempt_id", result.AttemptID)

	// The canonical definition is the single source of truth for the target
	// structure; if it cannot be loaded nothing has been touched yet.
	def, err := schema.Load()
	if err != nil {
		e.metrics.RecordMigrationAttempt("failed")
		result.Errors = append(result.Errors, privacy.ScrubMessage(err.Error()))
		return result
	}
	result.Stats.SchemaVersion = def.Version

	// Nothing has been touched yet if the status transition is refused
	// (e.g. a stale in-progress marker left by a crash).
	if err := e.state.BeginAttempt(ctx, result.AttemptID); err != nil {
		e.metrics.RecordMigrationAttempt("failed")
		result.Errors = append(result.Errors, privacy.ScrubMessage(err.Error()))
		return result
	}

	if err := e.runPhases(ctx, result, def); err != nil {
		e.failAttempt(ctx, result, err)
		return result
	}

	if err := e.state.Complete(ctx, def.Version); err != nil {
		e.failAttempt(ctx, result, err)
		return result
	}

	e.metrics.RecordMigrationAttempt("committed")
	e.metrics.RecordMigratedRecords(result.Stats.CapturesCreated)
	e.notifier.Publish(result.AttemptID, PhaseCommitted, result.Stats.CapturesCreated)
	e.logger.Info("migration committed",
		"attempt_id", result.AttemptID,
		"captures", result.Stats.CapturesCreated,
		"schema_version", def.Version)

	result.Success = true
	return result
}

// runPhases executes backup, then schema-apply, data-transform and
// verification inside one all-or-nothing transaction.
func (e *Engine) runPhases(ctx context.Context, result *MigrationResult, def *schema.Definition) error {
	phaseStart := time.Now()

	// Snapshots must survive an aborted attempt for inspection and restore,
	// so they are frozen and committed before the transaction begins.
	// Leftovers of superseded attempts are dropped first.
	if err := e.backups.DisposeAll(ctx); err != nil {
		return err
	}
	if err := e.backups.Snapshot(ctx, result.AttemptID, "recordings", eligibleRecordingWhere); err != nil {
		return err
	}

	var cohort int64
	if err := e.db.WithContext(ctx).Model(&entities.Recording{}).
		Where(eligibleRecordingWhere).Count(&cohort).Error; err != nil {
		return errors.Newf("failed to count migration cohort: %v", err).
			Component("engine").
			Category(errors.CategoryDatabase).
			Build()
	}
	result.Stats.EligiblePairs = cohort
	e.notifier.Publish(result.AttemptID, PhaseBackingUp, cohort)
	e.metrics.ObservePhaseDuration(PhaseBackingUp, time.Since(phaseStart).Seconds())

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		phaseStart = time.Now()
		if err := applySchema(tx, def); err != nil {
			return err
		}
		e.notifier.Publish(result.AttemptID, PhaseSchemaApplied, 0)
		e.metrics.ObservePhaseDuration(PhaseSchemaApplied, time.Since(phaseStart).Seconds())

		phaseStart = time.Now()
		if err := e.transformData(tx, result); err != nil {
			return err
		}
		e.notifier.Publish(result.AttemptID, PhaseDataMigrated, result.Stats.CapturesCreated)
		e.metrics.ObservePhaseDuration(PhaseDataMigrated, time.Since(phaseStart).Seconds())

		phaseStart = time.Now()
		if err := verifyMigration(tx); err != nil {
			return err
		}
		e.notifier.Publish(result.AttemptID, PhaseVerified, 0)
		e.metrics.ObservePhaseDuration(PhaseVerified, time.Since(phaseStart).Seconds())
		return nil
	})
}

// failAttempt handles every fault path: restore from backup if one exists,
// persist the failed status with a sanitized message, release happens in the
// caller's defer.
func (e *Engine) failAttempt(ctx context.Context, result *MigrationResult, cause error) {
	e.logger.Error("migration attempt failed", "attempt_id", result.AttemptID, "error", cause)

	if has, err := e.backups.HasBackups(ctx, result.AttemptID); err == nil && has {
		// The transaction already unwound its statements; restore reapplies
		// the frozen rows so backed-up fields are reverted even when the
		// fault happened outside the transaction. Backups are kept for
		// inspection, not disposed here.
		if restoreErr := e.backups.Restore(ctx, result.AttemptID); restoreErr != nil {
			e.logger.Error("restore after failure failed", "error", restoreErr)
			result.Errors = append(result.Errors, privacy.ScrubMessage(restoreErr.Error()))
		}
	}

	sanitized := privacy.ScrubMessage(cause.Error())
	result.Errors = append(result.Errors, sanitized)
	if reasons := verificationReasons(cause); len(reasons) > 0 {
		for _, reason := range reasons {
			result.Errors = append(result.Errors, privacy.ScrubMessage(reason))
		}
	}

	if err := e.state.Fail(ctx, sanitized); err != nil {
		e.logger.Error("failed to persist failed status", "error", err)
	}

	e.metrics.RecordMigrationAttempt("failed")
	e.notifier.Publish(result.AttemptID, PhaseFailed, 0)
}

// applySchema executes the canonical target-schema statements verbatim.
// DDL is never hand-assembled here.
func applySchema(tx *gorm.DB, def *schema.Definition) error {
	for _, stmt := range def.Statements {
		if err := tx.Exec(stmt).Error; err != nil {
			return errors.Newf("schema apply failed: %v", err).
				Component("engine").
				Category(errors.CategoryTransaction).
				Build()
		}
	}
	return nil
}

// transformData creates one KnowledgeCapture per eligible recording/
// transcript pair and materializes its normalized children, then marks the
// source recording migrated. Batched on the recording id cursor.
func (e *Engine) transformData(tx *gorm.DB, result *MigrationResult) error {
	var lastID uint
	for {
		var batch []entities.Recording
		err := tx.Where(eligibleRecordingWhere).
			Where("recordings.id > ?", lastID).
			Order("recordings.id").
			Limit(migrationBatchSize).
			Find(&batch).Error
		if err != nil {
			return errors.Newf("failed to fetch migration batch: %v", err).
				Component("engine").
				Category(errors.CategoryTransaction).
				Build()
		}
		if len(batch) == 0 {
			return nil
		}

		for i := range batch {
			if err := e.migratePair(tx, &batch[i], result); err != nil {
				return err
			}
			lastID = batch[i].ID
		}
	}
}

// migratePair migrates a single recording and its transcript.
func (e *Engine) migratePair(tx *gorm.DB, rec *entities.Recording, result *MigrationResult) error {
	var transcript entities.Transcript
	err := tx.Where("recording_id = ?", rec.ID).Order("id").First(&transcript).Error
	if err != nil {
		return errors.Newf("failed to load transcript for recording %d: %v", rec.ID, err).
			Component("engine").
			Category(errors.CategoryTransaction).
			Build()
	}

	capture := buildCapture(rec, &transcript, result)
	if err := tx.Create(capture).Error; err != nil {
		return errors.Newf("failed to create knowledge capture for recording %d: %v", rec.ID, err).
			Component("engine").
			Category(errors.CategoryTransaction).
			Build()
	}
	result.Stats.CapturesCreated++

	if err := e.createChildren(tx, capture.ID, &transcript, result); err != nil {
		return err
	}

	now := time.Now()
	markErr := tx.Model(&entities.Recording{}).
		Where("id = ?", rec.ID).
		Updates(map[string]any{
			"migration_status":     entities.RowMigrated,
			"migrated_at":          &now,
			"knowledge_capture_id": capture.ID,
		}).Error
	if markErr != nil {
		return errors.Newf("failed to mark recording %d migrated: %v", rec.ID, markErr).
			Component("engine").
			Category(errors.CategoryTransaction).
			Build()
	}
	return nil
}

// buildCapture assembles the normalized capture from available metadata:
// the title falls back from recording title to filename, the capture
// timestamp comes from the recording, the source-recording link is
// preserved.
func buildCapture(rec *entities.Recording, transcript *entities.Transcript, result *MigrationResult) *entities.KnowledgeCapture {
	title := rec.Title
	if title == "" {
		title = rec.Filename
	}

	capturedAt := rec.RecordedAt
	if capturedAt.IsZero() {
		capturedAt = rec.CreatedAt
	}

	topics, warnings := normalize.Topics(transcript.TopicsJSON)
	result.Stats.Warnings += int64(len(warnings))
	topicsJSON := ""
	if len(topics) > 0 {
		if encoded, err := json.Marshal(topics); err == nil {
			topicsJSON = string(encoded)
		}
	}

	return &entities.KnowledgeCapture{
		Title:             title,
		CapturedAt:        capturedAt,
		SourceRecordingID: rec.ID,
		MeetingID:         rec.MeetingID,
		Summary:           summarize(transcript.Body),
		TopicsJSON:        topicsJSON,
	}
}

// createChildren normalizes the transcript's legacy blob fields into typed
// child records. Action items matching the follow-up keyword set are
// duplicated into the follow-up set.
func (e *Engine) createChildren(tx *gorm.DB, captureID uint, transcript *entities.Transcript, result *MigrationResult) error {
	actions := normalize.Items(transcript.ActionItemsJSON)
	decisions := normalize.Items(transcript.DecisionsJSON)
	followUps := normalize.Items(transcript.FollowUpsJSON)
	warnings := len(actions.Warnings) + len(decisions.Warnings) + len(followUps.Warnings)
	result.Stats.Warnings += int64(warnings)
	e.metrics.RecordNormalizerWarnings(warnings)
	for _, w := range actions.Warnings {
		e.logger.Warn("normalizer warning", "field", "action_items", "detail", w)
	}
	for _, w := range decisions.Warnings {
		e.logger.Warn("normalizer warning", "field", "decisions", "detail", w)
	}
	for _, w := range followUps.Warnings {
		e.logger.Warn("normalizer warning", "field", "follow_ups", "detail", w)
	}

	for i := range actions.Items {
		item := &actions.Items[i]
		row := entities.ActionItem{
			ID:        item.ID,
			CaptureID: captureID,
			Text:      item.Text,
			Assignee:  item.Assignee,
			Status:    item.Status,
			DueAt:     item.Due,
			SortOrder: item.SortOrder,
		}
		if err := tx.Create(&row).Error; err != nil {
			return childCreateError("action item", err)
		}
		result.Stats.ActionItems++
	}

	for i := range decisions.Items {
		item := &decisions.Items[i]
		row := entities.Decision{
			ID:        item.ID,
			CaptureID: captureID,
			Text:      item.Text,
			Status:    item.Status,
			SortOrder: item.SortOrder,
		}
		if err := tx.Create(&row).Error; err != nil {
			return childCreateError("decision", err)
		}
		result.Stats.Decisions++
	}

	nextOrder := 0
	for i := range followUps.Items {
		item := &followUps.Items[i]
		row := entities.FollowUp{
			ID:        item.ID,
			CaptureID: captureID,
			Text:      item.Text,
			Assignee:  item.Assignee,
			Status:    item.Status,
			SortOrder: nextOrder,
		}
		nextOrder++
		if err := tx.Create(&row).Error; err != nil {
			return childCreateError("follow-up", err)
		}
		result.Stats.FollowUps++
	}

	for _, derived := range normalize.DeriveFollowUps(actions.Items) {
		sourceID := derived.SourceItemID
		row := entities.FollowUp{
			ID:           derived.Item.ID,
			CaptureID:    captureID,
			Text:         derived.Item.Text,
			Assignee:     derived.Item.Assignee,
			Status:       derived.Item.Status,
			SourceItemID: &sourceID,
			SortOrder:    nextOrder,
		}
		nextOrder++
		if err := tx.Create(&row).Error; err != nil {
			return childCreateError("derived follow-up", err)
		}
		result.Stats.FollowUps++
	}

	return nil
}

func childCreateError(kind string, err error) error {
	return errors.Newf("failed to create %s: %v", kind, err).
		Component("engine").
		Category(errors.CategoryTransaction).
		Build()
}

// summarize derives the capture summary from the transcript body, bounded
// to summaryMaxRunes.
func summarize(body string) string {
	runes := []rune(body)
	if len(runes) <= summaryMaxRunes {
		return body
	}
	return string(runes[:summaryMaxRunes])
}
