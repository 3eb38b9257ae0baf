package engine

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/voicevault/voicevault/internal/entities"
	"github.com/voicevault/voicevault/internal/errors"
	"github.com/voicevault/voicevault/internal/privacy"
)

// Queries shared by preview and repair. Preview counts the rows a repair
// would touch; repair snapshots exactly those rows before mutating them.
const (
	orphanTranscriptWhere = `NOT EXISTS (SELECT 1 FROM recordings r WHERE r.id = transcripts.recording_id)`
	orphanEmbeddingWhere  = `NOT EXISTS (SELECT 1 FROM transcripts t WHERE t.id = embeddings.transcript_id)`

	// All but the most-recently-created live recording per filename.
	duplicateRecordingWhere = `recordings.location != 'deleted' AND recordings.id <> (
		SELECT r2.id FROM recordings r2
		WHERE r2.filename = recordings.filename AND r2.location != 'deleted'
		ORDER BY r2.created_at DESC, r2.id DESC LIMIT 1)`

	invalidMeetingRefWhere = `recordings.meeting_id IS NOT NULL AND NOT EXISTS (
		SELECT 1 FROM meetings m WHERE m.id = recordings.meeting_id)`
)

// PreviewCleanup reports counts of orphaned transcripts, orphaned
// embeddings, duplicate recordings by filename, and invalid meeting
// references. Read-only, safe concurrently with ordinary reads.
func (e *Engine) PreviewCleanup(ctx context.Context) (*CleanupPreview, error) {
	preview := &CleanupPreview{}

	counts := []struct {
		model any
		where string
		dest  *int64
	}{
		{&entities.Transcript{}, orphanTranscriptWhere, &preview.OrphanedTranscripts},
		{&entities.Embedding{}, orphanEmbeddingWhere, &preview.OrphanedEmbeddings},
		{&entities.Recording{}, duplicateRecordingWhere, &preview.DuplicateRecordings},
		{&entities.Recording{}, invalidMeetingRefWhere, &preview.InvalidMeetingRefs},
	}

	for _, c := range counts {
		if err := e.db.WithContext(ctx).Model(c.model).Where(c.where).Count(c.dest).Error; err != nil {
			return nil, privacy.SanitizeError(
				errors.Newf("cleanup preview failed: %v", err).
					Component("cleanup").
					Category(errors.CategoryDatabase).
					Build())
		}
	}

	return preview, nil
}

// RunCleanup repairs each inconsistency category: orphaned transcripts and
// embeddings are deleted, duplicate recordings are marked with the sentinel
// location, dangling meeting references are cleared. Each category snapshots
// its affected rows first and fails in isolation.
func (e *Engine) RunCleanup(ctx context.Context) *CleanupReport {
	report := &CleanupReport{AttemptID: uuid.NewString()}

	if !e.lock.TryAcquire() {
		report.Errors = append(report.Errors, lockHeldMessage)
		return report
	}
	defer e.lock.Release()

	categories := []struct {
		name string
		run  func(context.Context, string) (int64, error)
		dest *int64
	}{
		{"orphaned-transcripts", e.repairOrphanTranscripts, &report.OrphanTranscriptsRemoved},
		{"orphaned-embeddings", e.repairOrphanEmbeddings, &report.OrphanEmbeddingsRemoved},
		{"duplicate-recordings", e.repairDuplicateRecordings, &report.DuplicatesMarked},
		{"invalid-meeting-refs", e.repairInvalidMeetingRefs, &report.MeetingRefsCleared},
	}

	for _, category := range categories {
		count, err := category.run(ctx, report.AttemptID)
		if err != nil {
			// One failing category does not block the others.
			e.logger.Error("cleanup category failed", "category", category.name, "error", err)
			report.Errors = append(report.Errors,
				category.name+": "+privacy.ScrubMessage(err.Error()))
			continue
		}
		*category.dest = count
		e.metrics.RecordCleanupRepairs(category.name, count)
		e.logger.Info("cleanup category repaired", "category", category.name, "rows", count)
	}

	report.Success = len(report.Errors) == 0
	if report.Success {
		// Snapshots have served their purpose once every category committed.
		if err := e.backups.Dispose(ctx, report.AttemptID); err != nil {
			e.logger.Warn("failed to dispose cleanup backups", "error", err)
		}
	}
	return report
}

func (e *Engine) repairOrphanTranscripts(ctx context.Context, attemptID string) (int64, error) {
	if err := e.backups.Snapshot(ctx, attemptID, "transcripts", orphanTranscriptWhere); err != nil {
		return 0, err
	}
	var count int64
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where(orphanTranscriptWhere).Delete(&entities.Transcript{})
		count = result.RowsAffected
		return result.Error
	})
	return count, err
}

func (e *Engine) repairOrphanEmbeddings(ctx context.Context, attemptID string) (int64, error) {
	if err := e.backups.Snapshot(ctx, attemptID, "embeddings", orphanEmbeddingWhere); err != nil {
		return 0, err
	}
	var count int64
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where(orphanEmbeddingWhere).Delete(&entities.Embedding{})
		count = result.RowsAffected
		return result.Error
	})
	return count, err
}

// repairDuplicateRecordings marks every duplicate except the most recently
// created with the sentinel location. Losers are kept, never deleted.
func (e *Engine) repairDuplicateRecordings(ctx context.Context, attemptID string) (int64, error) {
	if err := e.backups.Snapshot(ctx, attemptID, "recordings", duplicateRecordingWhere); err != nil {
		return 0, err
	}
	var count int64
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Recording{}).
			Where(duplicateRecordingWhere).
			Update("location", entities.DeletedLocationSentinel)
		count = result.RowsAffected
		return result.Error
	})
	return count, err
}

// repairInvalidMeetingRefs clears dangling meeting references; the
// recordings themselves are kept.
func (e *Engine) repairInvalidMeetingRefs(ctx context.Context, attemptID string) (int64, error) {
	if err := e.backups.Snapshot(ctx, attemptID, "recordings", invalidMeetingRefWhere); err != nil {
		return 0, err
	}
	var count int64
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Recording{}).
			Where(invalidMeetingRefWhere).
			Update("meeting_id", nil)
		count = result.RowsAffected
		return result.Error
	})
	return count, err
}
