package engine

import (
	"context"

	"github.com/voicevault/voicevault/internal/entities"
	"github.com/voicevault/voicevault/internal/privacy"
)

// GetStatus reports the persisted schema version and migration status, plus
// the size of the unmigrated cohort and any leftover backup tables from
// earlier attempts. Read-only.
func (e *Engine) GetStatus(ctx context.Context) (*Status, error) {
	state, err := e.state.Get(ctx)
	if err != nil {
		return nil, privacy.SanitizeError(err)
	}

	var pending, transcriptless int64
	if err := e.db.WithContext(ctx).Model(&entities.Recording{}).
		Where(eligibleRecordingWhere).Count(&pending).Error; err != nil {
		return nil, privacy.SanitizeError(err)
	}
	if err := e.db.WithContext(ctx).Model(&entities.Recording{}).
		Where(transcriptlessRecordingWhere).Count(&transcriptless).Error; err != nil {
		return nil, privacy.SanitizeError(err)
	}

	leftovers, err := e.backups.List(ctx)
	if err != nil {
		return nil, privacy.SanitizeError(err)
	}

	return &Status{
		CurrentVersion:           state.SchemaVersion,
		Status:                   state.Status,
		LastAttemptAt:            state.LastAttemptAt,
		LastError:                state.LastError, // persisted pre-sanitized
		PendingRecordings:        pending,
		TranscriptlessRecordings: transcriptless,
		LeftoverBackups:          leftovers,
	}, nil
}

// PreviewMigration reports how many recording/transcript pairs the next
// migration attempt would create captures for, and how many live recordings
// cannot migrate because they have no transcript. Read-only.
func (e *Engine) PreviewMigration(ctx context.Context) (*MigrationPreview, error) {
	preview := &MigrationPreview{}
	if err := e.db.WithContext(ctx).Model(&entities.Recording{}).
		Where(eligibleRecordingWhere).Count(&preview.EligiblePairs).Error; err != nil {
		return nil, privacy.SanitizeError(err)
	}
	if err := e.db.WithContext(ctx).Model(&entities.Recording{}).
		Where(transcriptlessRecordingWhere).Count(&preview.TranscriptlessRecordings).Error; err != nil {
		return nil, privacy.SanitizeError(err)
	}
	return preview, nil
}
