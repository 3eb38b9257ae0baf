package engine

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/voicevault/voicevault/internal/entities"
	"github.com/voicevault/voicevault/internal/errors"
)

// maxReportedRows caps per-row verification reasons so a mass failure does
// not produce an unbounded reason list.
const maxReportedRows = 20

// verifyMigration runs the structural integrity checks inside the migration
// transaction, before commit. All failures are accumulated rather than
// stopping at the first; any failure aborts the transaction, it is never a
// soft warning at this layer.
func verifyMigration(tx *gorm.DB) error {
	var reasons []string

	reasons = append(reasons, checkRowCountParity(tx)...)
	reasons = append(reasons, checkCaptureFields(tx)...)
	reasons = append(reasons, checkMeetingLinks(tx)...)
	reasons = append(reasons, checkSourceLinks(tx)...)

	if len(reasons) == 0 {
		return nil
	}

	return errors.Newf("integrity verification failed: %s", strings.Join(reasons, "; ")).
		Component("engine").
		Category(errors.CategoryVerification).
		Context("reasons", reasons).
		Build()
}

// checkRowCountParity verifies count parity between migrated recordings and
// created knowledge captures.
func checkRowCountParity(tx *gorm.DB) []string {
	var migrated, captures int64
	if err := tx.Model(&entities.Recording{}).
		Where("migration_status = ?", entities.RowMigrated).
		Count(&migrated).Error; err != nil {
		return []string{fmt.Sprintf("failed to count migrated recordings: %v", err)}
	}
	if err := tx.Model(&entities.KnowledgeCapture{}).Count(&captures).Error; err != nil {
		return []string{fmt.Sprintf("failed to count knowledge captures: %v", err)}
	}
	if migrated != captures {
		return []string{fmt.Sprintf("row-count mismatch: %d migrated recordings vs %d knowledge captures", migrated, captures)}
	}
	return nil
}

// checkCaptureFields verifies every capture has a non-empty title, a capture
// timestamp and a source-recording link.
func checkCaptureFields(tx *gorm.DB) []string {
	var rows []struct {
		ID                uint
		Title             string
		SourceRecordingID uint
	}
	err := tx.Model(&entities.KnowledgeCapture{}).
		Select("id, title, source_recording_id").
		Where(`title IS NULL OR title = ''
			OR captured_at IS NULL OR captured_at = ''
			OR source_recording_id IS NULL OR source_recording_id = 0`).
		Limit(maxReportedRows).
		Scan(&rows).Error
	if err != nil {
		return []string{fmt.Sprintf("failed to check capture fields: %v", err)}
	}

	var reasons []string
	for _, row := range rows {
		switch {
		case row.Title == "":
			reasons = append(reasons, fmt.Sprintf("capture %d has empty title", row.ID))
		case row.SourceRecordingID == 0:
			reasons = append(reasons, fmt.Sprintf("capture %d has no source-recording link", row.ID))
		default:
			reasons = append(reasons, fmt.Sprintf("capture %d has no capture timestamp", row.ID))
		}
	}
	return reasons
}

// checkMeetingLinks verifies every set meeting link resolves. An invalid
// optional link is a hard abort, same severity as a required link.
func checkMeetingLinks(tx *gorm.DB) []string {
	return checkDanglingLinks(tx,
		`meeting_id IS NOT NULL AND NOT EXISTS (SELECT 1 FROM meetings m WHERE m.id = knowledge_captures.meeting_id)`,
		"capture %d has dangling meeting link")
}

// checkSourceLinks verifies every source-recording link resolves.
func checkSourceLinks(tx *gorm.DB) []string {
	return checkDanglingLinks(tx,
		`NOT EXISTS (SELECT 1 FROM recordings r WHERE r.id = knowledge_captures.source_recording_id)`,
		"capture %d has dangling source-recording link")
}

func checkDanglingLinks(tx *gorm.DB, where, format string) []string {
	var ids []uint
	err := tx.Model(&entities.KnowledgeCapture{}).
		Where(where).
		Limit(maxReportedRows).
		Pluck("id", &ids).Error
	if err != nil {
		return []string{fmt.Sprintf("failed to check capture links: %v", err)}
	}

	var reasons []string
	for _, id := range ids {
		reasons = append(reasons, fmt.Sprintf(format, id))
	}
	return reasons
}

// verificationReasons extracts the accumulated reason list from a
// verification error, empty otherwise.
func verificationReasons(err error) []string {
	var ee *errors.EnhancedError
	if !errors.As(err, &ee) || ee.Category != errors.CategoryVerification {
		return nil
	}
	if reasons, ok := ee.GetContext()["reasons"].([]string); ok {
		return reasons
	}
	return nil
}
