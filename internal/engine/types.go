package engine

import (
	"time"

	"github.com/voicevault/voicevault/internal/entities"
)

// CleanupPreview holds read-only counts of the inconsistencies the repairer
// would fix. No mutation happens while producing it.
type CleanupPreview struct {
	OrphanedTranscripts int64 `json:"orphaned_transcripts"`
	OrphanedEmbeddings  int64 `json:"orphaned_embeddings"`
	DuplicateRecordings int64 `json:"duplicate_recordings"`
	InvalidMeetingRefs  int64 `json:"invalid_meeting_refs"`
}

// CleanupReport is the outcome of one repair run. Categories fail in
// isolation: a failed category contributes an error while the others still
// report their counts.
type CleanupReport struct {
	AttemptID                string   `json:"attempt_id"`
	OrphanTranscriptsRemoved int64    `json:"orphan_transcripts_removed"`
	OrphanEmbeddingsRemoved  int64    `json:"orphan_embeddings_removed"`
	DuplicatesMarked         int64    `json:"duplicates_marked"`
	MeetingRefsCleared       int64    `json:"meeting_refs_cleared"`
	Errors                   []string `json:"errors,omitempty"` // sanitized, one per failed category
	Success                  bool     `json:"success"`
}

// MigrationStats summarizes what one migration attempt created.
type MigrationStats struct {
	EligiblePairs   int64 `json:"eligible_pairs"`
	CapturesCreated int64 `json:"captures_created"`
	ActionItems     int64 `json:"action_items"`
	Decisions       int64 `json:"decisions"`
	FollowUps       int64 `json:"follow_ups"`
	Warnings        int64 `json:"warnings"`
	SchemaVersion   int   `json:"schema_version"`
}

// MigrationResult is returned by RunMigration.
type MigrationResult struct {
	Success   bool           `json:"success"`
	AttemptID string         `json:"attempt_id"`
	Errors    []string       `json:"errors,omitempty"` // sanitized
	Stats     MigrationStats `json:"stats"`
}

// RollbackResult is returned by RollbackMigration.
type RollbackResult struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"` // sanitized
}

// MigrationPreview reports what the next attempt would find, without
// touching anything.
type MigrationPreview struct {
	EligiblePairs            int64 `json:"eligible_pairs"`
	TranscriptlessRecordings int64 `json:"transcriptless_recordings"`
}

// Status reports the persisted migration state plus derived figures.
type Status struct {
	CurrentVersion           int                      `json:"current_version"`
	Status                   entities.MigrationStatus `json:"status"`
	LastAttemptAt            *time.Time               `json:"last_attempt_at,omitempty"`
	LastError                string                   `json:"last_error,omitempty"`
	PendingRecordings        int64                    `json:"pending_recordings"`
	TranscriptlessRecordings int64                    `json:"transcriptless_recordings"`
	LeftoverBackups          []string                 `json:"leftover_backups,omitempty"`
}
