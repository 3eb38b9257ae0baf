package entities

import "time"

// DeletedLocationSentinel marks a duplicate recording that lost duplicate
// resolution. The row is kept, only its location is overwritten.
const DeletedLocationSentinel = "deleted"

// RowMigrated is the per-row migration marker value for a recording whose
// KnowledgeCapture has been created. An empty marker means not yet migrated.
const RowMigrated = "migrated"

// Recording is the legacy unit of captured audio plus file metadata.
// The migration markers live on the row itself rather than in a side table,
// which makes re-running a migration idempotent by construction.
type Recording struct {
	ID           uint   `gorm:"primaryKey"`
	Filename     string `gorm:"type:varchar(500);not null;index:idx_recording_filename"`
	Title        string `gorm:"type:varchar(500)"`
	Location     string `gorm:"type:varchar(1000)"` // file location; DeletedLocationSentinel for duplicate losers
	DurationSecs float64
	FileSize     int64
	MeetingID    *uint     `gorm:"index"` // optional calendar event link
	RecordedAt   time.Time `gorm:"index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`

	// Per-row migration markers.
	MigrationStatus    string     `gorm:"type:varchar(20);index;default:''"`
	MigratedAt         *time.Time
	KnowledgeCaptureID *uint
}

// TableName returns the table name for GORM.
func (Recording) TableName() string {
	return "recordings"
}

// IsMigrated reports whether this recording has already been migrated.
func (r *Recording) IsMigrated() bool {
	return r.MigrationStatus == RowMigrated
}
