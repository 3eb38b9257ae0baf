package entities

import "time"

// Transcript is the legacy free-text transcript of a recording. The JSON
// blob fields hold heterogeneous legacy shapes (bare strings, arrays of
// strings, arrays of objects with inconsistent keys) and are only ever read
// through the normalizer.
type Transcript struct {
	ID          uint   `gorm:"primaryKey"`
	RecordingID uint   `gorm:"not null;index:idx_transcript_recording"`
	Body        string `gorm:"type:text"`
	Language    string `gorm:"type:varchar(20)"`

	// Legacy free-form JSON blobs.
	ActionItemsJSON string `gorm:"type:text"`
	DecisionsJSON   string `gorm:"type:text"`
	FollowUpsJSON   string `gorm:"type:text"`
	TopicsJSON      string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Transcript) TableName() string {
	return "transcripts"
}
