package entities

import "time"

// KnowledgeCapture is the normalized entity superseding Recording+Transcript.
// The unique index on SourceRecordingID enforces at most one capture per
// source recording.
type KnowledgeCapture struct {
	ID                uint      `gorm:"primaryKey"`
	Title             string    `gorm:"type:varchar(500);not null"`
	CapturedAt        time.Time `gorm:"not null;index"`
	SourceRecordingID uint      `gorm:"not null;uniqueIndex:idx_capture_source"`
	MeetingID         *uint     `gorm:"index"`
	Summary           string    `gorm:"type:text"`
	TopicsJSON        string    `gorm:"type:text"` // canonical JSON array of strings
	CreatedAt         time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (KnowledgeCapture) TableName() string {
	return "knowledge_captures"
}
