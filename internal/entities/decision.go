package entities

import "time"

// Decision is a normalized decision extracted from a transcript's legacy
// decisions blob, owned by a KnowledgeCapture.
type Decision struct {
	ID        string `gorm:"type:varchar(36);primaryKey"` // generated UUID
	CaptureID uint   `gorm:"not null;index:idx_decision_capture"`
	Text      string `gorm:"type:text;not null"`
	Status    string `gorm:"type:varchar(20);not null;default:pending"`
	SortOrder int
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Decision) TableName() string {
	return "decisions"
}
