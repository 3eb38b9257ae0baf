package entities

import "time"

// ItemStatusPending is the default status for normalized child records.
const ItemStatusPending = "pending"

// ActionItem is a normalized task extracted from a transcript's legacy
// action-items blob, owned by a KnowledgeCapture.
type ActionItem struct {
	ID        string `gorm:"type:varchar(36);primaryKey"` // generated UUID
	CaptureID uint   `gorm:"not null;index:idx_action_item_capture"`
	Text      string `gorm:"type:text;not null"`
	Assignee  string `gorm:"type:varchar(200)"`
	Status    string `gorm:"type:varchar(20);not null;default:pending"`
	DueAt     string `gorm:"type:varchar(100)"` // free-form legacy due date, kept verbatim
	SortOrder int
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (ActionItem) TableName() string {
	return "action_items"
}
