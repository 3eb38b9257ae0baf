package entities

import "time"

// FollowUp is a normalized follow-up extracted from a transcript's legacy
// follow-ups blob, or derived from an action item whose text matches the
// follow-up keyword set. Derived follow-ups keep a reference to the
// originating action item; the action item itself is not moved.
type FollowUp struct {
	ID           string  `gorm:"type:varchar(36);primaryKey"` // generated UUID
	CaptureID    uint    `gorm:"not null;index:idx_follow_up_capture"`
	Text         string  `gorm:"type:text;not null"`
	Assignee     string  `gorm:"type:varchar(200)"`
	Status       string  `gorm:"type:varchar(20);not null;default:pending"`
	SourceItemID *string `gorm:"type:varchar(36)"` // set when derived from an action item
	SortOrder    int
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (FollowUp) TableName() string {
	return "follow_ups"
}
