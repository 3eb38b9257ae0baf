package entities

import "time"

// Meeting is a calendar event ingested from an external calendar.
// Recordings optionally reference a meeting through Recording.MeetingID.
type Meeting struct {
	ID         uint   `gorm:"primaryKey"`
	ExternalID string `gorm:"type:varchar(200);index"`
	Title      string `gorm:"type:varchar(500)"`
	StartsAt   time.Time
	EndsAt     time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Meeting) TableName() string {
	return "meetings"
}
