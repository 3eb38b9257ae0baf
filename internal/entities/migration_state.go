package entities

import "time"

// MigrationStatus is the persisted status of the schema migration.
type MigrationStatus string

const (
	MigrationStatusPending    MigrationStatus = "pending"
	MigrationStatusInProgress MigrationStatus = "in-progress"
	MigrationStatusCompleted  MigrationStatus = "completed"
	MigrationStatusFailed     MigrationStatus = "failed"
	MigrationStatusRolledBack MigrationStatus = "rolled-back"
)

// Schema versions. LegacySchemaVersion is the version of a database that has
// never been migrated; the canonical schema definition carries the target
// version in its header.
const LegacySchemaVersion = 1

// MigrationState is the singleton row (id = 1) persisting the schema-version
// marker and migration status.
type MigrationState struct {
	ID            uint            `gorm:"primaryKey"`
	SchemaVersion int             `gorm:"not null;default:1"`
	Status        MigrationStatus `gorm:"type:varchar(20);not null;default:pending"`
	LastAttemptID string          `gorm:"type:varchar(36)"`
	LastAttemptAt *time.Time
	LastError     string `gorm:"type:text"` // sanitized before persisting
}

// TableName returns the table name for GORM.
func (MigrationState) TableName() string {
	return "migration_state"
}
