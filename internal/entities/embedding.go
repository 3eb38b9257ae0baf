package entities

import "time"

// Embedding is a vector-index entry for one chunk of a transcript.
type Embedding struct {
	ID           uint   `gorm:"primaryKey"`
	TranscriptID uint   `gorm:"not null;index:idx_embedding_transcript"`
	ChunkIndex   int    `gorm:"not null"`
	Vector       []byte `gorm:"type:blob"`
	Model        string `gorm:"type:varchar(100)"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// TableName returns the table name for GORM.
func (Embedding) TableName() string {
	return "embeddings"
}
