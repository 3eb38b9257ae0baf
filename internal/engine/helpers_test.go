package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/voicevault/voicevault/internal/datastore"
	"github.com/voicevault/voicevault/internal/entities"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	db, err := datastore.OpenInMemory(nil)
	require.NoError(t, err)

	e := New(db, Config{})
	t.Cleanup(e.Close)
	return e
}

// seedPair creates one recording with one transcript, eligible for migration
// unless the caller overrides location or markers afterwards.
func seedPair(t *testing.T, db *gorm.DB, title string, transcript entities.Transcript) entities.Recording {
	t.Helper()

	rec := entities.Recording{
		Filename:   title + ".wav",
		Title:      title,
		Location:   "library/" + title,
		RecordedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&rec).Error)

	transcript.RecordingID = rec.ID
	if transcript.Body == "" {
		transcript.Body = "notes for " + title
	}
	require.NoError(t, db.Create(&transcript).Error)
	return rec
}

func migrationState(t *testing.T, db *gorm.DB) entities.MigrationState {
	t.Helper()
	var state entities.MigrationState
	require.NoError(t, db.First(&state, 1).Error)
	return state
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}
