package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicevault/voicevault/internal/entities"
)

func TestRollbackFromCompleted(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	ctx := context.Background()
	rec := seedPair(t, e.db, "board-meeting", entities.Transcript{
		ActionItemsJSON: `["Call Bob"]`,
	})

	migration := e.RunMigration(ctx)
	require.True(t, migration.Success, "errors: %v", migration.Errors)

	result := e.RollbackMigration(ctx)
	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	// Normalized tables are gone, markers are cleared, status is pending.
	for _, table := range []string{"knowledge_captures", "action_items", "decisions", "follow_ups"} {
		assert.False(t, e.db.Migrator().HasTable(table), table)
	}

	var restored entities.Recording
	require.NoError(t, e.db.First(&restored, rec.ID).Error)
	assert.False(t, restored.IsMigrated())
	assert.Nil(t, restored.MigratedAt)
	assert.Nil(t, restored.KnowledgeCaptureID)

	state := migrationState(t, e.db)
	assert.Equal(t, entities.MigrationStatusPending, state.Status)
	assert.Equal(t, entities.LegacySchemaVersion, state.SchemaVersion)

	// Consumed backups are disposed.
	has, err := e.backups.HasBackups(ctx, migration.AttemptID)
	require.NoError(t, err)
	assert.False(t, has)

	// The store is migratable again.
	again := e.RunMigration(ctx)
	require.True(t, again.Success, "errors: %v", again.Errors)
	assert.Equal(t, int64(1), again.Stats.CapturesCreated)
}

func TestRollbackFromFailedAttempt(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	ctx := context.Background()

	bad := entities.Recording{Filename: "", Title: "", Location: "library/bad"}
	require.NoError(t, e.db.Create(&bad).Error)
	require.NoError(t, e.db.Create(&entities.Transcript{RecordingID: bad.ID, Body: "x"}).Error)

	migration := e.RunMigration(ctx)
	require.False(t, migration.Success)
	require.Equal(t, entities.MigrationStatusFailed, migrationState(t, e.db).Status)

	result := e.RollbackMigration(ctx)
	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, entities.MigrationStatusPending, migrationState(t, e.db).Status)
}

func TestRollbackRefusedWhenPending(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	result := e.RollbackMigration(context.Background())
	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "rollback unavailable")
	assert.Contains(t, result.Errors[0], "pending")
}

func TestRollbackFailsClosedWithoutBackups(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	ctx := context.Background()
	seedPair(t, e.db, "offsite", entities.Transcript{})

	migration := e.RunMigration(ctx)
	require.True(t, migration.Success, "errors: %v", migration.Errors)

	// Simulate an operator who dropped the shadow tables.
	require.NoError(t, e.backups.DisposeAll(ctx))

	result := e.RollbackMigration(ctx)
	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "no backup exists")

	// Fail closed means nothing was touched.
	assert.Equal(t, entities.MigrationStatusCompleted, migrationState(t, e.db).Status)
	assert.True(t, e.db.Migrator().HasTable("knowledge_captures"))
}

func TestRollbackRefusedWhileLockHeld(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	require.True(t, e.lock.TryAcquire())
	defer e.lock.Release()

	result := e.RollbackMigration(context.Background())
	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, lockHeldMessage, result.Errors[0])
}

func TestRollbackPublishesEvent(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	ctx := context.Background()
	seedPair(t, e.db, "demo-day", entities.Transcript{})

	migration := e.RunMigration(ctx)
	require.True(t, migration.Success, "errors: %v", migration.Errors)

	_, events := e.Progress().Subscribe()
	result := e.RollbackMigration(ctx)
	require.True(t, result.Success, "errors: %v", result.Errors)

	ev := <-events
	assert.Equal(t, PhaseRolledBack, ev.Phase)
	assert.Equal(t, migration.AttemptID, ev.AttemptID)
}
