package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicevault/voicevault/internal/entities"
	"github.com/voicevault/voicevault/internal/errors"
)

func TestVerificationReasonsExtraction(t *testing.T) {
	t.Parallel()

	reasons := []string{"capture 1 has empty title", "row-count mismatch: 2 vs 1"}
	err := errors.Newf("integrity verification failed").
		Component("engine").
		Category(errors.CategoryVerification).
		Context("reasons", reasons).
		Build()

	assert.Equal(t, reasons, verificationReasons(err))
}

func TestVerificationReasonsOnOtherErrors(t *testing.T) {
	t.Parallel()

	assert.Nil(t, verificationReasons(errors.NewStd("plain error")))

	// Same taxonomy entry but no accumulated reasons.
	err := errors.Newf("verification failed").
		Category(errors.CategoryVerification).
		Build()
	assert.Nil(t, verificationReasons(err))

	// A reason list on a non-verification error is ignored.
	err = errors.Newf("transaction failed").
		Category(errors.CategoryTransaction).
		Context("reasons", []string{"x"}).
		Build()
	assert.Nil(t, verificationReasons(err))
}

// A recording pointing at a nonexistent meeting carries the dangling
// reference into its capture, which must abort verification even though the
// link is optional.
func TestVerifyMigrationDetectsDanglingMeetingLink(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	ctx := context.Background()

	rec := seedPair(t, e.db, "ghost-meeting", entities.Transcript{})
	require.NoError(t, e.db.Model(&entities.Recording{}).
		Where("id = ?", rec.ID).
		Update("meeting_id", 31337).Error)

	result := e.RunMigration(ctx)
	require.False(t, result.Success)

	joined := ""
	for _, msg := range result.Errors {
		joined += msg + "\n"
	}
	assert.Contains(t, joined, "dangling meeting link")
	assert.Equal(t, entities.MigrationStatusFailed, migrationState(t, e.db).Status)
}
