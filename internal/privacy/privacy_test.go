package privacy

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicevault/voicevault/internal/errors"
)

func TestScrubMessageStripsDatabasePrefixes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no such table: captures",
		ScrubMessage("sqlite3: no such table: captures"))
	assert.Equal(t, "near \"FROM\": syntax error",
		ScrubMessage("SQL logic error: near \"FROM\": syntax error"))
	assert.Equal(t, "migration failed: no such column",
		ScrubMessage("migration failed: sqlite3: no such column"))
}

func TestScrubMessageReplacesPaths(t *testing.T) {
	t.Parallel()

	scrubbed := ScrubMessage("unable to open database file /home/user/captures/audio.db")
	assert.Equal(t, "unable to open database file [path]", scrubbed)

	scrubbed = ScrubMessage(`cannot write C:\Users\me\captures\audio.db here`)
	assert.NotContains(t, scrubbed, `C:\Users`)
	assert.Contains(t, scrubbed, "[path]")
}

func TestScrubMessageTruncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", MaxMessageLength*2)
	scrubbed := ScrubMessage(long)
	assert.Len(t, scrubbed, MaxMessageLength)
	assert.True(t, strings.HasSuffix(scrubbed, "..."))
}

func TestScrubMessageTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("ü", MaxMessageLength*2)
	scrubbed := ScrubMessage(long)
	assert.True(t, utf8.ValidString(scrubbed))
	assert.Len(t, []rune(scrubbed), MaxMessageLength)
	assert.True(t, strings.HasSuffix(scrubbed, "..."))
}

func TestScrubMessagePlainTextUnchanged(t *testing.T) {
	t.Parallel()

	msg := "integrity verification failed: row-count mismatch"
	assert.Equal(t, msg, ScrubMessage(msg))
}

func TestSanitizeErrorPreservesMetadata(t *testing.T) {
	t.Parallel()

	original := errors.Newf("failed to snapshot recordings: sqlite3: disk full at /var/lib/voicevault/data.db").
		Component("backup").
		Category(errors.CategoryDatabase).
		Build()

	sanitized := SanitizeError(original)
	require.Error(t, sanitized)
	assert.NotContains(t, sanitized.Error(), "/var/lib")
	assert.NotContains(t, sanitized.Error(), "sqlite3:")

	var ee *errors.EnhancedError
	require.True(t, errors.As(sanitized, &ee))
	assert.Equal(t, "backup", ee.Component)
	assert.Equal(t, errors.CategoryDatabase, ee.Category)
}

func TestSanitizeErrorPlainError(t *testing.T) {
	t.Parallel()

	sanitized := SanitizeError(errors.NewStd("open /etc/voicevault/config.yaml failed"))
	require.Error(t, sanitized)
	assert.Equal(t, "open [path] failed", sanitized.Error())
}

func TestSanitizeErrorNil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, SanitizeError(nil))
}
