// Package privacy sanitizes error text before it leaves the engine boundary.
// Filesystem paths and internal database error prefixes never reach callers.
package privacy

import (
	"regexp"
	"strings"

	"github.com/voicevault/voicevault/internal/errors"
)

// MaxMessageLength bounds the length of any outward-facing error message.
const MaxMessageLength = 240

// Pre-compiled patterns, compiled once at package init for performance.
var (
	// Unix-style absolute paths with at least two segments,
	// e.g. /home/user/captures/audio.db
	unixPathPattern = regexp.MustCompile(`(?:/[\w.~-]+){2,}/?`)

	// Windows drive-letter paths, e.g. C:\Users\me\captures\audio.db
	drivePathPattern = regexp.MustCompile(`[A-Za-z]:[\\/](?:[\w.~ -]+[\\/]?)+`)
)

// Database error prefixes stripped from messages, checked in order.
var databasePrefixes = []string{
	"sqlite3: ",
	"SQL logic error: ",
	"SQL logic error or missing database: ",
	"database error: ",
	"gorm: ",
	"constraint failed: ",
}

// ScrubMessage removes sensitive information from an error message:
// filesystem paths are replaced with a placeholder, generic database error
// prefixes are dropped, and the result is truncated to MaxMessageLength.
func ScrubMessage(message string) string {
	scrubbed := message

	for _, prefix := range databasePrefixes {
		for strings.HasPrefix(scrubbed, prefix) {
			scrubbed = strings.TrimPrefix(scrubbed, prefix)
		}
		// Prefixes also appear mid-message when errors are wrapped.
		scrubbed = strings.ReplaceAll(scrubbed, ": "+prefix, ": ")
	}

	scrubbed = unixPathPattern.ReplaceAllString(scrubbed, "[path]")
	scrubbed = drivePathPattern.ReplaceAllString(scrubbed, "[path]")

	// Truncate on rune boundaries so multi-byte characters survive intact.
	if runes := []rune(scrubbed); len(runes) > MaxMessageLength {
		scrubbed = string(runes[:MaxMessageLength-3]) + "..."
	}

	return scrubbed
}

// SanitizeError returns an error whose message has been scrubbed. Category
// and component metadata of an EnhancedError are preserved so callers can
// still classify the failure. A nil error is passed through.
func SanitizeError(err error) error {
	if err == nil {
		return nil
	}

	scrubbed := ScrubMessage(err.Error())

	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return errors.New(errors.NewStd(scrubbed)).
			Component(ee.Component).
			Category(ee.Category).
			Build()
	}
	return errors.NewStd(scrubbed)
}
