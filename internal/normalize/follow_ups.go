package normalize

import (
	"strings"

	"github.com/google/uuid"
)

// followUpKeywords is the fixed, case-insensitive keyword set used to
// reclassify parsed action items as follow-ups.
var followUpKeywords = []string{
	"follow up",
	"follow-up",
	"followup",
	"reach out",
	"schedule",
	"call",
	"email",
	"check in",
	"circle back",
	"get back",
}

// DerivedFollowUp is a follow-up derived from an action item. The action
// item is duplicated into the follow-up set, not moved.
type DerivedFollowUp struct {
	Item         Item
	SourceItemID string // ID of the originating action item
}

// DeriveFollowUps runs the secondary reclassification pass over parsed
// action items. A match produces a new record with its own identifier; the
// source item is left untouched.
func DeriveFollowUps(actionItems []Item) []DerivedFollowUp {
	var derived []DerivedFollowUp
	for i := range actionItems {
		if !IsFollowUpText(actionItems[i].Text) {
			continue
		}
		dup := actionItems[i]
		dup.ID = uuid.NewString()
		dup.SortOrder = len(derived)
		derived = append(derived, DerivedFollowUp{
			Item:         dup,
			SourceItemID: actionItems[i].ID,
		})
	}
	return derived
}

// IsFollowUpText reports whether the text matches the follow-up keyword set.
func IsFollowUpText(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range followUpKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
