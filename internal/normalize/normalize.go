// Package normalize parses heterogeneous legacy JSON blob fields into typed
// records. A field may be absent, a bare string, a JSON array of strings, or
// a JSON array of objects with inconsistent key names for the same concept.
// Normalization is total: no input raises, malformed shapes degrade to an
// empty result plus a recorded warning.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/voicevault/voicevault/internal/entities"
)

// Item is one normalized record extracted from a legacy blob field.
type Item struct {
	ID        string // generated stable identifier
	Text      string
	Assignee  string
	Due       string
	Status    string // defaults to entities.ItemStatusPending
	SortOrder int
}

// Result is the outcome of normalizing one field. Warnings record shapes
// that could not be fully interpreted; they never abort the caller.
type Result struct {
	Items    []Item
	Warnings []string
}

// Ordered candidate key lists per concept. Resolution is case-insensitive
// and first match wins.
var (
	textKeys     = []string{"text", "task", "item", "action", "description", "content", "title"}
	assigneeKeys = []string{"assignee", "owner", "assigned_to", "who", "person"}
	dueKeys      = []string{"due", "due_date", "deadline", "by"}
	statusKeys   = []string{"status", "state", "done"}
)

// Items normalizes one legacy blob field into typed records.
func Items(field string) Result {
	var res Result

	trimmed := strings.TrimSpace(field)
	if trimmed == "" {
		return res
	}

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		// Not JSON at all: legacy bare-string shape, one opaque record.
		res.Items = append(res.Items, newItem(trimmed, 0))
		return res
	}

	switch v := parsed.(type) {
	case string:
		// JSON string literal, same treatment as a bare string.
		if s := strings.TrimSpace(v); s != "" {
			res.Items = append(res.Items, newItem(s, 0))
		}
		return res
	case []any:
		return normalizeArray(v)
	default:
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("unrecognized field shape %T, expected string or array", parsed))
		return res
	}
}

func normalizeArray(elements []any) Result {
	var res Result
	for i, element := range elements {
		switch e := element.(type) {
		case string:
			if s := strings.TrimSpace(e); s != "" {
				res.Items = append(res.Items, newItem(s, len(res.Items)))
			}
		case map[string]any:
			item, ok := itemFromObject(e, len(res.Items))
			if !ok {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("element %d has no recognizable text key", i))
				continue
			}
			res.Items = append(res.Items, item)
		case float64, bool:
			// Scalar noise in legacy arrays degrades to opaque text.
			res.Items = append(res.Items, newItem(fmt.Sprint(e), len(res.Items)))
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("element %d is a %T, kept as opaque text", i, element))
		default:
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("element %d has unsupported type %T, skipped", i, element))
		}
	}
	return res
}

// itemFromObject resolves an object element through the ordered candidate
// key lists. An object without any recognizable text concept is rejected.
func itemFromObject(obj map[string]any, sortOrder int) (Item, bool) {
	// Lower-case the keys once; legacy producers disagreed on casing too.
	lowered := make(map[string]any, len(obj))
	for k, v := range obj {
		lowered[strings.ToLower(k)] = v
	}

	text := firstString(lowered, textKeys)
	if text == "" {
		return Item{}, false
	}

	item := newItem(text, sortOrder)
	item.Assignee = firstString(lowered, assigneeKeys)
	item.Due = firstString(lowered, dueKeys)
	if status := resolveStatus(lowered); status != "" {
		item.Status = status
	}
	return item, true
}

func newItem(text string, sortOrder int) Item {
	return Item{
		ID:        uuid.NewString(),
		Text:      text,
		Status:    entities.ItemStatusPending,
		SortOrder: sortOrder,
	}
}

// firstString returns the first non-empty string value among the candidate
// keys, in order.
func firstString(obj map[string]any, candidates []string) string {
	for _, key := range candidates {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

// resolveStatus handles the status concept, where legacy data mixes strings
// ("pending", "done") and booleans ({"done": true}).
func resolveStatus(obj map[string]any) string {
	for _, key := range statusKeys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return strings.ToLower(trimmed)
			}
		case bool:
			if s {
				return "done"
			}
			return entities.ItemStatusPending
		}
	}
	return ""
}

// Topics normalizes a legacy topics blob into a canonical list of strings.
// It reuses the same tolerance rules as Items.
func Topics(field string) ([]string, []string) {
	res := Items(field)
	topics := make([]string, 0, len(res.Items))
	for i := range res.Items {
		topics = append(topics, res.Items[i].Text)
	}
	return topics, res.Warnings
}
