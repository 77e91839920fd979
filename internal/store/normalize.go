package store

import (
	"strconv"
	"strings"

	"findash/internal/core"
)

// Normalize upgrades records written before the current schema existed.
// The snapshot carries no version field, so defaulting missing fields here
// is the whole migration story:
//
//   - records created before the type field default to "expense"
//   - whitespace around title and category is dropped
//   - missing or duplicate ids are reassigned
//
// It returns the normalized slice and how many records were touched.
func Normalize(txs []core.Transaction) ([]core.Transaction, int) {
	out := make([]core.Transaction, 0, len(txs))
	seen := make(map[string]struct{}, len(txs))
	fixed := 0
	var maxID int64

	for _, t := range txs {
		if n, err := strconv.ParseInt(t.ID, 10, 64); err == nil && n > maxID {
			maxID = n
		}
	}

	for _, t := range txs {
		touched := false

		if t.Type == "" {
			t.Type = core.TypeExpense
			touched = true
		}
		if trimmed := strings.TrimSpace(t.Title); trimmed != t.Title {
			t.Title = trimmed
			touched = true
		}
		if trimmed := strings.TrimSpace(t.Category); trimmed != t.Category {
			t.Category = trimmed
			touched = true
		}

		if _, dup := seen[t.ID]; t.ID == "" || dup {
			maxID++
			t.ID = strconv.FormatInt(maxID, 10)
			touched = true
		}
		seen[t.ID] = struct{}{}

		if touched {
			fixed++
		}
		out = append(out, t)
	}
	return out, fixed
}
