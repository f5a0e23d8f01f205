// Package ranking derives entry ranks from scores at read time.
//
// Rank is a pure function of (entries, sort order). Nothing here is
// persisted, so there is no stored-rank consistency to maintain; callers
// recompute on every read and on every change notification.
package ranking

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/okian/tally/internal/domain/model"
)

// Ranked is an entry with its derived 1-based rank.
type Ranked struct {
	model.Entry
	Rank int `json:"rank"`
}

// Rank sorts entries by score per order and assigns 1-based ranks.
// Entries with equal score are ordered alphabetically by name
// (case-insensitive, locale-aware), then by id so the result is fully
// deterministic. The input slice is not modified.
func Rank(entries []model.Entry, order model.SortOrder) []Ranked {
	// Collators are not safe for concurrent use; build one per call.
	col := collate.New(language.Und, collate.IgnoreCase)

	sorted := make([]model.Entry, len(entries))
	copy(sorted, entries)

	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			if order == model.SortAsc {
				return a.Score < b.Score
			}
			return a.Score > b.Score
		}
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})

	ranked := make([]Ranked, len(sorted))
	for i, e := range sorted {
		ranked[i] = Ranked{Entry: e, Rank: i + 1}
	}
	return ranked
}
