package fuzzyx

import "sort"

// Result represents a single search result.
type Result struct {
	// ID is the unique identifier of the record.
	ID string `json:"id"`

	// Score is the best field score, or 0 when no query was given.
	Score float64 `json:"score"`

	// Type is the match strategy behind Score.
	Type MatchType `json:"type"`

	// Fields contains the record fields as key-value pairs.
	Fields map[string]any `json:"fields"`
}

// Results represents a collection of search results with metadata.
type Results struct {
	// Items contains the current page of results.
	Items []Result `json:"items"`

	// Total is the number of records that matched, across all pages.
	Total int64 `json:"total"`

	// Took is the time taken to execute the search in milliseconds.
	Took int64 `json:"took_ms"`

	// MaxScore is the maximum score on this page.
	MaxScore float64 `json:"max_score"`

	// Query is the original query string for reference.
	Query string `json:"query"`

	// NextOffset is set when more results follow this page.
	NextOffset *int `json:"next_offset,omitempty"`
}

// SortResults orders items by fields. ScoreField compares Score, falling
// back to match type priority within the ranking tie window; other fields are
// dot paths into Fields. Without fields, items keep their order.
func SortResults(items []Result, fields []SortField) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		for _, sf := range fields {
			var cmp int
			if sf.Field == ScoreField {
				switch {
				case RanksBefore(a.Score, a.Type, b.Score, b.Type):
					cmp = 1
				case RanksBefore(b.Score, b.Type, a.Score, a.Type):
					cmp = -1
				}
			} else {
				v1, _ := Lookup(a.Fields, sf.Field)
				v2, _ := Lookup(b.Fields, sf.Field)
				cmp = CompareValues(v1, v2)
			}
			if cmp != 0 {
				if sf.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return false
	})
}

// Page slices items by offset and limit and reports the next offset, if any.
func Page[T any](items []T, offset, limit int) ([]T, *int) {
	start := min(max(offset, 0), len(items))
	end := len(items)
	if limit > 0 {
		end = min(start+limit, len(items))
	}
	if end < len(items) {
		next := end
		return items[start:end], &next
	}
	return items[start:end], nil
}
