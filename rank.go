package fuzzyx

import (
	"math"
	"sort"
	"strings"
)

// Ranked is one item kept by Rank, with the score of its best field.
type Ranked[T any] struct {
	Item T
	// Index is the item's position in the input slice.
	Index int
	Score float64
	Type  MatchType
}

// Scores closer than this are ordered by match type priority instead. The
// small slack keeps a difference of exactly 0.01 inside the window despite
// float rounding.
const tieWindow = 0.01 + 1e-9

// Search returns the items matching term, best first. An empty or
// whitespace-only term returns items itself, unfiltered and in order. A nil
// fields spec falls back to the options' fields, then DefaultFields.
func Search[T any](items []T, term string, fields FieldSpec, opts ...SearchOption) []T {
	if len(items) == 0 {
		return []T{}
	}
	if strings.TrimSpace(term) == "" {
		return items
	}
	ranked := Rank(items, term, fields, opts...)
	out := make([]T, len(ranked))
	for i, r := range ranked {
		out[i] = r.Item
	}
	return out
}

// Rank is Search with scores. With an empty term every item is returned in
// input order with score 0 and MatchNone, and Limit still applies.
func Rank[T any](items []T, term string, fields FieldSpec, opts ...SearchOption) []Ranked[T] {
	cfg := NewSearchConfig(opts...)
	if fields != nil {
		cfg.Fields = fields
	}
	return RankConfig(items, term, cfg)
}

// RankConfig ranks items with an already built configuration. Offset,
// Sort and Filters are searcher concerns and are ignored here.
func RankConfig[T any](items []T, term string, cfg *SearchConfig) []Ranked[T] {
	if cfg == nil {
		cfg = NewSearchConfig()
	}
	if len(items) == 0 {
		return []Ranked[T]{}
	}

	var ranked []Ranked[T]
	if strings.TrimSpace(term) == "" {
		ranked = make([]Ranked[T], len(items))
		for i, item := range items {
			ranked[i] = Ranked[T]{Item: item, Index: i, Type: MatchNone}
		}
		return truncate(ranked, cfg.Limit)
	}

	m := cfg.Match.prepare(term)
	extractors := resolveFields(cfg.Fields)
	ranked = make([]Ranked[T], 0, len(items))
	for i, item := range items {
		best := noMatch
		for _, ex := range extractors {
			text, err := ex.extract(item)
			if err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Debug("fuzzyx: field skipped", "field", ex.name, "index", i, "error", err)
				}
				continue
			}
			if r := m.match(text); r.Matched && r.Score > best.Score {
				best = r
			}
		}
		if !best.Matched || best.Score < cfg.MinScore {
			continue
		}
		ranked = append(ranked, Ranked[T]{Item: item, Index: i, Score: best.Score, Type: best.Type})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return RanksBefore(ranked[i].Score, ranked[i].Type, ranked[j].Score, ranked[j].Type)
	})
	return truncate(ranked, cfg.Limit)
}

// RanksBefore reports whether a result scored (sa, ta) orders ahead of one
// scored (sb, tb): higher score first, match type priority within 0.01.
func RanksBefore(sa float64, ta MatchType, sb float64, tb MatchType) bool {
	if math.Abs(sa-sb) > tieWindow {
		return sa > sb
	}
	return ta.Priority() > tb.Priority()
}

func truncate[T any](ranked []Ranked[T], limit int) []Ranked[T] {
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}
