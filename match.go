package fuzzyx

import "strings"

// MatchType names the strategy that produced a match.
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
	MatchWord     MatchType = "word"
	MatchFuzzy    MatchType = "fuzzy"
	MatchPartial  MatchType = "partial"
	MatchNone     MatchType = "none"
)

// Priority orders match types when scores tie: exact 4, contains 3, word 2,
// fuzzy 1, partial 0. MatchNone and unknown types rank below all of them.
func (t MatchType) Priority() int {
	switch t {
	case MatchExact:
		return 4
	case MatchContains:
		return 3
	case MatchWord:
		return 2
	case MatchFuzzy:
		return 1
	case MatchPartial:
		return 0
	default:
		return -1
	}
}

// MatchResult is the outcome of classifying one text against one term.
type MatchResult struct {
	Matched bool
	// Score is in [0,1]; exact matches always score 1.
	Score float64
	Type  MatchType
}

var noMatch = MatchResult{Type: MatchNone}

const (
	containsBase      = 0.8
	containsSpan      = 0.2
	wordScore         = 0.9
	partialHit        = 0.7
	partialFuzzyHit   = 0.5
	partialMinWordLen = 3
	partialMaxEdits   = 2
)

// Classify decides how text matches term. The first applicable strategy wins:
// exact, contains, word boundary (only with WithWholeWords), fuzzy, then
// partial words.
func Classify(text, term string, opts ...MatchOption) MatchResult {
	cfg := DefaultMatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt.ApplyMatch(&cfg)
		}
	}
	return cfg.Classify(text, term)
}

// Classify runs the classifier with c.
func (c MatchConfig) Classify(text, term string) MatchResult {
	return c.prepare(term).match(text)
}

// matcher holds a term normalized once for many texts.
type matcher struct {
	cfg     MatchConfig
	term    string
	termLen int
	words   []string
}

func (c MatchConfig) prepare(term string) matcher {
	m := matcher{cfg: c, term: normalize(strings.TrimSpace(term), c.CaseSensitive)}
	m.termLen = runeLen(m.term)
	for _, w := range strings.Fields(m.term) {
		if runeLen(w) >= partialMinWordLen {
			m.words = append(m.words, w)
		}
	}
	return m
}

func (m matcher) match(text string) MatchResult {
	t := normalize(strings.TrimSpace(text), m.cfg.CaseSensitive)
	if t == "" || m.term == "" {
		return noMatch
	}

	if t == m.term {
		return MatchResult{Matched: true, Score: 1, Type: MatchExact}
	}

	textLen := runeLen(t)
	if strings.Contains(t, m.term) {
		score := containsBase + containsSpan*float64(m.termLen)/float64(textLen)
		return MatchResult{Matched: true, Score: score, Type: MatchContains}
	}

	if m.cfg.WholeWords {
		for _, w := range strings.Fields(t) {
			if strings.HasPrefix(w, m.term) {
				return MatchResult{Matched: true, Score: wordScore, Type: MatchWord}
			}
		}
	}

	if d := Distance(t, m.term); d <= m.cfg.MaxDistance {
		if sim := ratio(d, textLen, m.termLen); sim >= m.cfg.Threshold {
			return MatchResult{Matched: true, Score: sim, Type: MatchFuzzy}
		}
	}

	if score := m.partial(t); score > 0 {
		return MatchResult{Matched: true, Score: score, Type: MatchPartial}
	}
	return noMatch
}

// partial averages per-word awards over every search word of three or more
// runes, including words that earned nothing.
func (m matcher) partial(text string) float64 {
	if len(m.words) == 0 {
		return 0
	}
	tokens := strings.Fields(text)
	total := 0.0
	for _, w := range m.words {
		if strings.Contains(text, w) {
			total += partialHit
			continue
		}
		wl := runeLen(w)
		for _, tok := range tokens {
			if runeLen(tok) >= wl-partialMaxEdits && Distance(tok, w) <= partialMaxEdits {
				total += partialFuzzyHit
				break
			}
		}
	}
	return total / float64(len(m.words))
}
