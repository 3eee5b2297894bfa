package fuzzyx

import (
	"log/slog"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultThreshold is the minimum similarity accepted on the fuzzy path.
	DefaultThreshold = 0.6
	// DefaultMaxDistance caps the edit distance accepted on the fuzzy path.
	DefaultMaxDistance = 3
	// DefaultMinScore drops ranked items scoring below it.
	DefaultMinScore = 0.3
)

// MatchConfig controls how a single text is classified against a term.
type MatchConfig struct {
	// Threshold is the minimum similarity for a fuzzy match.
	Threshold float64
	// CaseSensitive disables lower-casing for the exact, contains, word and
	// partial checks. Edit distance is always case-insensitive, so texts that
	// differ only in case still match as fuzzy with score 1.0, the same score
	// as an exact match.
	CaseSensitive bool
	// WholeWords enables the word-boundary check.
	WholeWords bool
	// MaxDistance is the largest edit distance a fuzzy match may have.
	MaxDistance int
}

// DefaultMatchConfig returns the classifier defaults.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Threshold:   DefaultThreshold,
		MaxDistance: DefaultMaxDistance,
	}
}

// SearchOption represents a search configuration option.
type SearchOption interface {
	Apply(*SearchConfig)
}

// MatchOption configures the classifier. Every MatchOption is also a
// SearchOption that applies to SearchConfig.Match.
type MatchOption interface {
	SearchOption
	ApplyMatch(*MatchConfig)
}

// SearchConfig holds all search configuration parameters.
type SearchConfig struct {
	// Limit specifies the maximum number of results to return. Zero means
	// no limit for the ranking functions and the searcher default otherwise.
	Limit int

	// Offset specifies the number of results to skip for pagination.
	Offset int

	// MinScore drops items whose best field score is below it.
	MinScore float64

	// Match configures the per-field classifier.
	Match MatchConfig

	// Fields selects the searchable text of each record. Nil means DefaultFields.
	Fields FieldSpec

	// Sort specifies sorting configuration.
	Sort []SortField

	// Filters contains filter expressions to apply.
	Filters []Expression

	// Logger receives field extraction failures at debug level. Nil is silent.
	Logger *slog.Logger
}

// NewSearchConfig returns the defaults with opts applied in order.
func NewSearchConfig(opts ...SearchOption) *SearchConfig {
	cfg := &SearchConfig{
		MinScore: DefaultMinScore,
		Match:    DefaultMatchConfig(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(cfg)
		}
	}
	return cfg
}

// Validate reports out-of-range values as ErrInvalidOption.
func (c *SearchConfig) Validate() error {
	switch {
	case c.Limit < 0:
		return errors.Wrapf(ErrInvalidOption, "limit %d is negative", c.Limit)
	case c.Offset < 0:
		return errors.Wrapf(ErrInvalidOption, "offset %d is negative", c.Offset)
	case c.MinScore < 0 || c.MinScore > 1:
		return errors.Wrapf(ErrInvalidOption, "min score %v outside [0,1]", c.MinScore)
	case c.Match.Threshold < 0 || c.Match.Threshold > 1:
		return errors.Wrapf(ErrInvalidOption, "threshold %v outside [0,1]", c.Match.Threshold)
	case c.Match.MaxDistance < 0:
		return errors.Wrapf(ErrInvalidOption, "max distance %d is negative", c.Match.MaxDistance)
	}
	for _, f := range c.Filters {
		if err := validateExpression(f); err != nil {
			return err
		}
	}
	return nil
}

// SortField represents a field to sort by.
type SortField struct {
	// Field is the dot path of the field to sort by, or "_score".
	Field string
	// Desc indicates whether to sort in descending order (true) or ascending order (false).
	Desc bool
}

// ScoreField sorts by relevance when used in WithSort.
const ScoreField = "_score"

type optionFunc func(*SearchConfig)

func (f optionFunc) Apply(cfg *SearchConfig) {
	f(cfg)
}

type matchOptionFunc func(*MatchConfig)

func (f matchOptionFunc) Apply(cfg *SearchConfig) {
	f(&cfg.Match)
}

func (f matchOptionFunc) ApplyMatch(cfg *MatchConfig) {
	f(cfg)
}

// WithLimit sets the maximum number of results to return.
func WithLimit(n int) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Limit = n
	})
}

// WithOffset sets the number of results to skip for pagination.
func WithOffset(n int) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Offset = n
	})
}

// WithSort adds a sort field to the search.
func WithSort(field string, desc bool) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Sort = append(cfg.Sort, SortField{Field: field, Desc: desc})
	})
}

// WithMinScore sets the minimum best-field score an item needs to be kept.
func WithMinScore(score float64) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.MinScore = score
	})
}

// WithFields sets the searchable fields.
func WithFields(spec FieldSpec) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Fields = spec
	})
}

// WithLogger reports recovered field extraction failures to l.
func WithLogger(l *slog.Logger) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		cfg.Logger = l
	})
}

// WithMatch applies several classifier options at once.
func WithMatch(opts ...MatchOption) SearchOption {
	return optionFunc(func(cfg *SearchConfig) {
		for _, opt := range opts {
			if opt != nil {
				opt.ApplyMatch(&cfg.Match)
			}
		}
	})
}

// WithThreshold sets the minimum similarity for fuzzy matches.
func WithThreshold(t float64) MatchOption {
	return matchOptionFunc(func(cfg *MatchConfig) {
		cfg.Threshold = t
	})
}

// WithCaseSensitive toggles case-sensitive comparison.
func WithCaseSensitive(on bool) MatchOption {
	return matchOptionFunc(func(cfg *MatchConfig) {
		cfg.CaseSensitive = on
	})
}

// WithWholeWords toggles the word-boundary check.
func WithWholeWords(on bool) MatchOption {
	return matchOptionFunc(func(cfg *MatchConfig) {
		cfg.WholeWords = on
	})
}

// WithMaxDistance sets the largest edit distance a fuzzy match may have.
func WithMaxDistance(d int) MatchOption {
	return matchOptionFunc(func(cfg *MatchConfig) {
		cfg.MaxDistance = d
	})
}
