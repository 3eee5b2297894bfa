package fuzzyx

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
)

func TestNewSearchConfigDefaults(t *testing.T) {
	cfg := NewSearchConfig()

	if cfg.Limit != 0 || cfg.Offset != 0 {
		t.Errorf("expected no limit or offset, got %d/%d", cfg.Limit, cfg.Offset)
	}
	if cfg.MinScore != DefaultMinScore {
		t.Errorf("MinScore = %v, want %v", cfg.MinScore, DefaultMinScore)
	}
	if cfg.Match != DefaultMatchConfig() {
		t.Errorf("Match = %+v, want %+v", cfg.Match, DefaultMatchConfig())
	}
	if cfg.Match.Threshold != 0.6 || cfg.Match.MaxDistance != 3 || cfg.Match.CaseSensitive || cfg.Match.WholeWords {
		t.Errorf("unexpected match defaults %+v", cfg.Match)
	}
	if cfg.Fields != nil || cfg.Logger != nil {
		t.Error("expected nil fields and logger by default")
	}
}

func TestSearchOptions(t *testing.T) {
	cfg := NewSearchConfig(
		WithLimit(5),
		WithOffset(10),
		WithMinScore(0.5),
		WithSort(ScoreField, true),
		WithSort("companyName", false),
		WithFields(Path("companyName")),
		nil,
		WithThreshold(0.7),
		WithMatch(WithCaseSensitive(true), WithWholeWords(true), nil),
		WithMaxDistance(1),
		Eq("status", "active"),
		Matches("companyName", "acme"),
	)

	if cfg.Limit != 5 || cfg.Offset != 10 || cfg.MinScore != 0.5 {
		t.Errorf("paging options not applied: %+v", cfg)
	}
	expectedSort := []SortField{{Field: ScoreField, Desc: true}, {Field: "companyName"}}
	if len(cfg.Sort) != 2 || cfg.Sort[0] != expectedSort[0] || cfg.Sort[1] != expectedSort[1] {
		t.Errorf("Sort = %+v, want %+v", cfg.Sort, expectedSort)
	}
	if cfg.Fields == nil {
		t.Error("Fields not applied")
	}
	expectedMatch := MatchConfig{Threshold: 0.7, CaseSensitive: true, WholeWords: true, MaxDistance: 1}
	if cfg.Match != expectedMatch {
		t.Errorf("Match = %+v, want %+v", cfg.Match, expectedMatch)
	}
	if len(cfg.Filters) != 2 {
		t.Errorf("expected 2 filters, got %d", len(cfg.Filters))
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		opts    []SearchOption
		wantErr error
	}{
		"defaults":           {},
		"valid":              {opts: []SearchOption{WithLimit(10), WithOffset(5), Eq("a", 1)}},
		"negative_limit":     {opts: []SearchOption{WithLimit(-1)}, wantErr: ErrInvalidOption},
		"negative_offset":    {opts: []SearchOption{WithOffset(-1)}, wantErr: ErrInvalidOption},
		"min_score_high":     {opts: []SearchOption{WithMinScore(1.5)}, wantErr: ErrInvalidOption},
		"min_score_negative": {opts: []SearchOption{WithMinScore(-0.1)}, wantErr: ErrInvalidOption},
		"threshold_high":     {opts: []SearchOption{WithThreshold(2)}, wantErr: ErrInvalidOption},
		"max_distance":       {opts: []SearchOption{WithMaxDistance(-1)}, wantErr: ErrInvalidOption},
		"empty_field":        {opts: []SearchOption{Eq("", 1)}, wantErr: ErrInvalidExpression},
		"bad_operator":       {opts: []SearchOption{CompareExpr{Field: "a", Op: "like"}}, wantErr: ErrInvalidExpression},
		"not_without_inner":  {opts: []SearchOption{Not(nil)}, wantErr: ErrInvalidExpression},
		"nested_invalid":     {opts: []SearchOption{And(Eq("a", 1), Or(Range("", 1, 2)))}, wantErr: ErrInvalidExpression},
		"matches_no_field":   {opts: []SearchOption{Matches("", "x")}, wantErr: ErrInvalidExpression},
		"nil_in_and":         {opts: []SearchOption{And(nil)}, wantErr: ErrInvalidExpression},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := NewSearchConfig(tt.opts...).Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestContextError(t *testing.T) {
	if err := ContextError(context.Background()); err != nil {
		t.Errorf("live context: %v", err)
	}

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ContextError(canceled); !errors.Is(err, ErrCanceled) {
		t.Errorf("canceled context: got %v", err)
	}

	expired, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)
	if err := ContextError(expired); !errors.Is(err, ErrTimeout) {
		t.Errorf("expired context: got %v", err)
	}
}

func TestErrorCodes(t *testing.T) {
	codes := map[ErrorCode]string{
		ErrCodeEmptyQuery:         "empty query",
		ErrCodeInvalidOption:      "invalid option",
		ErrCodeTimeout:            "operation timed out",
		ErrCodeBackendUnavailable: "backend unavailable",
		ErrCodeFieldNotFound:      "field not found",
		ErrCodeAccessorPanic:      "accessor panicked",
		ErrorCode(1):              "unknown error",
	}
	for code, expected := range codes {
		if got := code.String(); got != expected {
			t.Errorf("ErrorCode(%d).String() = %q, want %q", int(code), got, expected)
		}
	}

	if ErrCodeEmptyQuery != 1000 {
		t.Errorf("error codes should start at 1000, got %d", ErrCodeEmptyQuery)
	}
	if errors.Is(ErrTimeout, ErrCanceled) {
		t.Error("distinct sentinels should not match each other")
	}
}
