package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/letmevibethatforyou/fuzzyx"
)

func TestBuildFilterOptions(t *testing.T) {
	tests := map[string]struct {
		raw      []string
		expected []fuzzyx.Expression
		wantErr  bool
	}{
		"none": {},
		"eq_string": {
			raw:      []string{"status=active"},
			expected: []fuzzyx.Expression{fuzzyx.Eq("status", "active")},
		},
		"eq_number": {
			raw:      []string{" rating = 4.5 "},
			expected: []fuzzyx.Expression{fuzzyx.Eq("rating", 4.5)},
		},
		"eq_bool": {
			raw:      []string{"verified=true"},
			expected: []fuzzyx.Expression{fuzzyx.Eq("verified", true)},
		},
		"fuzzy": {
			raw:      []string{"companyName~jonson"},
			expected: []fuzzyx.Expression{fuzzyx.Matches("companyName", "jonson")},
		},
		"value_with_equals": {
			raw:      []string{"note=a=b"},
			expected: []fuzzyx.Expression{fuzzyx.Eq("note", "a=b")},
		},
		"empty":         {raw: []string{"  "}, wantErr: true},
		"no_operator":   {raw: []string{"status"}, wantErr: true},
		"missing_field": {raw: []string{"=active"}, wantErr: true},
		"missing_value": {raw: []string{"status="}, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			opts, err := buildFilterOptions(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			cfg := fuzzyx.NewSearchConfig(opts...)
			if len(cfg.Filters) != len(tt.expected) {
				t.Fatalf("got %d filters, want %d", len(cfg.Filters), len(tt.expected))
			}
			for i := range tt.expected {
				if cfg.Filters[i] != tt.expected[i] {
					t.Errorf("filter %d = %#v, want %#v", i, cfg.Filters[i], tt.expected[i])
				}
			}
		})
	}
}

func TestBuildSortOptions(t *testing.T) {
	cfg := fuzzyx.NewSearchConfig(buildSortOptions([]string{"-_score", "companyName", "-", ""})...)
	expected := []fuzzyx.SortField{{Field: fuzzyx.ScoreField, Desc: true}, {Field: "companyName"}}
	if len(cfg.Sort) != len(expected) {
		t.Fatalf("Sort = %+v, want %+v", cfg.Sort, expected)
	}
	for i := range expected {
		if cfg.Sort[i] != expected[i] {
			t.Errorf("Sort[%d] = %+v, want %+v", i, cfg.Sort[i], expected[i])
		}
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	next := 10
	res := &fuzzyx.Results{
		Items:      []fuzzyx.Result{{ID: "sup-2", Score: 0.88, Type: fuzzyx.MatchContains, Fields: map[string]any{"companyName": "Johnson Wholesale"}}},
		Total:      12,
		Query:      "johnson",
		NextOffset: &next,
	}

	if err := printResults(&buf, res); err != nil {
		t.Fatalf("printResults failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if decoded["query"] != "johnson" || decoded["total"] != float64(12) || decoded["next_offset"] != float64(10) {
		t.Errorf("unexpected output %v", decoded)
	}

	buf.Reset()
	if err := printResults(&buf, nil); err != nil {
		t.Fatalf("printResults(nil) failed: %v", err)
	}
	if buf.String() != "{}\n" {
		t.Errorf("printResults(nil) = %q", buf.String())
	}
}
