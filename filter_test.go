package fuzzyx

import (
	"encoding/json"
	"testing"
)

func TestEvaluate(t *testing.T) {
	record := map[string]any{
		"companyName": "Johnson Wholesale",
		"status":      "active",
		"rating":      4.5,
		"orders":      12,
		"contact": map[string]any{
			"city": "Springfield",
		},
		"archived": nil,
	}

	tests := map[string]struct {
		expr     Expression
		expected bool
	}{
		"eq_string":         {expr: Eq("status", "active"), expected: true},
		"eq_mismatch":       {expr: Eq("status", "inactive"), expected: false},
		"eq_number_kinds":   {expr: Eq("orders", 12.0), expected: true},
		"eq_nested":         {expr: Eq("contact.city", "Springfield"), expected: true},
		"eq_missing_nil":    {expr: Eq("deleted", nil), expected: true},
		"eq_missing_value":  {expr: Eq("deleted", "yes"), expected: false},
		"ne":                {expr: Ne("status", "inactive"), expected: true},
		"ne_missing":        {expr: Ne("deleted", "yes"), expected: true},
		"ne_missing_nil":    {expr: Ne("deleted", nil), expected: false},
		"gt":                {expr: Gt("rating", 4), expected: true},
		"gt_equal":          {expr: Gt("rating", 4.5), expected: false},
		"gte":               {expr: Gte("rating", 4.5), expected: true},
		"lt":                {expr: Lt("orders", 20), expected: true},
		"lte":               {expr: Lte("orders", 11), expected: false},
		"gt_missing":        {expr: Gt("missing", 1), expected: false},
		"exists":            {expr: Exists("status"), expected: true},
		"exists_nil_value":  {expr: Exists("archived"), expected: true},
		"exists_missing":    {expr: Exists("missing"), expected: false},
		"range_inside":      {expr: Range("rating", 4, 5), expected: true},
		"range_inclusive":   {expr: Range("orders", 12, 12), expected: true},
		"range_open_min":    {expr: Range("orders", nil, 10), expected: false},
		"range_open_max":    {expr: Range("orders", 10, nil), expected: true},
		"range_missing":     {expr: Range("missing", 1, 2), expected: false},
		"and_all":           {expr: And(Eq("status", "active"), Gt("rating", 4)), expected: true},
		"and_one_fails":     {expr: And(Eq("status", "active"), Gt("rating", 5)), expected: false},
		"and_empty":         {expr: And(), expected: true},
		"or_one":            {expr: Or(Eq("status", "inactive"), Gt("rating", 4)), expected: true},
		"or_none":           {expr: Or(Eq("status", "inactive"), Gt("rating", 5)), expected: false},
		"or_empty":          {expr: Or(), expected: false},
		"not":               {expr: Not(Eq("status", "inactive")), expected: true},
		"matches_contains":  {expr: Matches("companyName", "johnson"), expected: true},
		"matches_typo":      {expr: Matches("companyName", "jonson"), expected: true},
		"matches_unrelated": {expr: Matches("companyName", "northwind"), expected: false},
		"matches_missing":   {expr: Matches("missing", "johnson"), expected: false},
		"nested_logic": {
			expr: And(
				Or(Eq("status", "active"), Eq("status", "pending")),
				Not(Matches("companyName", "northwind")),
			),
			expected: true,
		},
	}

	cfg := NewSearchConfig()
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := cfg.Evaluate(record, tt.expr); got != tt.expected {
				t.Errorf("Evaluate(%#v) = %v, want %v", tt.expr, got, tt.expected)
			}
		})
	}
}

func TestAcceptsUsesMatchConfig(t *testing.T) {
	record := map[string]any{"companyName": "Jonson Trading"}

	cfg := NewSearchConfig(Matches("companyName", "johnson"))
	if !cfg.Accepts(record) {
		t.Fatal("expected default config to accept a typo")
	}

	strict := NewSearchConfig(Matches("companyName", "johnson"), WithMinScore(0.9))
	if strict.Accepts(record) {
		t.Error("expected min score 0.9 to reject a 0.5 partial match")
	}

	none := NewSearchConfig()
	if !none.Accepts(record) {
		t.Error("a config without filters accepts every record")
	}
}

func TestHasMatches(t *testing.T) {
	tests := map[string]struct {
		expr     Expression
		expected bool
	}{
		"compare":   {expr: Eq("a", 1), expected: false},
		"matches":   {expr: Matches("a", "x"), expected: true},
		"in_and":    {expr: And(Eq("a", 1), Matches("b", "x")), expected: true},
		"in_or":     {expr: Or(Eq("a", 1), Eq("b", 2)), expected: false},
		"under_not": {expr: Not(Or(Eq("a", 1), Matches("b", "x"))), expected: true},
		"range":     {expr: Range("a", 1, 2), expected: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := HasMatches(tt.expr); got != tt.expected {
				t.Errorf("HasMatches = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCompareValues(t *testing.T) {
	tests := map[string]struct {
		v1, v2   any
		expected int
	}{
		"both_nil":        {v1: nil, v2: nil, expected: 0},
		"nil_first":       {v1: nil, v2: 1, expected: -1},
		"nil_last":        {v1: "a", v2: nil, expected: 1},
		"ints":            {v1: 1, v2: 2, expected: -1},
		"mixed_numbers":   {v1: 2.5, v2: int64(2), expected: 1},
		"unsigned":        {v1: uint8(3), v2: 3, expected: 0},
		"json_number":     {v1: json.Number("10"), v2: 9, expected: 1},
		"strings":         {v1: "apple", v2: "banana", expected: -1},
		"numeric_strings": {v1: "10", v2: "9", expected: -1},
		"number_vs_text":  {v1: 10, v2: "9", expected: -1},
		"bools":           {v1: true, v2: false, expected: 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := CompareValues(tt.v1, tt.v2); got != tt.expected {
				t.Errorf("CompareValues(%v, %v) = %d, want %d", tt.v1, tt.v2, got, tt.expected)
			}
		})
	}
}

func TestEqualValues(t *testing.T) {
	tests := map[string]struct {
		v1, v2   any
		expected bool
	}{
		"both_nil":      {v1: nil, v2: nil, expected: true},
		"one_nil":       {v1: nil, v2: "", expected: false},
		"int_float":     {v1: 12, v2: 12.0, expected: true},
		"strings":       {v1: "a", v2: "a", expected: true},
		"bool_text":     {v1: true, v2: "true", expected: true},
		"different_num": {v1: 1, v2: 2, expected: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := EqualValues(tt.v1, tt.v2); got != tt.expected {
				t.Errorf("EqualValues(%v, %v) = %v, want %v", tt.v1, tt.v2, got, tt.expected)
			}
		})
	}
}
