package fuzzyx

// Accepts reports whether record passes every filter in c. Records are
// anything Lookup can walk, typically map[string]any.
func (c *SearchConfig) Accepts(record any) bool {
	for _, f := range c.Filters {
		if !c.Evaluate(record, f) {
			return false
		}
	}
	return true
}

// Evaluate evaluates one expression against record. Unknown expression types
// pass.
func (c *SearchConfig) Evaluate(record any, expr Expression) bool {
	switch e := expr.(type) {
	case AndExpr:
		for _, inner := range e.Exprs {
			if !c.Evaluate(record, inner) {
				return false
			}
		}
		return true
	case OrExpr:
		for _, inner := range e.Exprs {
			if c.Evaluate(record, inner) {
				return true
			}
		}
		return false
	case NotExpr:
		return !c.Evaluate(record, e.Inner)
	case CompareExpr:
		return evaluateCompare(record, e)
	case RangeExpr:
		v, err := Lookup(record, e.Field)
		if err != nil {
			return false
		}
		if e.Min != nil && CompareValues(v, e.Min) < 0 {
			return false
		}
		return e.Max == nil || CompareValues(v, e.Max) <= 0
	case MatchesExpr:
		v, err := Lookup(record, e.Field)
		if err != nil {
			return false
		}
		r := c.Match.Classify(Text(v), e.Term)
		return r.Matched && r.Score >= c.MinScore
	default:
		return true
	}
}

func evaluateCompare(record any, e CompareExpr) bool {
	v, err := Lookup(record, e.Field)
	exists := err == nil

	switch e.Op {
	case OpExists:
		return exists
	case OpEq:
		if !exists {
			return e.Value == nil
		}
		return EqualValues(v, e.Value)
	case OpNe:
		if !exists {
			return e.Value != nil
		}
		return !EqualValues(v, e.Value)
	}

	if !exists {
		return false
	}
	cmp := CompareValues(v, e.Value)
	switch e.Op {
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	default:
		return true
	}
}

// HasMatches reports whether expr contains a MatchesExpr anywhere.
func HasMatches(expr Expression) bool {
	switch e := expr.(type) {
	case MatchesExpr:
		return true
	case AndExpr:
		return anyMatches(e.Exprs)
	case OrExpr:
		return anyMatches(e.Exprs)
	case NotExpr:
		return HasMatches(e.Inner)
	default:
		return false
	}
}

func anyMatches(exprs []Expression) bool {
	for _, e := range exprs {
		if HasMatches(e) {
			return true
		}
	}
	return false
}
