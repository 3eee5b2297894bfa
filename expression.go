package fuzzyx

import "github.com/cockroachdb/errors"

// Expression represents a composable filter expression.
// All Expressions are SearchOptions, but not all SearchOptions are Expressions.
type Expression interface {
	SearchOption
	// expr is a marker method to distinguish expressions from other options.
	expr()
}

type baseExpr struct{}

func (baseExpr) expr() {}

func appendFilter(cfg *SearchConfig, e Expression) {
	cfg.Filters = append(cfg.Filters, e)
}

// AndExpr matches when every inner expression matches.
type AndExpr struct {
	baseExpr
	Exprs []Expression
}

// Apply implements SearchOption.
func (a AndExpr) Apply(cfg *SearchConfig) { appendFilter(cfg, a) }

// And creates an AND expression combining multiple expressions.
func And(exprs ...Expression) Expression {
	return AndExpr{Exprs: exprs}
}

// OrExpr matches when any inner expression matches.
type OrExpr struct {
	baseExpr
	Exprs []Expression
}

// Apply implements SearchOption.
func (o OrExpr) Apply(cfg *SearchConfig) { appendFilter(cfg, o) }

// Or creates an OR expression combining multiple expressions.
func Or(exprs ...Expression) Expression {
	return OrExpr{Exprs: exprs}
}

// NotExpr negates Inner.
type NotExpr struct {
	baseExpr
	Inner Expression
}

// Apply implements SearchOption.
func (n NotExpr) Apply(cfg *SearchConfig) { appendFilter(cfg, n) }

// Not creates a NOT expression negating the given expression.
func Not(expr Expression) Expression {
	return NotExpr{Inner: expr}
}

// CompareExpr compares the value at Field with Value using Op. OpExists
// ignores Value.
type CompareExpr struct {
	baseExpr
	Field string
	Op    Operator
	Value any
}

// Apply implements SearchOption.
func (c CompareExpr) Apply(cfg *SearchConfig) { appendFilter(cfg, c) }

// Eq matches records whose field equals value.
func Eq(field string, value any) Expression {
	return CompareExpr{Field: field, Op: OpEq, Value: value}
}

// Ne matches records whose field differs from value.
func Ne(field string, value any) Expression {
	return CompareExpr{Field: field, Op: OpNe, Value: value}
}

// Gt matches records whose field is greater than value.
func Gt(field string, value any) Expression {
	return CompareExpr{Field: field, Op: OpGt, Value: value}
}

// Gte matches records whose field is greater than or equal to value.
func Gte(field string, value any) Expression {
	return CompareExpr{Field: field, Op: OpGte, Value: value}
}

// Lt matches records whose field is less than value.
func Lt(field string, value any) Expression {
	return CompareExpr{Field: field, Op: OpLt, Value: value}
}

// Lte matches records whose field is less than or equal to value.
func Lte(field string, value any) Expression {
	return CompareExpr{Field: field, Op: OpLte, Value: value}
}

// Exists matches records that have the field.
func Exists(field string) Expression {
	return CompareExpr{Field: field, Op: OpExists}
}

// RangeExpr matches values between Min and Max, both inclusive. A nil bound
// is open.
type RangeExpr struct {
	baseExpr
	Field string
	Min   any
	Max   any
}

// Apply implements SearchOption.
func (r RangeExpr) Apply(cfg *SearchConfig) { appendFilter(cfg, r) }

// Range creates a range comparison expression.
func Range(field string, min, max any) Expression {
	return RangeExpr{Field: field, Min: min, Max: max}
}

// MatchesExpr keeps records whose Field fuzzy-matches Term with at least the
// search's MinScore, using the search's match configuration.
type MatchesExpr struct {
	baseExpr
	Field string
	Term  string
}

// Apply implements SearchOption.
func (m MatchesExpr) Apply(cfg *SearchConfig) { appendFilter(cfg, m) }

// Matches creates a fuzzy field filter.
func Matches(field, term string) Expression {
	return MatchesExpr{Field: field, Term: term}
}

func validateExpression(expr Expression) error {
	switch e := expr.(type) {
	case AndExpr:
		return validateAll(e.Exprs)
	case OrExpr:
		return validateAll(e.Exprs)
	case NotExpr:
		if e.Inner == nil {
			return errors.Wrap(ErrInvalidExpression, "not: missing inner expression")
		}
		return validateExpression(e.Inner)
	case CompareExpr:
		if e.Field == "" {
			return errors.Wrapf(ErrInvalidExpression, "%s: empty field", e.Op)
		}
		switch e.Op {
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpExists:
			return nil
		default:
			return errors.Wrapf(ErrInvalidExpression, "unknown operator %q", e.Op)
		}
	case RangeExpr:
		if e.Field == "" {
			return errors.Wrap(ErrInvalidExpression, "range: empty field")
		}
		return nil
	case MatchesExpr:
		if e.Field == "" {
			return errors.Wrap(ErrInvalidExpression, "matches: empty field")
		}
		return nil
	case nil:
		return errors.Wrap(ErrInvalidExpression, "nil expression")
	default:
		return errors.Wrapf(ErrInvalidExpression, "unsupported expression %T", expr)
	}
}

func validateAll(exprs []Expression) error {
	for _, e := range exprs {
		if err := validateExpression(e); err != nil {
			return err
		}
	}
	return nil
}
