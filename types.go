package fuzzyx

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Operator represents comparison operators.
type Operator string

const (
	// OpEq represents equality operator.
	OpEq Operator = "eq"
	// OpNe represents not-equal operator.
	OpNe Operator = "ne"
	// OpGt represents greater-than operator.
	OpGt Operator = "gt"
	// OpGte represents greater-than-or-equal operator.
	OpGte Operator = "gte"
	// OpLt represents less-than operator.
	OpLt Operator = "lt"
	// OpLte represents less-than-or-equal operator.
	OpLte Operator = "lte"
	// OpExists represents field existence check.
	OpExists Operator = "exists"
)

// ErrorCode represents specific error codes for search operations.
type ErrorCode int

const (
	// ErrCodeEmptyQuery is returned when an empty query is provided.
	ErrCodeEmptyQuery ErrorCode = iota + 1000

	// ErrCodeInvalidOption is returned when an invalid option is provided.
	ErrCodeInvalidOption

	// ErrCodeInvalidExpression is returned when an invalid expression is provided.
	ErrCodeInvalidExpression

	// ErrCodeTimeout is returned when a search operation times out.
	ErrCodeTimeout

	// ErrCodeCanceled is returned when a search operation is canceled.
	ErrCodeCanceled

	// ErrCodeNotImplemented is returned when a feature is not implemented.
	ErrCodeNotImplemented

	// ErrCodeBackendUnavailable is returned when the search backend is unavailable.
	ErrCodeBackendUnavailable

	// ErrCodeFieldNotFound is reported when a field path does not resolve on a record.
	ErrCodeFieldNotFound

	// ErrCodeAccessorPanic is reported when a field accessor panics.
	ErrCodeAccessorPanic
)

// String returns the human-readable string representation of the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeEmptyQuery:
		return "empty query"
	case ErrCodeInvalidOption:
		return "invalid option"
	case ErrCodeInvalidExpression:
		return "invalid expression"
	case ErrCodeTimeout:
		return "operation timed out"
	case ErrCodeCanceled:
		return "operation canceled"
	case ErrCodeNotImplemented:
		return "not implemented"
	case ErrCodeBackendUnavailable:
		return "backend unavailable"
	case ErrCodeFieldNotFound:
		return "field not found"
	case ErrCodeAccessorPanic:
		return "accessor panicked"
	default:
		return "unknown error"
	}
}

func newErrorWithCode(code ErrorCode, msg string) error {
	err := errors.New(msg)
	return errors.WithSecondaryError(err, errors.Newf("code: %d", int(code)))
}

// Errors returned by searchers. Ranking functions never return them; field
// errors are only reported through the configured logger.
var (
	ErrEmptyQuery         = newErrorWithCode(ErrCodeEmptyQuery, "fuzzyx: empty query")
	ErrInvalidOption      = newErrorWithCode(ErrCodeInvalidOption, "fuzzyx: invalid option")
	ErrInvalidExpression  = newErrorWithCode(ErrCodeInvalidExpression, "fuzzyx: invalid expression")
	ErrTimeout            = newErrorWithCode(ErrCodeTimeout, "fuzzyx: operation timed out")
	ErrCanceled           = newErrorWithCode(ErrCodeCanceled, "fuzzyx: operation canceled")
	ErrNotImplemented     = newErrorWithCode(ErrCodeNotImplemented, "fuzzyx: not implemented")
	ErrBackendUnavailable = newErrorWithCode(ErrCodeBackendUnavailable, "fuzzyx: backend unavailable")
	ErrFieldNotFound      = newErrorWithCode(ErrCodeFieldNotFound, "fuzzyx: field not found")
	ErrAccessorPanic      = newErrorWithCode(ErrCodeAccessorPanic, "fuzzyx: field accessor panicked")
)

// ContextError maps a finished context to ErrTimeout or ErrCanceled. It
// returns nil while the context is still live.
func ContextError(ctx context.Context) error {
	switch err := ctx.Err(); {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		return ErrCanceled
	}
}
