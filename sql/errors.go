package sql

import (
	"fmt"

	"gopkg.in/src-d/go-errors.v1"
)

// Cast error kinds (spec §4.1). The Insert Processor matches on these to
// append positional ("at row N") context without string-sniffing messages.
var (
	// ErrOutOfRange is raised when a cast value exceeds its column's
	// declared range or length.
	ErrOutOfRange = errors.NewKind("OUT_OF_RANGE_VALUE: %s")
	// ErrIncorrectInteger is raised when a value cannot be interpreted
	// as an integer at all.
	ErrIncorrectInteger = errors.NewKind("INCORRECT_INTEGER_VALUE: %s")
	// ErrBadNull is raised when a null value is cast against a
	// non-nullable column.
	ErrBadNull = errors.NewKind("Field '%s' doesn't have a default value")
)

// Evaluator error kinds (spec §4.3/§7).
var (
	ErrUnknownColumn       = errors.NewKind("Unknown column '%s' in '%s'")
	ErrAmbiguousColumn     = errors.NewKind("Column '%s' in field list is ambiguous")
	ErrSubqueryTooManyRows = errors.NewKind("Subquery returns more than 1 row")
	ErrDivisionByZero      = errors.NewKind("Division by zero")
	ErrUnknownFunction     = errors.NewKind("FUNCTION %s does not exist")
	ErrAggregateNeedsGroup = errors.NewKind("aggregate function %s used outside of a grouping context")
)

// Processor error kinds (spec §4.6/§4.7).
var (
	ErrDerivedTableAlias   = errors.NewKind("Every derived table must have its own alias")
	ErrUnknownJoinKind     = errors.NewKind("unknown join kind '%s'")
	ErrColumnCountMismatch = errors.NewKind("Column count doesn't match value count at row %d")
	ErrNonAggregatedColumn = errors.NewKind("In aggregated query without GROUP BY, expression #%d of SELECT list contains nonaggregated column '%s'")
	ErrJoinOnRequired      = errors.NewKind("%s requires an ON clause")
)

// ErrResultSetTooLarge is raised by the Engine when a SELECT would return
// more rows than its configured MaxRows guard allows.
var ErrResultSetTooLarge = errors.NewKind("result set exceeds the configured row limit (%d)")

// EvaluatorError wraps an evaluator failure so callers never observe a
// raw internal error escaping the expression evaluator (spec §4.3).
type EvaluatorError struct {
	Message string
}

func (e *EvaluatorError) Error() string { return e.Message }

// NewEvaluatorError builds an EvaluatorError.
func NewEvaluatorError(format string, args ...interface{}) error {
	return &EvaluatorError{Message: fmt.Sprintf(format, args...)}
}

// ProcessorError is the user-visible, clause-annotated SQL error surfaced
// at the pipeline/processor boundary (spec §4.7).
type ProcessorError struct {
	Message string
}

func (e *ProcessorError) Error() string { return e.Message }

// NewProcessorError builds a ProcessorError.
func NewProcessorError(format string, args ...interface{}) error {
	return &ProcessorError{Message: fmt.Sprintf(format, args...)}
}

// SubQueryError flags a derived-table validation failure; it is wrapped
// into a ProcessorError by the time it reaches the Engine (spec §4.7).
type SubQueryError struct {
	Message string
}

func (e *SubQueryError) Error() string { return e.Message }

// NewSubQueryError builds a SubQueryError.
func NewSubQueryError(format string, args ...interface{}) error {
	return &SubQueryError{Message: fmt.Sprintf(format, args...)}
}

// WrapClause re-labels an evaluator/processor error with the failing
// clause, matching MySQL's "... in 'where clause'" phrasing (spec §4.5,
// §4.7). It only annotates once: if msg already carries a clause suffix
// this function is not called again by the same stage.
func WrapClause(err error, clause string) error {
	if err == nil {
		return nil
	}
	return NewProcessorError("%s in '%s'", err.Error(), clause)
}
