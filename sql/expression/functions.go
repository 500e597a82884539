package expression

import (
	"strings"

	"github.com/sokcuri/mysql-emulator/sql"
)

// aggregateNames lists the function names evaluated over a GROUP BY
// bucket rather than a single row (spec §4.4).
var aggregateNames = map[string]bool{
	"COUNT": true,
	"SUM":   true,
	"MIN":   true,
	"MAX":   true,
	"AVG":   true,
}

// IsAggregate reports whether name is one of the aggregate functions.
func IsAggregate(name string) bool {
	return aggregateNames[strings.ToUpper(name)]
}

func (e *Evaluator) evalFunction(fn Function, row sql.Row, group []sql.Row) (sql.Value, error) {
	name := strings.ToUpper(fn.Name)
	if IsAggregate(name) {
		if group == nil {
			return sql.Null, sql.ErrAggregateNeedsGroup.New(fn.Name)
		}
		return e.evalAggregate(name, fn, group)
	}
	return e.evalScalarFunction(name, fn, row, group)
}

func (e *Evaluator) evalAggregate(name string, fn Function, group []sql.Row) (sql.Value, error) {
	if name == "COUNT" {
		return e.evalCount(fn, group)
	}

	var values []sql.Value
	seen := map[string]bool{}
	for _, r := range group {
		if len(fn.Args) == 0 {
			continue
		}
		v, err := e.Evaluate(fn.Args[0], r, nil)
		if err != nil {
			return sql.Null, err
		}
		if v.IsNull() {
			continue
		}
		if fn.Distinct {
			k := v.String()
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		values = append(values, v)
	}

	switch name {
	case "SUM":
		if len(values) == 0 {
			return sql.Null, nil
		}
		var sum float64
		for _, v := range values {
			sum += v.Float64Value()
		}
		return sql.NewFloat64(sum), nil
	case "AVG":
		if len(values) == 0 {
			return sql.Null, nil
		}
		var sum float64
		for _, v := range values {
			sum += v.Float64Value()
		}
		return sql.NewFloat64(sum / float64(len(values))), nil
	case "MIN":
		if len(values) == 0 {
			return sql.Null, nil
		}
		min := values[0]
		for _, v := range values[1:] {
			if v.Compare(min) < 0 {
				min = v
			}
		}
		return min, nil
	case "MAX":
		if len(values) == 0 {
			return sql.Null, nil
		}
		max := values[0]
		for _, v := range values[1:] {
			if v.Compare(max) > 0 {
				max = v
			}
		}
		return max, nil
	default:
		return sql.Null, sql.ErrUnknownFunction.New(fn.Name)
	}
}

func (e *Evaluator) evalCount(fn Function, group []sql.Row) (sql.Value, error) {
	if len(fn.Args) == 0 {
		return sql.Null, sql.NewEvaluatorError("COUNT requires one argument")
	}
	if _, ok := fn.Args[0].(Star); ok {
		return sql.NewInt64(int64(len(group))), nil
	}

	seen := map[string]bool{}
	var count int64
	for _, r := range group {
		v, err := e.Evaluate(fn.Args[0], r, nil)
		if err != nil {
			return sql.Null, err
		}
		if v.IsNull() {
			continue
		}
		if fn.Distinct {
			k := v.String()
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		count++
	}
	return sql.NewInt64(count), nil
}

func (e *Evaluator) evalScalarFunction(name string, fn Function, row sql.Row, group []sql.Row) (sql.Value, error) {
	args := make([]sql.Value, len(fn.Args))
	for i, a := range fn.Args {
		v, err := e.Evaluate(a, row, group)
		if err != nil {
			return sql.Null, err
		}
		args[i] = v
	}

	switch name {
	case "DATABASE", "SCHEMA":
		return sql.NewString(e.Server.CurrentDatabase()), nil
	case "UPPER", "UCASE":
		if len(args) != 1 {
			return sql.Null, sql.NewEvaluatorError("%s requires one argument", name)
		}
		if args[0].IsNull() {
			return sql.Null, nil
		}
		return sql.NewString(strings.ToUpper(args[0].String())), nil
	case "LOWER", "LCASE":
		if len(args) != 1 {
			return sql.Null, sql.NewEvaluatorError("%s requires one argument", name)
		}
		if args[0].IsNull() {
			return sql.Null, nil
		}
		return sql.NewString(strings.ToLower(args[0].String())), nil
	case "CONCAT":
		var sb strings.Builder
		for _, a := range args {
			if a.IsNull() {
				return sql.Null, nil
			}
			sb.WriteString(a.String())
		}
		return sql.NewString(sb.String()), nil
	case "LENGTH", "CHAR_LENGTH":
		if len(args) != 1 {
			return sql.Null, sql.NewEvaluatorError("%s requires one argument", name)
		}
		if args[0].IsNull() {
			return sql.Null, nil
		}
		return sql.NewInt64(int64(len(args[0].String()))), nil
	case "COALESCE":
		for _, a := range args {
			if !a.IsNull() {
				return a, nil
			}
		}
		return sql.Null, nil
	case "ABS":
		if len(args) != 1 {
			return sql.Null, sql.NewEvaluatorError("%s requires one argument", name)
		}
		if args[0].IsNull() {
			return sql.Null, nil
		}
		f := args[0].Float64Value()
		if f < 0 {
			f = -f
		}
		return sql.NewFloat64(f), nil
	default:
		return sql.Null, sql.ErrUnknownFunction.New(fn.Name)
	}
}

func (e *Evaluator) evalCase(c Case, row sql.Row, group []sql.Row) (sql.Value, error) {
	for _, w := range c.Whens {
		cond, err := e.Evaluate(w.Cond, row, group)
		if err != nil {
			return sql.Null, err
		}
		if !cond.IsNull() && cond.Truthy() {
			return e.Evaluate(w.Value, row, group)
		}
	}
	if c.Else == nil {
		return sql.Null, nil
	}
	return e.Evaluate(c.Else, row, group)
}

func (e *Evaluator) evalSelect(sel Select, row sql.Row) (sql.Value, error) {
	rows, err := e.runSubquery(sel.Query, row)
	if err != nil {
		return sql.Null, err
	}
	if len(rows) == 0 {
		return sql.Null, nil
	}
	if len(rows) > 1 {
		return sql.Null, sql.ErrSubqueryTooManyRows.New()
	}
	for _, v := range rows[0] {
		return v, nil
	}
	return sql.Null, nil
}
