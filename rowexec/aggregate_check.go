package rowexec

import (
	"github.com/sokcuri/mysql-emulator/sql"
	"github.com/sokcuri/mysql-emulator/sql/expression"
)

// queryHasAggregate reports whether any SELECT column or the HAVING
// clause references an aggregate function (spec §4.4).
func queryHasAggregate(query *sql.SelectQuery) bool {
	for _, c := range query.Columns {
		if containsAggregate(c.Expr) {
			return true
		}
	}
	return containsAggregate(query.Having)
}

func containsAggregate(expr sql.Expression) bool {
	switch x := expr.(type) {
	case nil:
		return false
	case expression.Function:
		if expression.IsAggregate(x.Name) {
			return true
		}
		for _, a := range x.Args {
			if containsAggregate(a) {
				return true
			}
		}
		return false
	case expression.Binary:
		return containsAggregate(x.Left) || containsAggregate(x.Right)
	case expression.Case:
		for _, w := range x.Whens {
			if containsAggregate(w.Cond) || containsAggregate(w.Value) {
				return true
			}
		}
		return containsAggregate(x.Else)
	case expression.Array:
		for _, v := range x.Values {
			if containsAggregate(v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func containsPlainColumn(expr sql.Expression) (name string, found bool) {
	switch x := expr.(type) {
	case nil:
		return "", false
	case expression.ColumnRef:
		return x.Column, true
	case expression.Binary:
		if n, ok := containsPlainColumn(x.Left); ok {
			return n, true
		}
		return containsPlainColumn(x.Right)
	case expression.Case:
		for _, w := range x.Whens {
			if n, ok := containsPlainColumn(w.Cond); ok {
				return n, true
			}
			if n, ok := containsPlainColumn(w.Value); ok {
				return n, true
			}
		}
		return containsPlainColumn(x.Else)
	case expression.Function:
		if expression.IsAggregate(x.Name) {
			return "", false
		}
		for _, a := range x.Args {
			if n, ok := containsPlainColumn(a); ok {
				return n, true
			}
		}
		return "", false
	default:
		return "", false
	}
}

// checkAggregateConsistency implements MySQL's ONLY_FULL_GROUP_BY rule
// (spec §4.5(3), §7): a query with an aggregate function but no GROUP BY
// may not also select a bare column, since a single group has no
// well-defined row to take it from.
func checkAggregateConsistency(query *sql.SelectQuery, hasAgg bool) error {
	if !hasAgg || len(query.GroupBy) > 0 {
		return nil
	}
	for i, c := range query.Columns {
		if containsAggregate(c.Expr) {
			continue
		}
		if name, ok := containsPlainColumn(c.Expr); ok {
			return sql.ErrNonAggregatedColumn.New(i+1, name)
		}
	}
	return nil
}
