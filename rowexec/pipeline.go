// Package rowexec implements the Select Pipeline and Insert Processor
// (spec §4.5, §4.6): the six ordered stages a SELECT passes through, and
// the per-row default/cast/auto-increment resolution an INSERT performs.
package rowexec

import (
	"github.com/mitchellh/hashstructure"

	"github.com/sokcuri/mysql-emulator/sql"
	"github.com/sokcuri/mysql-emulator/sql/expression"
)

// Pipeline runs a resolved SelectQuery against Server and returns its
// result rows, bare-keyed in SELECT column order (spec §4.5).
type Pipeline struct {
	Server sql.Server
	// Outer correlates a nested pipeline run (sub-query) with the row of
	// the enclosing query; nil at the top level.
	Outer sql.Row
	// OuterScope is the enclosing query's scope. The pipeline neither sets
	// nor reads it: a sub-query column that fails to resolve against its
	// own scope is looked up by key in Outer instead.
	OuterScope sql.Scope
}

// NewPipeline builds a top-level Pipeline bound to server.
func NewPipeline(server sql.Server) *Pipeline {
	return &Pipeline{Server: server}
}

// Result is a Select Pipeline's output: ordered column names and the
// bare-keyed rows projected under them.
type Result struct {
	Columns []string
	Rows    []sql.Row
}

// Execute runs the six-stage pipeline over query (spec §4.5):
// FROM/JOIN -> WHERE -> GROUP BY -> SELECT/HAVING -> ORDER BY -> LIMIT,
// with DISTINCT applied between ORDER BY and LIMIT.
func (p *Pipeline) Execute(query *sql.SelectQuery) (*Result, error) {
	rows, scope, err := p.applyFrom(query.From)
	if err != nil {
		return nil, err
	}

	eval := p.newEvaluator(scope)

	rows, err = p.applyWhere(eval, query.Where, rows)
	if err != nil {
		return nil, sql.WrapClause(err, "where clause")
	}

	hasAgg := queryHasAggregate(query)
	if err := checkAggregateConsistency(query, hasAgg); err != nil {
		return nil, err
	}

	var groups []*group
	switch {
	case len(query.GroupBy) > 0:
		groups, err = p.applyGroupBy(eval, query.GroupBy, rows)
	case hasAgg:
		groups = wholeTableGroup(rows)
	default:
		groups = p.implicitGroups(rows)
	}
	if err != nil {
		return nil, sql.WrapClause(err, "group statement")
	}

	sel, err := p.applySelectAndHaving(eval, query, groups)
	if err != nil {
		return nil, err
	}

	sel.result.Rows, err = p.applyOrderBy(query.OrderBy, sel)
	if err != nil {
		return nil, sql.WrapClause(err, "order clause")
	}

	result := sel.result
	if query.Distinct {
		result.Rows = dedupeRows(result.Rows, result.Columns)
	}

	result.Rows = applyLimit(result.Rows, query.Limit, query.Offset)

	return result, nil
}

// runSubquery implements the expression.Evaluator.RunSubquery hook,
// executing query as a correlated nested pipeline (spec §4.3 scalar
// sub-queries, spec §4.4 IN (SELECT ...)).
func (p *Pipeline) runSubquery(query *sql.SelectQuery, outerRow sql.Row) ([]sql.Row, error) {
	nested := &Pipeline{Server: p.Server, Outer: outerRow}
	result, err := nested.Execute(query)
	if err != nil {
		return nil, err
	}
	out := make([]sql.Row, len(result.Rows))
	for i, r := range result.Rows {
		qualified := sql.NewRow()
		for k, v := range r {
			qualified[sql.AliasKey(k)] = v
		}
		out[i] = qualified
	}
	return out, nil
}

func (p *Pipeline) newEvaluator(scope sql.Scope) *expression.Evaluator {
	eval := expression.NewEvaluator(p.Server, scope)
	eval.Outer = p.Outer
	eval.RunSubquery = p.runSubquery
	return eval
}

// group is one GROUP BY bucket: the member rows folded into it, in
// first-seen order (spec §4.5(3): "group order is first-seen, not
// sorted").
type group struct {
	rows []sql.Row
}

func dedupeRows(rows []sql.Row, columns []string) []sql.Row {
	seen := map[string]bool{}
	var out []sql.Row
	for _, r := range rows {
		key := rowKey(r, columns)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func rowKey(r sql.Row, columns []string) string {
	key := ""
	for _, c := range columns {
		key += c + "\x00" + r[c].GoString() + "\x01"
	}
	return key
}

func applyLimit(rows []sql.Row, limit, offset int) []sql.Row {
	if offset > 0 {
		if offset >= len(rows) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// hashGroupKey computes a stable hash for a GROUP BY key tuple, used to
// bucket rows without relying on key ordering or Go map iteration order.
func hashGroupKey(values []sql.Value) (uint64, error) {
	rendered := make([]string, len(values))
	for i, v := range values {
		if v.IsNull() {
			rendered[i] = "\x00NULL"
			continue
		}
		rendered[i] = v.GoString()
	}
	return hashstructure.Hash(rendered, nil)
}
