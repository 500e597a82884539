package rowexec

import (
	"sort"

	"github.com/sokcuri/mysql-emulator/sql"
)

// applyOrderBy implements the ORDER BY stage (spec §4.5(4)): a stable
// sort over sel's rows by each term's value, ascending unless marked
// DESC, NULLs first. Terms are evaluated against each row's alias row
// and group members, so ORDER BY can reference un-projected qualified
// columns and aggregates, not only the SELECT output (spec §4.5(4)).
func (p *Pipeline) applyOrderBy(orderBy []sql.OrderByTerm, sel *selection) ([]sql.Row, error) {
	rows := sel.result.Rows
	if len(orderBy) == 0 {
		return rows, nil
	}
	eval := sel.eval

	keys := make([][]sql.Value, len(rows))
	for i := range rows {
		var g []sql.Row
		if i < len(sel.rowGroups) {
			g = sel.rowGroups[i]
		}
		var evalRow sql.Row
		if i < len(sel.aliasRows) {
			evalRow = sel.aliasRows[i]
		}
		vals := make([]sql.Value, len(orderBy))
		for j, term := range orderBy {
			v, err := eval.Evaluate(term.Expr, evalRow, g)
			if err != nil {
				return nil, err
			}
			vals[j] = v
		}
		keys[i] = vals
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		for i, term := range orderBy {
			va, vb := ka[i], kb[i]
			cmp := compareForOrder(va, vb)
			if cmp == 0 {
				continue
			}
			if term.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	out := make([]sql.Row, len(rows))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out, nil
}

// compareForOrder orders NULL before any non-null value, matching
// MySQL's ascending-sort NULL placement.
func compareForOrder(a, b sql.Value) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return -1
	}
	if b.IsNull() {
		return 1
	}
	return a.Compare(b)
}
