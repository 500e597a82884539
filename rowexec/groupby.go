package rowexec

import (
	"github.com/sokcuri/mysql-emulator/sql"
	"github.com/sokcuri/mysql-emulator/sql/expression"
)

// applyGroupBy implements the explicit GROUP BY case of the GROUP BY
// stage (spec §4.5(3)): rows are bucketed by the GROUP BY key tuple,
// preserving first-seen bucket order.
func (p *Pipeline) applyGroupBy(eval *expression.Evaluator, groupBy []sql.Expression, rows []sql.Row) ([]*group, error) {
	var order []uint64
	buckets := map[uint64]*group{}

	for _, r := range rows {
		keyValues := make([]sql.Value, len(groupBy))
		for i, expr := range groupBy {
			v, err := eval.Evaluate(expr, r, nil)
			if err != nil {
				return nil, err
			}
			keyValues[i] = v
		}
		h, err := hashGroupKey(keyValues)
		if err != nil {
			return nil, sql.NewEvaluatorError("failed to hash group key: %s", err)
		}
		g, ok := buckets[h]
		if !ok {
			g = &group{}
			buckets[h] = g
			order = append(order, h)
		}
		g.rows = append(g.rows, r)
	}

	out := make([]*group, len(order))
	for i, h := range order {
		out[i] = buckets[h]
	}
	return out, nil
}

// implicitGroups handles the GROUP-BY-less case: one group per row when
// the caller's query has no aggregate (so every row is its own unit of
// SELECT evaluation). The caller checks this with queryHasAggregate and
// uses wholeTableGroup instead when an aggregate is present.
func (p *Pipeline) implicitGroups(rows []sql.Row) []*group {
	out := make([]*group, len(rows))
	for i, r := range rows {
		out[i] = &group{rows: []sql.Row{r}}
	}
	return out
}

// wholeTableGroup folds every row into a single implicit group, used
// when the query has an aggregate column but no GROUP BY clause (spec
// §4.5(3)).
func wholeTableGroup(rows []sql.Row) []*group {
	return []*group{{rows: rows}}
}

func (g *group) representative() sql.Row {
	if len(g.rows) == 0 {
		return sql.NewRow()
	}
	return g.rows[0]
}
