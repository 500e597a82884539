package rowexec

import (
	"github.com/sokcuri/mysql-emulator/sql"
	"github.com/sokcuri/mysql-emulator/sql/expression"
)

// applyWhere implements the WHERE stage (spec §4.5(2)): keep only rows
// for which the predicate evaluates truthy, discarding NULL/false.
func (p *Pipeline) applyWhere(eval *expression.Evaluator, where sql.Expression, rows []sql.Row) ([]sql.Row, error) {
	if where == nil {
		return rows, nil
	}
	var out []sql.Row
	for _, r := range rows {
		v, err := eval.Evaluate(where, r, nil)
		if err != nil {
			return nil, err
		}
		if !v.IsNull() && v.Truthy() {
			out = append(out, r)
		}
	}
	return out, nil
}
