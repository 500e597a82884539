package rowexec

import (
	"github.com/sokcuri/mysql-emulator/sql"
	"github.com/sokcuri/mysql-emulator/sql/expression"
)

// applyFrom implements the FROM/JOIN stage (spec §4.5(1)): every source
// is loaded and re-keyed under its effective name, then combined
// left-to-right by comma/CROSS/INNER/LEFT JOIN.
func (p *Pipeline) applyFrom(sources []sql.From) ([]sql.Row, sql.Scope, error) {
	if len(sources) == 0 {
		return []sql.Row{sql.NewRow()}, nil, nil
	}

	var rows []sql.Row
	var scope sql.Scope

	for i, src := range sources {
		srcRows, columns, err := p.loadSource(src, scope)
		if err != nil {
			return nil, nil, err
		}

		if i == 0 {
			rows = srcRows
			scope = scope.AddTable(src.EffectiveName(), columns)
			continue
		}

		newScope := scope.AddTable(src.EffectiveName(), columns)
		eval := p.newEvaluator(newScope)
		rows, err = joinRows(eval, rows, srcRows, src, columns)
		if err != nil {
			return nil, nil, err
		}
		scope = newScope
	}

	return rows, scope, nil
}

// loadSource resolves one FROM entry into rows keyed by its effective
// name, plus the bare column names it contributes to the scope.
func (p *Pipeline) loadSource(src sql.From, outerScope sql.Scope) ([]sql.Row, []string, error) {
	effName := src.EffectiveName()

	if src.IsDerived {
		if src.Alias == "" {
			return nil, nil, sql.ErrDerivedTableAlias.New()
		}
		nested := &Pipeline{Server: p.Server, Outer: p.Outer}
		result, err := nested.Execute(src.Query)
		if err != nil {
			return nil, nil, err
		}
		rows := make([]sql.Row, len(result.Rows))
		for i, r := range result.Rows {
			nr := sql.NewRow()
			for _, c := range result.Columns {
				nr[sql.QualifiedKey(effName, c)] = r[c]
			}
			rows[i] = nr
		}
		return rows, result.Columns, nil
	}

	dbName := src.Database
	if dbName == "" {
		dbName = p.Server.CurrentDatabase()
	}
	db, err := p.Server.GetDatabase(dbName)
	if err != nil {
		return nil, nil, err
	}
	table, err := db.GetTable(src.Table)
	if err != nil {
		return nil, nil, err
	}

	cols := table.GetColumns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}

	bareRows := table.GetRows()
	rows := make([]sql.Row, len(bareRows))
	for i, r := range bareRows {
		nr := sql.NewRow()
		for _, name := range names {
			nr[sql.QualifiedKey(effName, name)] = r[name]
		}
		rows[i] = nr
	}
	return rows, names, nil
}

// joinRows combines left (the accumulated result so far) with right (the
// newly loaded source) according to src.Join (spec §4.5(1)).
func joinRows(eval *expression.Evaluator, left, right []sql.Row, src sql.From, rightColumns []string) ([]sql.Row, error) {
	var out []sql.Row

	switch src.Join {
	case "INNER JOIN":
		if src.On == nil {
			return nil, sql.ErrJoinOnRequired.New(src.Join)
		}
		fallthrough
	case "", "CROSS JOIN":
		for _, l := range left {
			for _, r := range right {
				merged := mergeRows(l, r)
				ok, err := evalOn(eval, src.On, merged)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, merged)
				}
			}
		}
	case "LEFT JOIN":
		effName := src.EffectiveName()
		for _, l := range left {
			matched := false
			for _, r := range right {
				merged := mergeRows(l, r)
				ok, err := evalOn(eval, src.On, merged)
				if err != nil {
					return nil, err
				}
				if !ok {
					continue
				}
				matched = true
				out = append(out, merged)
			}
			if !matched {
				merged := l.Copy()
				for _, c := range rightColumns {
					merged[sql.QualifiedKey(effName, c)] = sql.Null
				}
				out = append(out, merged)
			}
		}
	default:
		return nil, sql.ErrUnknownJoinKind.New(src.Join)
	}

	return out, nil
}

func evalOn(eval *expression.Evaluator, on sql.Expression, row sql.Row) (bool, error) {
	if on == nil {
		return true, nil
	}
	v, err := eval.Evaluate(on, row, nil)
	if err != nil {
		return false, sql.WrapClause(err, "on clause")
	}
	return !v.IsNull() && v.Truthy(), nil
}

func mergeRows(l, r sql.Row) sql.Row {
	out := l.Copy()
	for k, v := range r {
		out[k] = v
	}
	return out
}
