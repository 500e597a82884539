package parse

import (
	"github.com/sokcuri/mysql-emulator/sql"
	"github.com/sokcuri/mysql-emulator/sql/expression"
)

// aliasMap maps every From entry's table name and alias (when present)
// to its effective name: the identifier rows are actually keyed under
// once the FROM stage runs (spec §4.2, SPEC_FULL §6 "Alias rewrite").
func aliasMap(froms []sql.From) map[string]string {
	m := map[string]string{}
	for _, f := range froms {
		eff := f.EffectiveName()
		if f.Table != "" {
			m[f.Table] = eff
		}
		if f.Alias != "" {
			m[f.Alias] = eff
		}
	}
	return m
}

// rewriteAliases normalizes every column_ref/star table qualifier in q
// through aliasMap(q.From), so a query naming the bare table even though
// it declared an alias still resolves against the scope key the FROM
// stage produces (spec.md §9 Open Question: "alias->base-table" means
// the FROM stage's scope key, not the literal table name).
func rewriteAliases(q *sql.SelectQuery) {
	m := aliasMap(q.From)
	if len(m) == 0 {
		return
	}

	for i, c := range q.Columns {
		q.Columns[i].Expr = rewriteExpr(c.Expr, m)
	}
	q.Where = rewriteExpr(q.Where, m)
	for i, g := range q.GroupBy {
		q.GroupBy[i] = rewriteExpr(g, m)
	}
	q.Having = rewriteExpr(q.Having, m)
	for i, o := range q.OrderBy {
		q.OrderBy[i].Expr = rewriteExpr(o.Expr, m)
	}
	for i, f := range q.From {
		q.From[i].On = rewriteExpr(f.On, m)
	}
}

// rewriteExpr walks expr's tree rewriting ColumnRef/Star table
// qualifiers through m. A nested Select (sub-query) is left untouched:
// it already went through its own rewriteAliases call, scoped to its
// own FROM list, when it was converted.
func rewriteExpr(expr sql.Expression, m map[string]string) sql.Expression {
	if expr == nil {
		return nil
	}
	switch x := expr.(type) {
	case expression.ColumnRef:
		if eff, ok := m[x.Table]; ok {
			x.Table = eff
		}
		return x

	case expression.Star:
		if x.HasTable {
			if eff, ok := m[x.Table]; ok {
				x.Table = eff
			}
		}
		return x

	case expression.Binary:
		x.Left = rewriteExpr(x.Left, m)
		x.Right = rewriteExpr(x.Right, m)
		return x

	case expression.Function:
		args := make([]sql.Expression, len(x.Args))
		for i, a := range x.Args {
			args[i] = rewriteExpr(a, m)
		}
		x.Args = args
		return x

	case expression.Case:
		whens := make([]expression.WhenClause, len(x.Whens))
		for i, w := range x.Whens {
			whens[i] = expression.WhenClause{Cond: rewriteExpr(w.Cond, m), Value: rewriteExpr(w.Value, m)}
		}
		x.Whens = whens
		if x.Else != nil {
			x.Else = rewriteExpr(x.Else, m)
		}
		return x

	case expression.Array:
		values := make([]sql.Expression, len(x.Values))
		for i, v := range x.Values {
			values[i] = rewriteExpr(v, m)
		}
		x.Values = values
		return x

	default:
		return expr
	}
}
