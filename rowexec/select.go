package rowexec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sokcuri/mysql-emulator/sql"
	"github.com/sokcuri/mysql-emulator/sql/expression"
)

// selection carries the SELECT/HAVING stage's output together with the
// per-row evaluation context (alias row and group members) that ORDER BY
// needs to resolve expressions referencing un-projected columns or
// aggregates (spec §4.5(4) runs after (5) but must see (5)'s context).
type selection struct {
	result    *Result
	aliasRows []sql.Row
	rowGroups [][]sql.Row
	// eval is the evaluator HAVING was checked against, its Scope
	// extended with every SELECT alias (spec §4.5(5)): "For each SELECT
	// alias, append `::alias` to the scope list so HAVING can reference
	// it." ORDER BY reuses the same extended evaluator, since it runs
	// against the same aliasRows/rowGroups context.
	eval *expression.Evaluator
}

// applySelectAndHaving implements the SELECT/HAVING stage (spec §4.5(5)):
// each group's representative row is projected through the column list,
// its aliases become visible to HAVING, and the group is dropped if
// HAVING evaluates false or NULL.
func (p *Pipeline) applySelectAndHaving(eval *expression.Evaluator, query *sql.SelectQuery, groups []*group) (*selection, error) {
	var columns []string
	var outRows []sql.Row
	var aliasRows []sql.Row
	var rowGroups [][]sql.Row

	aliasEval := withSelectAliases(eval, query.Columns)

	for _, g := range groups {
		rep := g.representative()

		out := sql.NewRow()
		aliasRow := rep.Copy()

		cols, err := p.projectColumns(eval, query.Columns, rep, g.rows, out, aliasRow)
		if err != nil {
			return nil, sql.WrapClause(err, "field list")
		}
		if columns == nil {
			columns = cols
		}

		if query.Having != nil {
			v, err := aliasEval.Evaluate(query.Having, aliasRow, g.rows)
			if err != nil {
				return nil, sql.WrapClause(err, "having clause")
			}
			if v.IsNull() || !v.Truthy() {
				continue
			}
		}

		outRows = append(outRows, out)
		aliasRows = append(aliasRows, aliasRow)
		rowGroups = append(rowGroups, g.rows)
	}

	if columns == nil {
		columns, _ = p.columnNames(query.Columns, nil)
	}

	return &selection{
		result:    &Result{Columns: columns, Rows: outRows},
		aliasRows: aliasRows,
		rowGroups: rowGroups,
		eval:      aliasEval,
	}, nil
}

// withSelectAliases returns a copy of eval whose Scope additionally
// resolves every aliased SELECT column, so HAVING/ORDER BY can reference
// a pure SELECT alias that names no base-table column (spec §4.5(5)).
func withSelectAliases(eval *expression.Evaluator, selCols []sql.SelectColumn) *expression.Evaluator {
	scope := eval.Scope
	for _, c := range selCols {
		if c.Alias != "" {
			scope = scope.AddAlias(c.Alias)
		}
	}
	ext := *eval
	ext.Scope = scope
	return &ext
}

// projectColumns evaluates every SELECT column against rep/group,
// writing bare-keyed results into out and alias-keyed results into
// aliasRow so HAVING can reference them. It returns the ordered output
// column names.
func (p *Pipeline) projectColumns(eval *expression.Evaluator, selCols []sql.SelectColumn, rep sql.Row, group []sql.Row, out, aliasRow sql.Row) ([]string, error) {
	var names []string
	for i, c := range selCols {
		if star, ok := c.Expr.(expression.Star); ok {
			expanded, err := eval.EvaluateStar(star, rep)
			if err != nil {
				return nil, err
			}
			for _, name := range sortedKeys(expanded) {
				out[name] = expanded[name]
				names = append(names, name)
			}
			continue
		}

		v, err := eval.Evaluate(c.Expr, rep, group)
		if err != nil {
			return nil, err
		}
		name := columnDisplayName(c, i)
		out[name] = v
		aliasRow[sql.AliasKey(name)] = v
		names = append(names, name)
	}
	return names, nil
}

func (p *Pipeline) columnNames(selCols []sql.SelectColumn, rep sql.Row) ([]string, error) {
	var names []string
	for i, c := range selCols {
		names = append(names, columnDisplayName(c, i))
	}
	return names, nil
}

func sortedKeys(m map[string]sql.Value) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	// Star expansion comes back as a map, so source column order is not
	// available here; names are sorted so the output order is stable.
	sort.Strings(out)
	return out
}

// columnDisplayName derives the output column name for a SELECT entry:
// its alias, the bare column name, or a rendered expression text,
// matching MySQL's default unaliased-expression display.
func columnDisplayName(c sql.SelectColumn, index int) string {
	if c.Alias != "" {
		return c.Alias
	}
	switch x := c.Expr.(type) {
	case expression.ColumnRef:
		return x.Column
	case expression.Function:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = exprText(a)
		}
		return fmt.Sprintf("%s(%s)", strings.ToLower(x.Name), strings.Join(args, ", "))
	default:
		return exprText(c.Expr)
	}
}

func exprText(expr sql.Expression) string {
	switch x := expr.(type) {
	case expression.ColumnRef:
		return x.Column
	case expression.Star:
		return "*"
	case expression.Number:
		return fmt.Sprintf("%g", x.Value)
	case expression.String:
		return x.Value
	default:
		return "expr"
	}
}
