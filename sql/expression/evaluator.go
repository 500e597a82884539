package expression

import (
	"regexp"
	"strings"

	"github.com/sokcuri/mysql-emulator/sql"
)

// Evaluator interprets Expression nodes against a Row (spec §4.3). A
// single Evaluator is reused across the rows of one pipeline stage; Outer
// carries the correlated row for a scalar sub-query's evaluator, nil at
// the top level.
type Evaluator struct {
	Server sql.Server
	Scope  sql.Scope
	Outer  sql.Row

	// RunSubquery executes a scalar/IN sub-query and returns its result
	// rows. It is injected by the Select Pipeline (package rowexec) to
	// avoid an import cycle: rowexec depends on expression, so expression
	// cannot call back into rowexec directly.
	RunSubquery func(query *sql.SelectQuery, outer sql.Row) ([]sql.Row, error)
}

// NewEvaluator builds an Evaluator bound to scope.
func NewEvaluator(server sql.Server, scope sql.Scope) *Evaluator {
	return &Evaluator{Server: server, Scope: scope}
}

// WithOuter returns a copy of e carrying outer as the correlated row seen
// by sub-query evaluation.
func (e *Evaluator) WithOuter(outer sql.Row) *Evaluator {
	n := *e
	n.Outer = outer
	return &n
}

// runSubquery delegates to RunSubquery, correlating it with the current
// row so a WHERE clause inside the sub-query can reference outer columns.
func (e *Evaluator) runSubquery(query *sql.SelectQuery, row sql.Row) ([]sql.Row, error) {
	if e.RunSubquery == nil {
		return nil, sql.NewEvaluatorError("sub-queries are not supported in this context")
	}
	return e.RunSubquery(query, row)
}

// Evaluate interprets expr against row, folding group when expr contains
// an aggregate function call (spec §4.3, §4.4). group is nil in WHERE,
// ON and GROUP BY key evaluation; the SELECT, HAVING and ORDER BY stages
// pass the current group, a single row when the query is not grouped.
func (e *Evaluator) Evaluate(expr sql.Expression, row sql.Row, group []sql.Row) (sql.Value, error) {
	switch x := expr.(type) {
	case Number:
		return sql.NewFloat64(x.Value), nil
	case String:
		return sql.NewString(x.Value), nil
	case Boolean:
		return sql.NewBool(x.Value), nil
	case Null:
		return sql.Null, nil
	case Default:
		return sql.Default, nil
	case ColumnRef:
		return e.evalColumnRef(x, row)
	case Array:
		// Arrays only ever appear as the RHS of IN; Evaluate is never
		// called on them directly by a well-formed AST.
		return sql.Null, sql.NewEvaluatorError("array expression used outside of IN")
	case Binary:
		return e.evalBinary(x, row, group)
	case Function:
		return e.evalFunction(x, row, group)
	case Case:
		return e.evalCase(x, row, group)
	case Select:
		return e.evalSelect(x, row)
	default:
		return sql.Null, sql.NewEvaluatorError("unsupported expression type %T", expr)
	}
}

func (e *Evaluator) evalColumnRef(ref ColumnRef, row sql.Row) (sql.Value, error) {
	key, err := e.Scope.Resolve(ref.Table, ref.Column)
	if err != nil {
		if e.Outer != nil {
			if v, ok := lookupOuter(e.Outer, ref); ok {
				return v, nil
			}
		}
		return sql.Null, err
	}
	if v, ok := row[key]; ok {
		return v, nil
	}
	if e.Outer != nil {
		if v, ok := lookupOuter(e.Outer, ref); ok {
			return v, nil
		}
	}
	return sql.Null, nil
}

func lookupOuter(outer sql.Row, ref ColumnRef) (sql.Value, bool) {
	if ref.Table != "" {
		v, ok := outer[sql.QualifiedKey(ref.Table, ref.Column)]
		return v, ok
	}
	for k, v := range outer {
		t, c, ok := sql.SplitQualifiedKey(k)
		if ok && t != "" && c == ref.Column {
			return v, true
		}
	}
	return sql.Null, false
}

// EvaluateStar expands a star{} SELECT column into the values it
// projects, keyed by unqualified column name (spec §4.4: star expansion
// happens at the SELECT stage).
func (e *Evaluator) EvaluateStar(star Star, row sql.Row) (map[string]sql.Value, error) {
	out := map[string]sql.Value{}
	if star.HasTable {
		prefix := star.Table + "::"
		for k, v := range row {
			if strings.HasPrefix(k, prefix) {
				_, c, _ := sql.SplitQualifiedKey(k)
				out[c] = v
			}
		}
		return out, nil
	}
	for k, v := range row {
		t, c, ok := sql.SplitQualifiedKey(k)
		if !ok || t == "" {
			continue
		}
		out[c] = v
	}
	return out, nil
}

func (e *Evaluator) evalBinary(b Binary, row sql.Row, group []sql.Row) (sql.Value, error) {
	switch b.Op {
	case OpAnd:
		l, err := e.Evaluate(b.Left, row, group)
		if err != nil {
			return sql.Null, err
		}
		if l.IsNull() {
			return e.shortCircuitAnd(l, b.Right, row, group)
		}
		if !l.Truthy() {
			return sql.NewBool(false), nil
		}
		r, err := e.Evaluate(b.Right, row, group)
		if err != nil {
			return sql.Null, err
		}
		if r.IsNull() {
			return sql.Null, nil
		}
		return sql.NewBool(r.Truthy()), nil
	case OpOr:
		l, err := e.Evaluate(b.Left, row, group)
		if err != nil {
			return sql.Null, err
		}
		if !l.IsNull() && l.Truthy() {
			return sql.NewBool(true), nil
		}
		r, err := e.Evaluate(b.Right, row, group)
		if err != nil {
			return sql.Null, err
		}
		if l.IsNull() || r.IsNull() {
			if !r.IsNull() && r.Truthy() {
				return sql.NewBool(true), nil
			}
			return sql.Null, nil
		}
		return sql.NewBool(r.Truthy()), nil
	}

	l, err := e.Evaluate(b.Left, row, group)
	if err != nil {
		return sql.Null, err
	}

	if b.Op == OpIs || b.Op == OpIsNot {
		r, err := e.Evaluate(b.Right, row, group)
		if err != nil {
			return sql.Null, err
		}
		eq := l.IsNull() == r.IsNull()
		if b.Op == OpIsNot {
			eq = !eq
		}
		return sql.NewBool(eq), nil
	}

	if b.Op == OpIn || b.Op == OpNotIn {
		if l.IsNull() {
			return sql.Null, nil
		}

		var candidates []sql.Value
		switch rhs := b.Right.(type) {
		case Array:
			for _, item := range rhs.Values {
				v, err := e.Evaluate(item, row, group)
				if err != nil {
					return sql.Null, err
				}
				candidates = append(candidates, v)
			}
		case Select:
			rows, err := e.runSubquery(rhs.Query, row)
			if err != nil {
				return sql.Null, err
			}
			for _, r := range rows {
				for _, v := range r {
					candidates = append(candidates, v)
					break
				}
			}
		default:
			return sql.Null, sql.NewEvaluatorError("IN requires a value list or sub-query")
		}

		found := false
		sawNull := false
		for _, v := range candidates {
			if v.IsNull() {
				sawNull = true
				continue
			}
			if l.Equal(v) {
				found = true
				break
			}
		}
		if !found && sawNull {
			return sql.Null, nil
		}
		if b.Op == OpNotIn {
			found = !found
		}
		return sql.NewBool(found), nil
	}

	r, err := e.Evaluate(b.Right, row, group)
	if err != nil {
		return sql.Null, err
	}
	if l.IsNull() || r.IsNull() {
		if b.Op == OpAdd || b.Op == OpSub || b.Op == OpMul || b.Op == OpDiv {
			return sql.Null, nil
		}
		return sql.Null, nil
	}

	switch b.Op {
	case OpEq:
		return sql.NewBool(l.Equal(r)), nil
	case OpNotEq:
		return sql.NewBool(!l.Equal(r)), nil
	case OpLt:
		return sql.NewBool(l.Compare(r) < 0), nil
	case OpLtEq:
		return sql.NewBool(l.Compare(r) <= 0), nil
	case OpGt:
		return sql.NewBool(l.Compare(r) > 0), nil
	case OpGtEq:
		return sql.NewBool(l.Compare(r) >= 0), nil
	case OpAdd:
		return sql.NewFloat64(l.Float64Value() + r.Float64Value()), nil
	case OpSub:
		return sql.NewFloat64(l.Float64Value() - r.Float64Value()), nil
	case OpMul:
		return sql.NewFloat64(l.Float64Value() * r.Float64Value()), nil
	case OpDiv:
		if r.Float64Value() == 0 {
			return sql.Null, sql.ErrDivisionByZero.New()
		}
		return sql.NewFloat64(l.Float64Value() / r.Float64Value()), nil
	case OpLike, OpNotLike:
		matched := likeMatch(l.String(), r.String())
		if b.Op == OpNotLike {
			matched = !matched
		}
		return sql.NewBool(matched), nil
	default:
		return sql.Null, sql.NewEvaluatorError("unsupported operator %q", b.Op)
	}
}

// shortCircuitAnd implements MySQL's three-valued AND when the left
// operand is NULL: NULL AND FALSE is FALSE, NULL AND (TRUE or NULL) is
// NULL.
func (e *Evaluator) shortCircuitAnd(left sql.Value, right sql.Expression, row sql.Row, group []sql.Row) (sql.Value, error) {
	r, err := e.Evaluate(right, row, group)
	if err != nil {
		return sql.Null, err
	}
	if !r.IsNull() && !r.Truthy() {
		return sql.NewBool(false), nil
	}
	return sql.Null, nil
}

// likeMatch implements SQL LIKE with % and _ wildcards. MySQL's default
// collation is case-insensitive, so matching is done case-folded.
func likeMatch(s, pattern string) bool {
	var sb strings.Builder
	sb.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		case '.', '+', '*', '?', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\':
			sb.WriteString("\\")
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteString("$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}
