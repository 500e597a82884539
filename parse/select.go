package parse

import (
	"strconv"

	"github.com/freeeve/machparse/ast"
	"github.com/freeeve/machparse/token"

	"github.com/sokcuri/mysql-emulator/sql"
	"github.com/sokcuri/mysql-emulator/sql/expression"
)

func (c *converter) convertSelect(s *ast.SelectStmt) (*sql.SelectQuery, error) {
	q := &sql.SelectQuery{Distinct: s.Distinct}

	froms, err := c.convertFrom(s.From)
	if err != nil {
		return nil, err
	}
	q.From = froms

	for _, col := range s.Columns {
		sc, err := c.convertSelectExpr(col)
		if err != nil {
			return nil, err
		}
		q.Columns = append(q.Columns, sc)
	}

	if s.Where != nil {
		q.Where, err = c.convertExpr(s.Where)
		if err != nil {
			return nil, err
		}
	}

	for _, g := range s.GroupBy {
		ge, err := c.convertExpr(g)
		if err != nil {
			return nil, err
		}
		q.GroupBy = append(q.GroupBy, ge)
	}

	if s.Having != nil {
		q.Having, err = c.convertExpr(s.Having)
		if err != nil {
			return nil, err
		}
	}

	for _, o := range s.OrderBy {
		oe, err := c.convertExpr(o.Expr)
		if err != nil {
			return nil, err
		}
		q.OrderBy = append(q.OrderBy, sql.OrderByTerm{Expr: oe, Desc: o.Desc})
	}

	if s.Limit != nil {
		if s.Limit.Count != nil {
			n, err := c.literalInt(s.Limit.Count)
			if err != nil {
				return nil, err
			}
			q.Limit = n
		}
		if s.Limit.Offset != nil {
			n, err := c.literalInt(s.Limit.Offset)
			if err != nil {
				return nil, err
			}
			q.Offset = n
		}
	}

	rewriteAliases(q)

	return q, nil
}

func (c *converter) literalInt(e ast.Expr) (int, error) {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return 0, sql.NewProcessorError("LIMIT/OFFSET must be a literal integer")
	}
	n, err := strconv.Atoi(lit.Value)
	if err != nil {
		return 0, sql.NewProcessorError("invalid LIMIT/OFFSET value %q", lit.Value)
	}
	return n, nil
}

func (c *converter) convertSelectExpr(col ast.SelectExpr) (sql.SelectColumn, error) {
	switch x := col.(type) {
	case *ast.StarExpr:
		return sql.SelectColumn{Expr: expression.Star{Table: x.TableName, HasTable: x.HasQualifier}}, nil
	case *ast.AliasedExpr:
		e, err := c.convertExpr(x.Expr)
		if err != nil {
			return sql.SelectColumn{}, err
		}
		return sql.SelectColumn{Expr: e, Alias: x.Alias}, nil
	default:
		return sql.SelectColumn{}, sql.NewProcessorError("unsupported select expression %T", col)
	}
}

// convertFrom flattens machparse's left-leaning JoinExpr tree into the
// engine's flat []sql.From list (spec §3 From: "first From has Join ==
// ''; later ones combine against the accumulated result").
func (c *converter) convertFrom(t ast.TableExpr) ([]sql.From, error) {
	if t == nil {
		return nil, nil
	}
	switch x := t.(type) {
	case *ast.JoinExpr:
		left, err := c.convertFrom(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.convertFrom(x.Right)
		if err != nil {
			return nil, err
		}
		if len(right) != 1 {
			return nil, sql.NewProcessorError("unsupported join right-hand side")
		}
		kind, err := joinKind(x.Type)
		if err != nil {
			return nil, err
		}
		rf := right[0]
		rf.Join = kind
		if x.On != nil {
			rf.On, err = c.convertExpr(x.On)
			if err != nil {
				return nil, err
			}
		}
		return append(left, rf), nil

	case *ast.AliasedTableExpr:
		inner, err := c.convertFrom(x.Expr)
		if err != nil {
			return nil, err
		}
		if len(inner) != 1 {
			return nil, sql.NewProcessorError("unsupported aliased table expression")
		}
		inner[0].Alias = x.Alias
		return inner, nil

	case *ast.TableName:
		return []sql.From{{Database: x.Schema(), Table: x.Name()}}, nil

	case *ast.Subquery:
		sq, err := c.convertSelect(x.Select)
		if err != nil {
			return nil, err
		}
		return []sql.From{{IsDerived: true, Query: sq}}, nil

	case *ast.ParenTableExpr:
		return c.convertFrom(x.Expr)

	default:
		return nil, sql.NewProcessorError("unsupported FROM expression %T", t)
	}
}

func joinKind(t ast.JoinType) (string, error) {
	switch t {
	case ast.JoinCross:
		return "CROSS JOIN", nil
	case ast.JoinInner:
		return "INNER JOIN", nil
	case ast.JoinLeft:
		return "LEFT JOIN", nil
	default:
		return "", sql.ErrUnknownJoinKind.New(t.String())
	}
}

func (c *converter) convertExpr(e ast.Expr) (sql.Expression, error) {
	switch x := e.(type) {
	case *ast.Literal:
		return c.convertLiteral(x)
	case *ast.Param:
		return literalExpression(c.nextParam()), nil
	case *ast.ColName:
		return expression.ColumnRef{Table: x.Table(), Column: x.Name()}, nil
	case *ast.StarExpr:
		return expression.Star{Table: x.TableName, HasTable: x.HasQualifier}, nil
	case *ast.ParenExpr:
		return c.convertExpr(x.Expr)
	case *ast.UnaryExpr:
		return c.convertUnary(x)
	case *ast.BinaryExpr:
		return c.convertBinary(x)
	case *ast.FuncExpr:
		return c.convertFunc(x)
	case *ast.CaseExpr:
		return c.convertCase(x)
	case *ast.InExpr:
		return c.convertIn(x)
	case *ast.BetweenExpr:
		return c.convertBetween(x)
	case *ast.LikeExpr:
		return c.convertLike(x)
	case *ast.IsExpr:
		return c.convertIs(x)
	case *ast.Subquery:
		sq, err := c.convertSelect(x.Select)
		if err != nil {
			return nil, err
		}
		return expression.Select{Query: sq}, nil
	default:
		return nil, sql.NewProcessorError("unsupported expression %T", e)
	}
}

func (c *converter) convertLiteral(lit *ast.Literal) (sql.Expression, error) {
	switch lit.Type {
	case ast.LiteralNull:
		return expression.Null{}, nil
	case ast.LiteralInt, ast.LiteralFloat:
		f, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return nil, sql.NewProcessorError("invalid numeric literal %q", lit.Value)
		}
		return expression.Number{Value: f}, nil
	case ast.LiteralString, ast.LiteralBlob:
		return expression.String{Value: lit.Value}, nil
	case ast.LiteralBool:
		return expression.Boolean{Value: lit.Value == "true" || lit.Value == "TRUE" || lit.Value == "1"}, nil
	default:
		return expression.String{Value: lit.Value}, nil
	}
}

// literalExpression converts a bound parameter's runtime Value back into
// an Expression node, since a `?` placeholder is resolved eagerly at
// parse time rather than carried as a prepared-statement binding.
func literalExpression(v sql.Value) sql.Expression {
	switch v.Kind() {
	case sql.KindNull:
		return expression.Null{}
	case sql.KindBool:
		return expression.Boolean{Value: v.Bool()}
	case sql.KindString:
		return expression.String{Value: v.String()}
	case sql.KindDefault:
		return expression.Default{}
	default:
		return expression.Number{Value: v.Float64Value()}
	}
}

func (c *converter) convertUnary(u *ast.UnaryExpr) (sql.Expression, error) {
	operand, err := c.convertExpr(u.Operand)
	if err != nil {
		return nil, err
	}
	switch u.Op {
	case token.NOT:
		return expression.Binary{Op: expression.OpEq, Left: operand, Right: expression.Boolean{Value: false}}, nil
	case token.MINUS:
		return expression.Binary{Op: expression.OpSub, Left: expression.Number{Value: 0}, Right: operand}, nil
	default:
		return operand, nil
	}
}

var binaryOps = map[token.Token]expression.BinaryOp{
	token.PLUS:    expression.OpAdd,
	token.MINUS:   expression.OpSub,
	token.ASTERISK: expression.OpMul,
	token.SLASH:   expression.OpDiv,
	token.EQ:      expression.OpEq,
	token.NEQ:     expression.OpNotEq,
	token.LT:      expression.OpLt,
	token.LTE:     expression.OpLtEq,
	token.GT:      expression.OpGt,
	token.GTE:     expression.OpGtEq,
	token.AND:     expression.OpAnd,
	token.OR:      expression.OpOr,
}

func (c *converter) convertBinary(b *ast.BinaryExpr) (sql.Expression, error) {
	op, ok := binaryOps[b.Op]
	if !ok {
		return nil, sql.NewProcessorError("unsupported operator %v", b.Op)
	}
	left, err := c.convertExpr(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.convertExpr(b.Right)
	if err != nil {
		return nil, err
	}
	return expression.Binary{Op: op, Left: left, Right: right}, nil
}

func (c *converter) convertFunc(f *ast.FuncExpr) (sql.Expression, error) {
	args := make([]sql.Expression, len(f.Args))
	for i, a := range f.Args {
		e, err := c.convertExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = e
	}
	return expression.Function{Name: f.Name, Args: args, Distinct: f.Distinct}, nil
}

func (c *converter) convertCase(ce *ast.CaseExpr) (sql.Expression, error) {
	out := expression.Case{}
	for _, w := range ce.Whens {
		cond, err := c.convertExpr(w.Cond)
		if err != nil {
			return nil, err
		}
		if ce.Operand != nil {
			operand, err := c.convertExpr(ce.Operand)
			if err != nil {
				return nil, err
			}
			cond = expression.Binary{Op: expression.OpEq, Left: operand, Right: cond}
		}
		val, err := c.convertExpr(w.Result)
		if err != nil {
			return nil, err
		}
		out.Whens = append(out.Whens, expression.WhenClause{Cond: cond, Value: val})
	}
	if ce.Else != nil {
		e, err := c.convertExpr(ce.Else)
		if err != nil {
			return nil, err
		}
		out.Else = e
	}
	return out, nil
}

func (c *converter) convertIn(in *ast.InExpr) (sql.Expression, error) {
	left, err := c.convertExpr(in.Expr)
	if err != nil {
		return nil, err
	}

	var right sql.Expression
	if in.Select != nil {
		sq, err := c.convertSelect(in.Select)
		if err != nil {
			return nil, err
		}
		right = expression.Select{Query: sq}
	} else {
		values := make([]sql.Expression, len(in.Values))
		for i, v := range in.Values {
			e, err := c.convertExpr(v)
			if err != nil {
				return nil, err
			}
			values[i] = e
		}
		right = expression.Array{Values: values}
	}

	op := expression.OpIn
	if in.Not {
		op = expression.OpNotIn
	}
	return expression.Binary{Op: op, Left: left, Right: right}, nil
}

func (c *converter) convertBetween(b *ast.BetweenExpr) (sql.Expression, error) {
	target, err := c.convertExpr(b.Expr)
	if err != nil {
		return nil, err
	}
	low, err := c.convertExpr(b.Low)
	if err != nil {
		return nil, err
	}
	high, err := c.convertExpr(b.High)
	if err != nil {
		return nil, err
	}
	result := sql.Expression(expression.Binary{
		Op:    expression.OpAnd,
		Left:  expression.Binary{Op: expression.OpGtEq, Left: target, Right: low},
		Right: expression.Binary{Op: expression.OpLtEq, Left: target, Right: high},
	})
	if b.Not {
		result = expression.Binary{Op: expression.OpEq, Left: result, Right: expression.Boolean{Value: false}}
	}
	return result, nil
}

func (c *converter) convertLike(l *ast.LikeExpr) (sql.Expression, error) {
	left, err := c.convertExpr(l.Expr)
	if err != nil {
		return nil, err
	}
	right, err := c.convertExpr(l.Pattern)
	if err != nil {
		return nil, err
	}
	op := expression.OpLike
	if l.Not {
		op = expression.OpNotLike
	}
	return expression.Binary{Op: op, Left: left, Right: right}, nil
}

func (c *converter) convertIs(is *ast.IsExpr) (sql.Expression, error) {
	left, err := c.convertExpr(is.Expr)
	if err != nil {
		return nil, err
	}
	if is.What != ast.IsNull {
		return nil, sql.NewProcessorError("IS TRUE/FALSE/UNKNOWN is not supported")
	}
	op := expression.OpIs
	if is.Not {
		op = expression.OpIsNot
	}
	return expression.Binary{Op: op, Left: left, Right: expression.Null{}}, nil
}
