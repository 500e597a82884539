package expression

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sokcuri/mysql-emulator/sql"
)

func newTestEvaluator(scope sql.Scope) *Evaluator {
	return NewEvaluator(nil, scope)
}

func TestEvaluateLiterals(t *testing.T) {
	require := require.New(t)
	e := newTestEvaluator(nil)

	v, err := e.Evaluate(Number{Value: 42}, nil, nil)
	require.NoError(err)
	require.Equal(float64(42), v.Float64())

	v, err = e.Evaluate(String{Value: "hi"}, nil, nil)
	require.NoError(err)
	require.Equal("hi", v.String())

	v, err = e.Evaluate(Null{}, nil, nil)
	require.NoError(err)
	require.True(v.IsNull())
}

func TestEvaluateColumnRef(t *testing.T) {
	require := require.New(t)
	scope := sql.Scope(nil).AddTable("users", []string{"id", "name"})
	e := newTestEvaluator(scope)

	row := sql.Row{
		sql.QualifiedKey("users", "id"):   sql.NewInt64(1),
		sql.QualifiedKey("users", "name"): sql.NewString("alice"),
	}

	v, err := e.Evaluate(ColumnRef{Table: "users", Column: "name"}, row, nil)
	require.NoError(err)
	require.Equal("alice", v.String())

	v, err = e.Evaluate(ColumnRef{Column: "id"}, row, nil)
	require.NoError(err)
	require.Equal(int64(1), v.Int64())

	_, err = e.Evaluate(ColumnRef{Column: "missing"}, row, nil)
	require.Error(err)
}

func TestEvaluateColumnRefAmbiguous(t *testing.T) {
	require := require.New(t)
	scope := sql.Scope(nil).AddTable("a", []string{"id"}).AddTable("b", []string{"id"})
	e := newTestEvaluator(scope)

	_, err := e.Evaluate(ColumnRef{Column: "id"}, sql.Row{}, nil)
	require.Error(err)
	require.True(sql.ErrAmbiguousColumn.Is(err))
}

func TestEvaluateBinaryComparison(t *testing.T) {
	require := require.New(t)
	e := newTestEvaluator(nil)

	v, err := e.Evaluate(Binary{Op: OpLt, Left: Number{Value: 1}, Right: Number{Value: 2}}, nil, nil)
	require.NoError(err)
	require.True(v.Bool())

	v, err = e.Evaluate(Binary{Op: OpEq, Left: String{Value: "a"}, Right: Null{}}, nil, nil)
	require.NoError(err)
	require.True(v.IsNull())
}

func TestEvaluateBinaryDivisionByZero(t *testing.T) {
	require := require.New(t)
	e := newTestEvaluator(nil)

	_, err := e.Evaluate(Binary{Op: OpDiv, Left: Number{Value: 1}, Right: Number{Value: 0}}, nil, nil)
	require.Error(err)
	require.True(sql.ErrDivisionByZero.Is(err))
}

func TestEvaluateThreeValuedAnd(t *testing.T) {
	require := require.New(t)
	e := newTestEvaluator(nil)

	v, err := e.Evaluate(Binary{Op: OpAnd, Left: Null{}, Right: Boolean{Value: false}}, nil, nil)
	require.NoError(err)
	require.False(v.Bool())

	v, err = e.Evaluate(Binary{Op: OpAnd, Left: Null{}, Right: Boolean{Value: true}}, nil, nil)
	require.NoError(err)
	require.True(v.IsNull())
}

func TestEvaluateIn(t *testing.T) {
	require := require.New(t)
	e := newTestEvaluator(nil)

	v, err := e.Evaluate(Binary{
		Op:   OpIn,
		Left: Number{Value: 2},
		Right: Array{Values: []sql.Expression{
			Number{Value: 1}, Number{Value: 2}, Number{Value: 3},
		}},
	}, nil, nil)
	require.NoError(err)
	require.True(v.Bool())
}

func TestEvaluateLike(t *testing.T) {
	require := require.New(t)
	e := newTestEvaluator(nil)

	v, err := e.Evaluate(Binary{Op: OpLike, Left: String{Value: "hello"}, Right: String{Value: "hel%"}}, nil, nil)
	require.NoError(err)
	require.True(v.Bool())

	v, err = e.Evaluate(Binary{Op: OpLike, Left: String{Value: "hello"}, Right: String{Value: "h_l_o"}}, nil, nil)
	require.NoError(err)
	require.True(v.Bool())
}

func TestEvaluateCase(t *testing.T) {
	require := require.New(t)
	e := newTestEvaluator(nil)

	c := Case{
		Whens: []WhenClause{
			{Cond: Boolean{Value: false}, Value: String{Value: "no"}},
			{Cond: Boolean{Value: true}, Value: String{Value: "yes"}},
		},
		Else: String{Value: "else"},
	}
	v, err := e.Evaluate(c, nil, nil)
	require.NoError(err)
	require.Equal("yes", v.String())

	c.Whens[1].Cond = Boolean{Value: false}
	v, err = e.Evaluate(c, nil, nil)
	require.NoError(err)
	require.Equal("else", v.String())
}

func TestEvaluateAggregates(t *testing.T) {
	require := require.New(t)
	e := newTestEvaluator(sql.Scope(nil).AddAlias("v"))

	group := []sql.Row{
		{"::v": sql.NewInt64(1)},
		{"::v": sql.NewInt64(2)},
		{"::v": sql.NewInt64(3)},
	}

	sum, err := e.Evaluate(Function{Name: "SUM", Args: []sql.Expression{ColumnRef{Column: "v"}}}, nil, group)
	require.NoError(err)
	require.Equal(float64(6), sum.Float64())

	count, err := e.Evaluate(Function{Name: "COUNT", Args: []sql.Expression{Star{}}}, nil, group)
	require.NoError(err)
	require.Equal(int64(3), count.Int64())

	avg, err := e.Evaluate(Function{Name: "AVG", Args: []sql.Expression{ColumnRef{Column: "v"}}}, nil, group)
	require.NoError(err)
	require.Equal(float64(2), avg.Float64())
}

func TestEvaluateAggregateOutsideGroupFails(t *testing.T) {
	require := require.New(t)
	e := newTestEvaluator(nil)

	_, err := e.Evaluate(Function{Name: "SUM", Args: []sql.Expression{ColumnRef{Column: "v"}}}, nil, nil)
	require.Error(err)
	require.True(sql.ErrAggregateNeedsGroup.Is(err))
}

func TestEvaluateStar(t *testing.T) {
	require := require.New(t)
	e := newTestEvaluator(nil)

	row := sql.Row{
		sql.QualifiedKey("users", "id"):   sql.NewInt64(1),
		sql.QualifiedKey("users", "name"): sql.NewString("alice"),
	}
	out, err := e.EvaluateStar(Star{}, row)
	require.NoError(err)
	require.Equal(sql.NewInt64(1), out["id"])
	require.Equal(sql.NewString("alice"), out["name"])
}
