package rowexec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sokcuri/mysql-emulator/internal/testfixtures"
	"github.com/sokcuri/mysql-emulator/memory"
	"github.com/sokcuri/mysql-emulator/sql"
	"github.com/sokcuri/mysql-emulator/sql/expression"
)

func newTestServer(t *testing.T) (*memory.Server, *memory.Table) {
	srv := memory.NewServer()
	db, err := srv.CreateDatabase("test")
	require.NoError(t, err)
	srv.SetCurrentDatabase("test")

	id := sql.NewIntegerColumn("id", 64, false, false, true, nil)
	name := sql.NewVarcharColumn("name", 255, true, nil)
	age := sql.NewIntegerColumn("age", 32, false, true, false, nil)
	table, err := db.CreateTable("users", []sql.Column{id, name, age})
	require.NoError(t, err)

	mt := table.(*memory.Table)
	require.NoError(t, mt.InsertRow(sql.Row{"id": sql.NewInt64(1), "name": sql.NewString("alice"), "age": sql.NewInt64(30)}))
	require.NoError(t, mt.InsertRow(sql.Row{"id": sql.NewInt64(2), "name": sql.NewString("bob"), "age": sql.NewInt64(25)}))
	require.NoError(t, mt.InsertRow(sql.Row{"id": sql.NewInt64(3), "name": sql.NewString("carol"), "age": sql.NewInt64(30)}))

	return srv, mt
}

func TestPipelineSelectAll(t *testing.T) {
	require := require.New(t)
	srv, _ := newTestServer(t)

	query := &sql.SelectQuery{
		From:    []sql.From{{Table: "users"}},
		Columns: []sql.SelectColumn{{Expr: expression.Star{}}},
	}

	result, err := NewPipeline(srv).Execute(query)
	require.NoError(err)
	require.Len(result.Rows, 3)
}

func TestPipelineWhereAndOrderBy(t *testing.T) {
	require := require.New(t)
	srv, _ := newTestServer(t)

	query := &sql.SelectQuery{
		From: []sql.From{{Table: "users"}},
		Columns: []sql.SelectColumn{
			{Expr: expression.ColumnRef{Table: "users", Column: "name"}},
		},
		Where: expression.Binary{
			Op:    expression.OpGt,
			Left:  expression.ColumnRef{Table: "users", Column: "age"},
			Right: expression.Number{Value: 26},
		},
		OrderBy: []sql.OrderByTerm{
			{Expr: expression.ColumnRef{Table: "users", Column: "name"}, Desc: true},
		},
	}

	result, err := NewPipeline(srv).Execute(query)
	require.NoError(err)
	require.Len(result.Rows, 2)
	require.Equal("carol", result.Rows[0]["name"].String())
	require.Equal("alice", result.Rows[1]["name"].String())
}

func TestPipelineGroupByHavingCount(t *testing.T) {
	require := require.New(t)
	srv, _ := newTestServer(t)

	query := &sql.SelectQuery{
		From: []sql.From{{Table: "users"}},
		Columns: []sql.SelectColumn{
			{Expr: expression.ColumnRef{Table: "users", Column: "age"}, Alias: "age"},
			{Expr: expression.Function{Name: "COUNT", Args: []sql.Expression{expression.Star{}}}, Alias: "cnt"},
		},
		GroupBy: []sql.Expression{expression.ColumnRef{Table: "users", Column: "age"}},
		Having: expression.Binary{
			Op:    expression.OpGt,
			Left:  expression.ColumnRef{Column: "cnt"},
			Right: expression.Number{Value: 1},
		},
	}

	result, err := NewPipeline(srv).Execute(query)
	require.NoError(err)
	require.Len(result.Rows, 1)
	require.Equal(int64(30), result.Rows[0]["age"].Int64())
	require.Equal(int64(2), result.Rows[0]["cnt"].Int64())
}

func TestPipelineOrderByReferencesSelectAlias(t *testing.T) {
	require := require.New(t)
	srv, _ := newTestServer(t)

	query := &sql.SelectQuery{
		From: []sql.From{{Table: "users"}},
		Columns: []sql.SelectColumn{
			{Expr: expression.ColumnRef{Table: "users", Column: "age"}, Alias: "age"},
			{Expr: expression.Function{Name: "COUNT", Args: []sql.Expression{expression.Star{}}}, Alias: "cnt"},
		},
		GroupBy: []sql.Expression{expression.ColumnRef{Table: "users", Column: "age"}},
		OrderBy: []sql.OrderByTerm{{Expr: expression.ColumnRef{Column: "cnt"}, Desc: true}},
	}

	result, err := NewPipeline(srv).Execute(query)
	require.NoError(err)
	require.Len(result.Rows, 2)
	require.Equal(int64(2), result.Rows[0]["cnt"].Int64())
	require.Equal(int64(1), result.Rows[1]["cnt"].Int64())
}

func TestPipelineLimitOffset(t *testing.T) {
	require := require.New(t)
	srv, _ := newTestServer(t)

	query := &sql.SelectQuery{
		From:    []sql.From{{Table: "users"}},
		Columns: []sql.SelectColumn{{Expr: expression.ColumnRef{Table: "users", Column: "id"}}},
		OrderBy: []sql.OrderByTerm{{Expr: expression.ColumnRef{Table: "users", Column: "id"}}},
		Limit:   1,
		Offset:  1,
	}

	result, err := NewPipeline(srv).Execute(query)
	require.NoError(err)
	require.Len(result.Rows, 1)
	require.Equal(int64(2), result.Rows[0]["id"].Int64())
}

func TestPipelineInnerJoin(t *testing.T) {
	require := require.New(t)
	srv, _ := newTestServer(t)

	db, err := srv.GetDatabase("test")
	require.NoError(err)
	orderID := sql.NewIntegerColumn("id", 64, false, false, true, nil)
	userID := sql.NewIntegerColumn("user_id", 64, false, false, false, nil)
	orders, err := db.CreateTable("orders", []sql.Column{orderID, userID})
	require.NoError(err)
	mt := orders.(*memory.Table)
	require.NoError(mt.InsertRow(sql.Row{"id": sql.NewInt64(1), "user_id": sql.NewInt64(1)}))
	require.NoError(mt.InsertRow(sql.Row{"id": sql.NewInt64(2), "user_id": sql.NewInt64(2)}))

	query := &sql.SelectQuery{
		From: []sql.From{
			{Table: "users", Alias: "u"},
			{
				Table: "orders", Alias: "o", Join: "INNER JOIN",
				On: expression.Binary{
					Op:    expression.OpEq,
					Left:  expression.ColumnRef{Table: "u", Column: "id"},
					Right: expression.ColumnRef{Table: "o", Column: "user_id"},
				},
			},
		},
		Columns: []sql.SelectColumn{
			{Expr: expression.ColumnRef{Table: "u", Column: "name"}},
		},
		OrderBy: []sql.OrderByTerm{{Expr: expression.ColumnRef{Table: "u", Column: "name"}}},
	}

	result, err := NewPipeline(srv).Execute(query)
	require.NoError(err)
	require.Len(result.Rows, 2)
	require.Equal("alice", result.Rows[0]["name"].String())
	require.Equal("bob", result.Rows[1]["name"].String())
}

func TestPipelineInnerJoinRequiresOn(t *testing.T) {
	require := require.New(t)
	srv, _ := newTestServer(t)

	db, err := srv.GetDatabase("test")
	require.NoError(err)
	orderID := sql.NewIntegerColumn("id", 64, false, false, true, nil)
	userID := sql.NewIntegerColumn("user_id", 64, false, false, false, nil)
	_, err = db.CreateTable("orders", []sql.Column{orderID, userID})
	require.NoError(err)

	query := &sql.SelectQuery{
		From: []sql.From{
			{Table: "users", Alias: "u"},
			{Table: "orders", Alias: "o", Join: "INNER JOIN"},
		},
		Columns: []sql.SelectColumn{{Expr: expression.Star{}}},
	}

	_, err = NewPipeline(srv).Execute(query)
	require.Error(err)
	require.True(sql.ErrJoinOnRequired.Is(err))
}

func TestPipelineUnknownColumnError(t *testing.T) {
	require := require.New(t)
	srv, _ := newTestServer(t)

	query := &sql.SelectQuery{
		From:    []sql.From{{Table: "users"}},
		Columns: []sql.SelectColumn{{Expr: expression.ColumnRef{Column: "nope"}}},
	}

	_, err := NewPipeline(srv).Execute(query)
	require.Error(err)
}

func TestPipelineOverFixtureData(t *testing.T) {
	require := require.New(t)

	srv := memory.NewServer()
	db, err := srv.CreateDatabase("test")
	require.NoError(err)
	srv.SetCurrentDatabase("test")

	f, err := testfixtures.Load("testdata/accounts.yaml")
	require.NoError(err)
	require.NoError(f.LoadInto(db))

	query := &sql.SelectQuery{
		From: []sql.From{{Table: "accounts"}},
		Columns: []sql.SelectColumn{
			{Expr: expression.ColumnRef{Column: "owner"}},
		},
		Where:   expression.Binary{Op: expression.OpGt, Left: expression.ColumnRef{Column: "balance"}, Right: expression.Number{Value: 400}},
		OrderBy: []sql.OrderByTerm{{Expr: expression.ColumnRef{Column: "owner"}}},
	}

	result, err := NewPipeline(srv).Execute(query)
	require.NoError(err)
	require.Len(result.Rows, 2)
	require.Equal("alice", result.Rows[0]["owner"].String())
	require.Equal("carol", result.Rows[1]["owner"].String())
}
