package parse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sokcuri/mysql-emulator/sql"
	"github.com/sokcuri/mysql-emulator/sql/expression"
)

func TestParseSimpleSelect(t *testing.T) {
	require := require.New(t)

	q, err := Parse("SELECT id, name FROM users WHERE age > 18", nil)
	require.NoError(err)

	sel, ok := q.(*sql.SelectQuery)
	require.True(ok)
	require.Len(sel.From, 1)
	require.Equal("users", sel.From[0].Table)
	require.Len(sel.Columns, 2)
	require.NotNil(sel.Where)
}

func TestParseJoin(t *testing.T) {
	require := require.New(t)

	q, err := Parse("SELECT u.name FROM users u INNER JOIN orders o ON u.id = o.user_id", nil)
	require.NoError(err)

	sel := q.(*sql.SelectQuery)
	require.Len(sel.From, 2)
	require.Equal("", sel.From[0].Join)
	require.Equal("INNER JOIN", sel.From[1].Join)
	require.Equal("o", sel.From[1].Alias)
	require.NotNil(sel.From[1].On)
}

func TestParseGroupByHavingOrderByLimit(t *testing.T) {
	require := require.New(t)

	q, err := Parse("SELECT age, COUNT(*) FROM users GROUP BY age HAVING COUNT(*) > 1 ORDER BY age DESC LIMIT 10 OFFSET 5", nil)
	require.NoError(err)

	sel := q.(*sql.SelectQuery)
	require.Len(sel.GroupBy, 1)
	require.NotNil(sel.Having)
	require.Len(sel.OrderBy, 1)
	require.True(sel.OrderBy[0].Desc)
	require.Equal(10, sel.Limit)
	require.Equal(5, sel.Offset)
}

func TestParseParamSubstitution(t *testing.T) {
	require := require.New(t)

	q, err := Parse("SELECT * FROM users WHERE id = ?", []sql.Value{sql.NewInt64(42)})
	require.NoError(err)

	sel := q.(*sql.SelectQuery)
	bin, ok := sel.Where.(expression.Binary)
	require.True(ok)
	num, ok := bin.Right.(expression.Number)
	require.True(ok)
	require.Equal(float64(42), num.Value)
}

func TestParseInsert(t *testing.T) {
	require := require.New(t)

	q, err := Parse("INSERT INTO users (name, age) VALUES ('alice', 30)", nil)
	require.NoError(err)

	ins, ok := q.(*sql.InsertQuery)
	require.True(ok)
	require.Equal("users", ins.Table)
	require.Equal([]string{"name", "age"}, ins.Columns)
	require.Len(ins.Values, 1)
}

func TestParseCreateTableAutoIncrement(t *testing.T) {
	require := require.New(t)

	q, err := Parse("CREATE TABLE users (id INT PRIMARY KEY AUTO_INCREMENT, name VARCHAR(255) NOT NULL)", nil)
	require.NoError(err)

	ct, ok := q.(*sql.CreateTableQuery)
	require.True(ok)
	require.Equal("users", ct.Table)
	require.Len(ct.Columns, 2)
	require.True(ct.Columns[0].AutoIncrement)
	require.False(ct.Columns[0].Nullable)
	require.False(ct.Columns[1].Nullable)
}

func TestParseAliasRewriteNormalizesBaseTableName(t *testing.T) {
	require := require.New(t)

	q, err := Parse("SELECT u.name FROM users u WHERE users.age > 18", nil)
	require.NoError(err)

	sel := q.(*sql.SelectQuery)
	bin, ok := sel.Where.(expression.Binary)
	require.True(ok)
	col, ok := bin.Left.(expression.ColumnRef)
	require.True(ok)
	require.Equal("u", col.Table)
}

func TestParseTransactionKeywords(t *testing.T) {
	require := require.New(t)

	q, err := Parse("START TRANSACTION", nil)
	require.NoError(err)
	tx := q.(*sql.TransactionQuery)
	require.Equal("START_TRANSACTION", tx.Kind)

	q, err = Parse("COMMIT", nil)
	require.NoError(err)
	require.Equal("COMMIT", q.(*sql.TransactionQuery).Kind)

	q, err = Parse("ROLLBACK", nil)
	require.NoError(err)
	require.Equal("ROLLBACK", q.(*sql.TransactionQuery).Kind)
}
