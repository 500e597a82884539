package emulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sokcuri/mysql-emulator/sql"
)

func newTestEngine(t *testing.T) *Engine {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestEngineCreateInsertSelect(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.Execute(ctx, "CREATE TABLE users (id INT PRIMARY KEY AUTO_INCREMENT, name VARCHAR(50) NOT NULL, age INT)", nil)
	require.NoError(err)

	res, err := e.Execute(ctx, "INSERT INTO users (name, age) VALUES ('alice', 30)", nil)
	require.NoError(err)
	require.Equal(1, res.RowsAffected)
	require.Equal(int64(1), res.LastInsertID)

	res, err = e.Execute(ctx, "INSERT INTO users (name, age) VALUES ('bob', 25)", nil)
	require.NoError(err)
	require.Equal(int64(2), res.LastInsertID)

	res, err = e.Execute(ctx, "SELECT name, age FROM users WHERE age > 26 ORDER BY name", nil)
	require.NoError(err)
	require.Equal([]string{"name", "age"}, res.Columns)
	require.Len(res.Rows, 1)
	require.Equal("alice", res.Rows[0]["name"].String())
}

func TestEngineParamBinding(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.Execute(ctx, "CREATE TABLE t (id INT, name VARCHAR(20))", nil)
	require.NoError(err)
	_, err = e.Execute(ctx, "INSERT INTO t (id, name) VALUES (1, 'a')", nil)
	require.NoError(err)

	res, err := e.Execute(ctx, "SELECT name FROM t WHERE id = ?", []sql.Value{sql.NewInt64(1)})
	require.NoError(err)
	require.Len(res.Rows, 1)
	require.Equal("a", res.Rows[0]["name"].String())
}

func TestEngineTransactionNoOp(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.Execute(ctx, "START TRANSACTION", nil)
	require.NoError(err)
	_, err = e.Execute(ctx, "COMMIT", nil)
	require.NoError(err)
}

func TestEngineCreateTableIfNotExists(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.Execute(ctx, "CREATE TABLE t (id INT)", nil)
	require.NoError(err)
	_, err = e.Execute(ctx, "CREATE TABLE IF NOT EXISTS t (id INT)", nil)
	require.NoError(err)
}

func TestEngineMaxRowsGuard(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.MaxRows = 1
	e, err := NewEngine(cfg)
	require.NoError(err)

	_, err = e.Execute(ctx, "CREATE TABLE t (id INT)", nil)
	require.NoError(err)
	_, err = e.Execute(ctx, "INSERT INTO t (id) VALUES (1)", nil)
	require.NoError(err)
	_, err = e.Execute(ctx, "INSERT INTO t (id) VALUES (2)", nil)
	require.NoError(err)

	_, err = e.Execute(ctx, "SELECT id FROM t", nil)
	require.Error(err)
	require.True(sql.ErrResultSetTooLarge.Is(err))
}
