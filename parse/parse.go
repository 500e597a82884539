// Package parse adapts github.com/freeeve/machparse's dialect-agnostic
// AST into the engine's own sql.Query/sql.Expression trees.
package parse

import (
	"strings"

	"github.com/freeeve/machparse"
	"github.com/freeeve/machparse/ast"

	"github.com/sokcuri/mysql-emulator/sql"
)

// Parse parses sqlText into a sql.Query, substituting params for each
// positional `?` placeholder in source order. machparse has no AST node
// for transaction control statements, so those are recognized by
// keyword prefix ahead of delegating to it.
func Parse(sqlText string, params []sql.Value) (sql.Query, error) {
	if tx, ok := parseTransaction(sqlText); ok {
		return tx, nil
	}

	stmt, err := machparse.Parse(sqlText)
	if err != nil {
		return nil, sql.NewProcessorError("%s", err.Error())
	}

	c := &converter{params: params, raw: sqlText}

	switch s := stmt.(type) {
	case *ast.SelectStmt:
		return c.convertSelect(s)
	case *ast.InsertStmt:
		return c.convertInsert(s)
	case *ast.CreateTableStmt:
		return c.convertCreateTable(s)
	default:
		return nil, sql.NewProcessorError("unsupported statement type %T", stmt)
	}
}

// converter carries the per-parse state needed while lowering the
// machparse AST: the eagerly-bound parameter values for `?` placeholders
// and the original SQL text, consulted only for the AUTO_INCREMENT
// detection machparse's ColumnConstraint AST drops (see ddl.go).
type converter struct {
	params   []sql.Value
	paramIdx int
	raw      string
}

func (c *converter) nextParam() sql.Value {
	if c.paramIdx >= len(c.params) {
		return sql.Null
	}
	v := c.params[c.paramIdx]
	c.paramIdx++
	return v
}

func parseTransaction(sqlText string) (*sql.TransactionQuery, bool) {
	trimmed := strings.TrimSpace(sqlText)
	trimmed = strings.TrimSuffix(trimmed, ";")
	upper := strings.ToUpper(strings.TrimSpace(trimmed))

	switch {
	case upper == "BEGIN" || upper == "START TRANSACTION" || strings.HasPrefix(upper, "START TRANSACTION "):
		return &sql.TransactionQuery{Kind: "START_TRANSACTION"}, true
	case upper == "COMMIT":
		return &sql.TransactionQuery{Kind: "COMMIT"}, true
	case upper == "ROLLBACK":
		return &sql.TransactionQuery{Kind: "ROLLBACK"}, true
	default:
		return nil, false
	}
}
