package rowexec

import (
	"github.com/sokcuri/mysql-emulator/sql"
	"github.com/sokcuri/mysql-emulator/sql/expression"
)

// InsertProcessor resolves and validates each VALUES row of an INSERT
// before handing it to the storage collaborator (spec §4.6).
type InsertProcessor struct {
	Server sql.Server
}

// NewInsertProcessor builds an InsertProcessor bound to server.
func NewInsertProcessor(server sql.Server) *InsertProcessor {
	return &InsertProcessor{Server: server}
}

// InsertResult is the Insert Processor's summary of a completed INSERT
// (spec §4.6): the number of rows inserted and the last auto-increment
// value assigned across them, 0 if the table has no auto-increment
// column or none of the inserted rows used it.
type InsertResult struct {
	RowsAffected int
	InsertID     int64
}

// Execute runs query's INSERT against server, returning an InsertResult
// (spec §4.6): for each VALUES row, DEFAULT/omitted columns resolve to
// the column's default expression or its auto-increment counter, every
// value is cast through its column, and an ErrOutOfRange or
// ErrIncorrectInteger cast failure is rewritten with the failing row's
// 1-based position; other errors are returned unchanged.
func (ip *InsertProcessor) Execute(query *sql.InsertQuery) (InsertResult, error) {
	dbName := query.Database
	if dbName == "" {
		dbName = ip.Server.CurrentDatabase()
	}
	db, err := ip.Server.GetDatabase(dbName)
	if err != nil {
		return InsertResult{}, err
	}
	table, err := db.GetTable(query.Table)
	if err != nil {
		return InsertResult{}, err
	}

	cols := table.GetColumns()
	colByName := map[string]sql.Column{}
	for _, c := range cols {
		colByName[c.Name()] = c
	}

	targetColumns := query.Columns
	if len(targetColumns) == 0 {
		targetColumns = make([]string, len(cols))
		for i, c := range cols {
			targetColumns[i] = c.Name()
		}
	}

	eval := expression.NewEvaluator(ip.Server, nil)

	result := InsertResult{}
	for rowIndex, values := range query.Values {
		if len(values) != len(targetColumns) {
			return result, sql.ErrColumnCountMismatch.New(rowIndex + 1)
		}

		raw := map[string]sql.Value{}
		for i, expr := range values {
			v, err := eval.Evaluate(expr, nil, nil)
			if err != nil {
				return result, sql.WrapClause(err, "field list")
			}
			raw[targetColumns[i]] = v
		}

		row := sql.NewRow()
		for _, c := range cols {
			v, ok := raw[c.Name()]
			if !ok {
				v = sql.Default
			}
			var err error
			if v.IsDefault() {
				v, err = ip.resolveDefault(eval, c, table)
				if err == nil && c.HasAutoIncrement() && !v.IsNull() {
					result.InsertID = asInsertID(v)
				}
			} else {
				v, err = c.Cast(v)
			}
			if err != nil {
				if sql.ErrOutOfRange.Is(err) || sql.ErrIncorrectInteger.Is(err) {
					return result, sql.NewProcessorError("%s at row %d", err.Error(), rowIndex+1)
				}
				return result, err
			}
			row[c.Name()] = v
		}

		if err := table.InsertRow(row); err != nil {
			return result, err
		}
		result.RowsAffected++
	}

	return result, nil
}

// asInsertID narrows a cast auto-increment Value (KindInt64 or
// KindUint64, per IntegerColumn.Cast) to the int64 LAST_INSERT_ID
// reports.
func asInsertID(v sql.Value) int64 {
	if v.Kind() == sql.KindUint64 {
		return int64(v.Uint64())
	}
	return v.Int64()
}

// resolveDefault implements the DEFAULT/omitted-column resolution order
// (spec §4.6): auto-increment first, then the column's default
// expression, then NULL if nullable, else ErrBadNull.
func (ip *InsertProcessor) resolveDefault(eval *expression.Evaluator, c sql.Column, table sql.Table) (sql.Value, error) {
	if c.HasAutoIncrement() {
		return c.Cast(sql.NewInt64(table.GetNextAutoIncrementValue(c.Name())))
	}
	if expr := c.DefaultExpression(); expr != nil {
		v, err := eval.Evaluate(expr, nil, nil)
		if err != nil {
			return sql.Null, err
		}
		return c.Cast(v)
	}
	return c.Cast(sql.Null)
}
