package emulator

import "github.com/sokcuri/mysql-emulator/sql"

// Result is the single return shape of Engine.Execute, covering every
// query kind named by spec §5: a SELECT's rows, an INSERT's affected
// count and last auto-increment value, or neither for DDL/transaction
// acknowledgments.
type Result struct {
	Columns      []string
	Rows         []sql.Row
	RowsAffected int
	LastInsertID int64
}
