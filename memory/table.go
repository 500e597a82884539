// Package memory implements the in-memory storage collaborator (spec
// §6): ordered tables of rows, backing sql.Server/sql.Database/sql.Table.
package memory

import (
	"sync"

	"github.com/sokcuri/mysql-emulator/sql"
)

// Table is an insertion-ordered, in-memory implementation of sql.Table.
type Table struct {
	mu   sync.Mutex
	name string
	cols []sql.Column
	rows []sql.Row

	autoIncrement map[string]int64
}

// NewTable builds an empty table named name with the given columns.
func NewTable(name string, columns []sql.Column) *Table {
	return &Table{
		name:          name,
		cols:          columns,
		autoIncrement: make(map[string]int64),
	}
}

// Name implements sql.Table.
func (t *Table) Name() string { return t.name }

// GetColumns implements sql.Table.
func (t *Table) GetColumns() []sql.Column {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]sql.Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// GetRows implements sql.Table, returning a snapshot keyed by bare
// column name.
func (t *Table) GetRows() []sql.Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]sql.Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Copy()
	}
	return out
}

// InsertRow implements sql.Table. row must already be cast/validated by
// the Insert Processor; InsertRow only appends and tracks auto-increment
// state.
func (t *Table) InsertRow(row sql.Row) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.cols {
		if !c.HasAutoIncrement() {
			continue
		}
		v, ok := row[c.Name()]
		if !ok || v.IsNull() {
			continue
		}
		var n int64
		switch v.Kind() {
		case sql.KindInt64:
			n = v.Int64()
		case sql.KindUint64:
			n = int64(v.Uint64())
		default:
			continue
		}
		if n >= t.autoIncrement[c.Name()] {
			t.autoIncrement[c.Name()] = n + 1
		}
	}
	t.rows = append(t.rows, row.Copy())
	return nil
}

// GetNextAutoIncrementValue implements sql.Table, returning and
// advancing column's monotonic counter (starting at 1, per MySQL).
func (t *Table) GetNextAutoIncrementValue(column string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.autoIncrement[column] == 0 {
		t.autoIncrement[column] = 1
	}
	v := t.autoIncrement[column]
	t.autoIncrement[column] = v + 1
	return v
}
