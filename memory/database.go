package memory

import (
	"fmt"
	"sync"

	"github.com/sokcuri/mysql-emulator/sql"
)

// Database is an in-memory implementation of sql.Database: a registry of
// named Tables.
type Database struct {
	mu     sync.Mutex
	name   string
	tables map[string]*Table
}

// NewDatabase builds an empty database named name.
func NewDatabase(name string) *Database {
	return &Database{name: name, tables: make(map[string]*Table)}
}

// Name implements sql.Database.
func (d *Database) Name() string { return d.name }

// GetTable implements sql.Database.
func (d *Database) GetTable(name string) (sql.Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tables[name]
	if !ok {
		return nil, fmt.Errorf("table not found: '%s.%s'", d.name, name)
	}
	return t, nil
}

// CreateTable implements sql.Database.
func (d *Database) CreateTable(name string, columns []sql.Column) (sql.Table, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.tables[name]; ok {
		return nil, fmt.Errorf("table already exists: '%s.%s'", d.name, name)
	}
	t := NewTable(name, columns)
	d.tables[name] = t
	return t, nil
}
