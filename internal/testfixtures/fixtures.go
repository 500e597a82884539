// Package testfixtures loads YAML-described table schemas and seed rows
// into a sql.Server, so pipeline/processor test suites build fixtures
// declaratively instead of hand-assembling Columns and Rows in every
// test (SPEC_FULL §3 "Test tooling").
package testfixtures

import (
	"os"

	"gopkg.in/yaml.v2"

	"github.com/sokcuri/mysql-emulator/sql"
)

// ColumnFixture describes one column of a TableFixture.
type ColumnFixture struct {
	Name          string      `yaml:"name"`
	Type          string      `yaml:"type"`
	Length        int         `yaml:"length"`
	Unsigned      bool        `yaml:"unsigned"`
	Nullable      bool        `yaml:"nullable"`
	AutoIncrement bool        `yaml:"auto_increment"`
	Default       interface{} `yaml:"default"`
}

// TableFixture describes one table's schema and seed data.
type TableFixture struct {
	Name    string                   `yaml:"name"`
	Columns []ColumnFixture          `yaml:"columns"`
	Rows    []map[string]interface{} `yaml:"rows"`
}

// Fixture is the top-level shape of a fixture YAML document.
type Fixture struct {
	Tables []TableFixture `yaml:"tables"`
}

// Load reads and parses a Fixture from the YAML file at path.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadInto creates every table described by f in database and seeds its
// rows, casting each raw YAML scalar through its column the same way the
// Insert Processor would.
func (f *Fixture) LoadInto(database sql.Database) error {
	for _, tf := range f.Tables {
		cols := make([]sql.Column, len(tf.Columns))
		for i, cf := range tf.Columns {
			cols[i] = lowerColumn(cf)
		}
		table, err := database.CreateTable(tf.Name, cols)
		if err != nil {
			return err
		}
		for _, raw := range tf.Rows {
			row := sql.NewRow()
			for _, c := range cols {
				v, ok := raw[c.Name()]
				var val sql.Value
				if !ok || v == nil {
					val = sql.Null
				} else {
					val = toValue(v)
				}
				cast, err := c.Cast(val)
				if err != nil {
					return err
				}
				row[c.Name()] = cast
			}
			if err := table.InsertRow(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// toValue converts a YAML-decoded scalar into a runtime sql.Value.
func toValue(v interface{}) sql.Value {
	switch x := v.(type) {
	case int:
		return sql.NewInt64(int64(x))
	case int64:
		return sql.NewInt64(x)
	case float64:
		return sql.NewFloat64(x)
	case bool:
		return sql.NewBool(x)
	case string:
		return sql.NewString(x)
	default:
		return sql.Null
	}
}

func lowerColumn(cf ColumnFixture) sql.Column {
	var defaultExpr sql.Expression
	switch {
	case isIntegerType(cf.Type):
		return sql.NewIntegerColumn(cf.Name, integerBits(cf.Type), cf.Unsigned, cf.Nullable, cf.AutoIncrement, defaultExpr)
	case cf.Type == "FLOAT" || cf.Type == "DOUBLE" || cf.Type == "DECIMAL":
		return sql.NewFloatColumn(cf.Name, cf.Nullable, defaultExpr)
	case cf.Type == "BOOLEAN" || cf.Type == "BOOL":
		return sql.NewBooleanColumn(cf.Name, cf.Nullable, defaultExpr)
	case cf.Type == "DATETIME" || cf.Type == "TIMESTAMP" || cf.Type == "DATE":
		return sql.NewDatetimeColumn(cf.Name, cf.Nullable, defaultExpr)
	default:
		length := cf.Length
		if length == 0 {
			length = 255
		}
		return sql.NewVarcharColumn(cf.Name, length, cf.Nullable, defaultExpr)
	}
}

func isIntegerType(sqlType string) bool {
	switch sqlType {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT":
		return true
	default:
		return false
	}
}

func integerBits(sqlType string) int {
	switch sqlType {
	case "TINYINT":
		return 8
	case "SMALLINT":
		return 16
	case "BIGINT":
		return 64
	default:
		return 32
	}
}
