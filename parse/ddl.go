package parse

import (
	"regexp"
	"strings"

	"github.com/freeeve/machparse/ast"

	"github.com/sokcuri/mysql-emulator/sql"
)

func (c *converter) convertInsert(s *ast.InsertStmt) (*sql.InsertQuery, error) {
	if s.Select != nil {
		return nil, sql.NewProcessorError("INSERT ... SELECT is not supported")
	}

	q := &sql.InsertQuery{
		Database: s.Table.Schema(),
		Table:    s.Table.Name(),
	}
	for _, col := range s.Columns {
		q.Columns = append(q.Columns, col.Name())
	}

	for _, row := range s.Values {
		values := make([]sql.Expression, len(row))
		for i, v := range row {
			e, err := c.convertExpr(v)
			if err != nil {
				return nil, err
			}
			values[i] = e
		}
		q.Values = append(q.Values, values)
	}

	return q, nil
}

func (c *converter) convertCreateTable(s *ast.CreateTableStmt) (*sql.CreateTableQuery, error) {
	if s.As != nil {
		return nil, sql.NewProcessorError("CREATE TABLE ... AS SELECT is not supported")
	}

	q := &sql.CreateTableQuery{
		Database:    s.Table.Schema(),
		Table:       s.Table.Name(),
		IfNotExists: s.IfNotExists,
	}

	primaryKeys := primaryKeyColumns(s)

	for _, col := range s.Columns {
		cd := sql.ColumnDef{
			Name:     col.Name,
			SQLType:  strings.ToUpper(col.Type.Name),
			Unsigned: col.Type.Unsigned,
			Nullable: true,
		}
		if col.Type.Length != nil {
			cd.Length = *col.Type.Length
		}
		if primaryKeys[col.Name] {
			cd.Nullable = false
		}

		for _, con := range col.Constraints {
			switch con.Type {
			case ast.ConstraintNotNull, ast.ConstraintPrimaryKey:
				cd.Nullable = false
			case ast.ConstraintDefault:
				d, err := c.convertExpr(con.Default)
				if err != nil {
					return nil, err
				}
				cd.Default = d
			}
		}

		// machparse consumes the AUTO_INCREMENT keyword while parsing a
		// column constraint list but does not record it on ast.ColumnDef
		// (see parser.parseColumnConstraints), so it is recovered here by
		// scanning the column's own definition text instead.
		cd.AutoIncrement = columnHasAutoIncrement(c.raw, col.Name)

		q.Columns = append(q.Columns, cd)
	}

	return q, nil
}

func primaryKeyColumns(s *ast.CreateTableStmt) map[string]bool {
	out := map[string]bool{}
	for _, con := range s.Constraints {
		if con.Type != ast.ConstraintPrimaryKey {
			continue
		}
		for _, name := range con.Columns {
			out[name] = true
		}
	}
	return out
}

// columnHasAutoIncrement scans raw for "<column> ... AUTO_INCREMENT"
// occurring before the next top-level comma, case-insensitively.
func columnHasAutoIncrement(raw, column string) bool {
	pattern := `(?is)\b` + regexp.QuoteMeta(column) + `\b[^,()]*\bAUTO_INCREMENT\b`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(raw)
}
