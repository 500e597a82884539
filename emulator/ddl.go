package emulator

import (
	"github.com/sokcuri/mysql-emulator/sql"
)

// executeCreateTable lowers q's ColumnDefs into concrete sql.Column
// variants and registers the table with the engine's storage
// collaborator (SPEC_FULL §5). DDL beyond this is out of scope (spec
// §1, Non-goals: "no DDL beyond what CREATE TABLE needs").
func (e *Engine) executeCreateTable(q *sql.CreateTableQuery) error {
	dbName := q.Database
	if dbName == "" {
		dbName = e.server.CurrentDatabase()
	}
	db, err := e.server.GetDatabase(dbName)
	if err != nil {
		return err
	}

	if q.IfNotExists {
		if _, err := db.GetTable(q.Table); err == nil {
			return nil
		}
	}

	columns := make([]sql.Column, len(q.Columns))
	for i, cd := range q.Columns {
		col, err := lowerColumnDef(cd)
		if err != nil {
			return err
		}
		columns[i] = col
	}

	_, err = db.CreateTable(q.Table, columns)
	return err
}

// lowerColumnDef maps a parsed column definition's declared SQL type
// name to its concrete Column constructor (spec §4.1). Unrecognized
// types fall back to VARCHAR(255), matching MySQL's own leniency about
// exotic/extension column types it doesn't specially model.
func lowerColumnDef(cd sql.ColumnDef) (sql.Column, error) {
	switch {
	case isIntegerType(cd.SQLType):
		return sql.NewIntegerColumn(cd.Name, integerBits(cd.SQLType), cd.Unsigned, cd.Nullable, cd.AutoIncrement, cd.Default), nil

	case cd.SQLType == "FLOAT" || cd.SQLType == "DOUBLE" || cd.SQLType == "DECIMAL" || cd.SQLType == "NUMERIC":
		return sql.NewFloatColumn(cd.Name, cd.Nullable, cd.Default), nil

	case cd.SQLType == "BOOLEAN" || cd.SQLType == "BOOL":
		return sql.NewBooleanColumn(cd.Name, cd.Nullable, cd.Default), nil

	case cd.SQLType == "DATETIME" || cd.SQLType == "TIMESTAMP" || cd.SQLType == "DATE":
		return sql.NewDatetimeColumn(cd.Name, cd.Nullable, cd.Default), nil

	case cd.SQLType == "VARCHAR" || cd.SQLType == "CHAR":
		length := cd.Length
		if length == 0 {
			length = 255
		}
		return sql.NewVarcharColumn(cd.Name, length, cd.Nullable, cd.Default), nil

	case cd.SQLType == "TEXT" || cd.SQLType == "BLOB" || cd.SQLType == "LONGTEXT" || cd.SQLType == "MEDIUMTEXT":
		return sql.NewVarcharColumn(cd.Name, 0, cd.Nullable, cd.Default), nil

	default:
		return sql.NewVarcharColumn(cd.Name, 255, cd.Nullable, cd.Default), nil
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
	case "MEDIUMINT", "INT", "INTEGER":
		return 32
	case "BIGINT":
		return 64
	default:
		return 32
	}
}
