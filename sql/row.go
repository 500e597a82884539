package sql

import "strings"

// Row is a mapping from qualified key to Value (spec §3). A qualified key
// has one of three shapes:
//
//	T::c  table-qualified column, from a base table whose alias is T,
//	      else its declared name
//	::a   alias-scoped value, projected by SELECT so HAVING can see it
//	c     a bare key, found only in output rows, never between stages
type Row map[string]Value

// NewRow builds an empty Row.
func NewRow() Row { return make(Row) }

// Copy returns a shallow copy of r; every pipeline stage must hand
// downstream stages a fresh Row rather than mutate its input (spec §3
// invariant: rows are immutable per stage).
func (r Row) Copy() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// QualifiedKey builds a table-qualified key "T::c".
func QualifiedKey(table, column string) string {
	return table + "::" + column
}

// AliasKey builds an alias-scoped key "::a".
func AliasKey(alias string) string {
	return "::" + alias
}

// SplitQualifiedKey splits a "T::c" key back into table and column. ok is
// false for alias-scoped ("::a") or bare keys.
func SplitQualifiedKey(key string) (table, column string, ok bool) {
	idx := strings.Index(key, "::")
	if idx <= 0 {
		return "", "", false
	}
	return key[:idx], key[idx+2:], true
}

// Scope is the ordered list of qualified keys currently visible to the
// evaluator (spec §3, design note §9: iterate in FROM-declaration order,
// fail on ambiguity, never silently pick the first).
type Scope []string

// AddTable appends every column of a base/derived source to the scope,
// in column order.
func (s Scope) AddTable(table string, columns []string) Scope {
	for _, c := range columns {
		s = append(s, QualifiedKey(table, c))
	}
	return s
}

// AddAlias appends a SELECT-defined alias to the scope, making it
// visible to HAVING.
func (s Scope) AddAlias(alias string) Scope {
	return append(s, AliasKey(alias))
}

// Resolve finds the qualified key a column_ref(table, column) addresses,
// per spec §4.3: try "T::c", then "::c", then, only when table is empty,
// any single "?::c" match.
func (s Scope) Resolve(table, column string) (string, error) {
	if table != "" {
		key := QualifiedKey(table, column)
		for _, k := range s {
			if k == key {
				return key, nil
			}
		}
		aliasKey := AliasKey(column)
		for _, k := range s {
			if k == aliasKey {
				return aliasKey, nil
			}
		}
		return "", ErrUnknownColumn.New(column, table+"."+column)
	}

	aliasKey := AliasKey(column)
	for _, k := range s {
		if k == aliasKey {
			return aliasKey, nil
		}
	}

	var matches []string
	for _, k := range s {
		t, c, ok := SplitQualifiedKey(k)
		if !ok {
			continue
		}
		if c == column {
			matches = append(matches, QualifiedKey(t, c))
		}
	}
	switch len(matches) {
	case 0:
		return "", ErrUnknownColumn.New(column, "field list")
	case 1:
		return matches[0], nil
	default:
		return "", ErrAmbiguousColumn.New(column)
	}
}

// Tables returns the distinct table qualifiers present in the scope
// (keys of the form "T::c"), preserving first-seen order.
func (s Scope) Tables() []string {
	seen := map[string]bool{}
	var out []string
	for _, k := range s {
		t, _, ok := SplitQualifiedKey(k)
		if !ok || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
