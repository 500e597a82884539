package sql

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Column is the common contract every column-kind variant satisfies
// (spec §4.1, design note §9: "represent as a tagged variant ... rather
// than inheritance").
type Column interface {
	// Name is the column's declared name.
	Name() string
	// Nullable reports whether NULL is an acceptable value.
	Nullable() bool
	// DefaultExpression is the expression evaluated when an INSERT omits
	// this column and it has no pending auto-increment value, or nil.
	DefaultExpression() Expression
	// Cast enforces this column's type/range rules on v, returning the
	// normalized Value or a tagged error (ErrOutOfRange, ErrIncorrectInteger,
	// ErrBadNull).
	Cast(v Value) (Value, error)
	// HasAutoIncrement reports whether this is an AUTO_INCREMENT integer
	// column.
	HasAutoIncrement() bool
}

type baseColumn struct {
	name          string
	nullable      bool
	defaultExpr   Expression
	autoIncrement bool
}

func (c *baseColumn) Name() string                 { return c.name }
func (c *baseColumn) Nullable() bool                { return c.nullable }
func (c *baseColumn) DefaultExpression() Expression { return c.defaultExpr }
func (c *baseColumn) HasAutoIncrement() bool        { return c.autoIncrement }

func (c *baseColumn) rejectNull(v Value) (Value, bool, error) {
	if !v.IsNull() {
		return v, false, nil
	}
	if c.nullable {
		return Null, true, nil
	}
	return Null, true, ErrBadNull.New(c.name)
}

// IntegerColumn models MySQL's TINYINT/SMALLINT/INT/BIGINT family,
// parameterized by bit width and signedness (spec §4.1).
type IntegerColumn struct {
	baseColumn
	Bits     int  // 8, 16, 32, 64
	Unsigned bool
}

// NewIntegerColumn constructs an integer column.
func NewIntegerColumn(name string, bits int, unsigned, nullable, autoIncrement bool, defaultExpr Expression) *IntegerColumn {
	return &IntegerColumn{
		baseColumn: baseColumn{name: name, nullable: nullable, defaultExpr: defaultExpr, autoIncrement: autoIncrement},
		Bits:       bits,
		Unsigned:   unsigned,
	}
}

func (c *IntegerColumn) bounds() (min int64, max int64, umax uint64) {
	if c.Unsigned {
		switch c.Bits {
		case 8:
			return 0, 0, 1<<8 - 1
		case 16:
			return 0, 0, 1<<16 - 1
		case 32:
			return 0, 0, 1<<32 - 1
		default:
			return 0, 0, ^uint64(0)
		}
	}
	switch c.Bits {
	case 8:
		return -1 << 7, 1<<7 - 1, 0
	case 16:
		return -1 << 15, 1<<15 - 1, 0
	case 32:
		return -1 << 31, 1<<31 - 1, 0
	default:
		return -1 << 63, 1<<63 - 1, 0
	}
}

// Cast implements Column.
func (c *IntegerColumn) Cast(v Value) (Value, error) {
	if out, handled, err := c.rejectNull(v); handled {
		return out, err
	}
	if v.IsDefault() {
		return v, nil
	}

	var i64 int64
	var err error
	switch v.Kind() {
	case KindString:
		s := strings.TrimSpace(v.String())
		i64, err = cast.ToInt64E(s)
		if err != nil {
			return Null, ErrIncorrectInteger.New(s)
		}
	case KindBool:
		i64, _ = cast.ToInt64E(v.Bool())
	case KindFloat64:
		i64 = int64(v.Float64())
	default:
		i64, err = cast.ToInt64E(rawNumeric(v))
		if err != nil {
			return Null, ErrIncorrectInteger.New(v.String())
		}
	}

	min, max, umax := c.bounds()
	if c.Unsigned {
		if i64 < 0 || uint64(i64) > umax {
			return Null, ErrOutOfRange.New(c.name)
		}
		return NewUint64(uint64(i64)), nil
	}
	if i64 < min || i64 > max {
		return Null, ErrOutOfRange.New(c.name)
	}
	return NewInt64(i64), nil
}

func rawNumeric(v Value) interface{} {
	switch v.Kind() {
	case KindInt64:
		return v.Int64()
	case KindUint64:
		return v.Uint64()
	default:
		return v.String()
	}
}

// FloatColumn models MySQL's FLOAT/DOUBLE/DECIMAL family. Decimal
// precision/scale enforcement is out of scope (Non-goal: full type
// coverage); values are stored as float64.
type FloatColumn struct {
	baseColumn
}

// NewFloatColumn constructs a floating point column.
func NewFloatColumn(name string, nullable bool, defaultExpr Expression) *FloatColumn {
	return &FloatColumn{baseColumn{name: name, nullable: nullable, defaultExpr: defaultExpr}}
}

// Cast implements Column.
func (c *FloatColumn) Cast(v Value) (Value, error) {
	if out, handled, err := c.rejectNull(v); handled {
		return out, err
	}
	if v.IsDefault() {
		return v, nil
	}
	f, err := cast.ToFloat64E(valueAsCastable(v))
	if err != nil {
		return Null, ErrIncorrectInteger.New(v.String())
	}
	return NewFloat64(f), nil
}

func valueAsCastable(v Value) interface{} {
	switch v.Kind() {
	case KindString:
		return v.String()
	case KindInt64:
		return v.Int64()
	case KindUint64:
		return v.Uint64()
	case KindFloat64:
		return v.Float64()
	case KindBool:
		return v.Bool()
	default:
		return v.String()
	}
}

// VarcharColumn models MySQL's VARCHAR(n)/TEXT family. Unlike MySQL's
// default lenient truncation, spec §4.1 requires that lengths beyond n
// raise an out-of-range error rather than silently truncating.
type VarcharColumn struct {
	baseColumn
	MaxLength int // 0 means unbounded (TEXT)
}

// NewVarcharColumn constructs a VARCHAR(n) column. maxLength of 0 models
// an unbounded TEXT column.
func NewVarcharColumn(name string, maxLength int, nullable bool, defaultExpr Expression) *VarcharColumn {
	return &VarcharColumn{baseColumn{name: name, nullable: nullable, defaultExpr: defaultExpr}, maxLength}
}

// Cast implements Column.
func (c *VarcharColumn) Cast(v Value) (Value, error) {
	if out, handled, err := c.rejectNull(v); handled {
		return out, err
	}
	if v.IsDefault() {
		return v, nil
	}
	s, err := cast.ToStringE(valueAsCastable(v))
	if err != nil {
		return Null, ErrIncorrectInteger.New(v.String())
	}
	if c.MaxLength > 0 && len(s) > c.MaxLength {
		return Null, ErrOutOfRange.New(c.name)
	}
	return NewString(s), nil
}

// DatetimeColumn models MySQL's DATETIME/TIMESTAMP/DATE family, storing
// a normalized UTC "YYYY-MM-DD HH:MM:SS" string.
type DatetimeColumn struct {
	baseColumn
}

// NewDatetimeColumn constructs a DATETIME column.
func NewDatetimeColumn(name string, nullable bool, defaultExpr Expression) *DatetimeColumn {
	return &DatetimeColumn{baseColumn{name: name, nullable: nullable, defaultExpr: defaultExpr}}
}

var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// Cast implements Column.
func (c *DatetimeColumn) Cast(v Value) (Value, error) {
	if out, handled, err := c.rejectNull(v); handled {
		return out, err
	}
	if v.IsDefault() {
		return v, nil
	}

	var t time.Time
	switch v.Kind() {
	case KindString:
		var err error
		var parsed bool
		for _, layout := range datetimeLayouts {
			if t, err = time.Parse(layout, v.String()); err == nil {
				parsed = true
				break
			}
		}
		if !parsed {
			return Null, ErrIncorrectInteger.New(v.String())
		}
	case KindInt64:
		t = time.Unix(v.Int64(), 0).UTC()
	default:
		return Null, ErrIncorrectInteger.New(v.String())
	}
	return NewString(t.UTC().Format("2006-01-02 15:04:05")), nil
}

// BooleanColumn models MySQL's BOOLEAN/BOOL alias for TINYINT(1).
type BooleanColumn struct {
	baseColumn
}

// NewBooleanColumn constructs a BOOLEAN column.
func NewBooleanColumn(name string, nullable bool, defaultExpr Expression) *BooleanColumn {
	return &BooleanColumn{baseColumn{name: name, nullable: nullable, defaultExpr: defaultExpr}}
}

// Cast implements Column.
func (c *BooleanColumn) Cast(v Value) (Value, error) {
	if out, handled, err := c.rejectNull(v); handled {
		return out, err
	}
	if v.IsDefault() {
		return v, nil
	}
	if v.IsNumeric() {
		return NewBool(v.Truthy()), nil
	}
	b, err := cast.ToBoolE(valueAsCastable(v))
	if err != nil {
		return Null, ErrIncorrectInteger.New(v.String())
	}
	return NewBool(b), nil
}
