package schema

import "strings"

// Table is the resolved description of a target table.
// PrimaryKeys are ordered by key position, Columns hold the remaining columns
// in ordinal order. Immutable once returned by a Cache.
type Table struct {
	Schema      string
	Name        string
	PrimaryKeys []*Column
	Columns     []*Column
}

type Column struct {
	Name       string
	DataType   string // dialect-normalized type tag
	Position   int
	IsNullable bool
	IsPK       bool
}

// Kind classifies a column type for decoding and comparison.
type Kind int

const (
	KindOther Kind = iota
	KindInteger
	KindDecimal
	KindFloat
	KindText
	KindTime
	KindBool
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	case KindBool:
		return "bool"
	case KindBinary:
		return "binary"
	default:
		return "other"
	}
}

// Kind maps the normalized DataType onto a Kind.
func (c *Column) Kind() Kind {
	t := strings.ToLower(c.DataType)
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(t)

	switch t {
	case "int", "integer", "bigint", "smallint", "tinyint", "mediumint", "serial", "bigserial", "int2", "int4", "int8":
		return KindInteger
	case "decimal", "numeric", "number", "money", "smallmoney":
		return KindDecimal
	case "float", "double", "real", "double precision", "float4", "float8", "binary_float", "binary_double":
		return KindFloat
	case "bool", "boolean", "bit":
		return KindBool
	case "date", "time", "datetime", "datetime2", "timestamp", "timestamptz", "smalldatetime", "datetimeoffset":
		return KindTime
	case "blob", "tinyblob", "mediumblob", "longblob", "binary", "varbinary", "bytea", "raw", "image":
		return KindBinary
	}

	switch {
	case strings.HasPrefix(t, "timestamp"):
		return KindTime
	case strings.Contains(t, "char") || strings.Contains(t, "text") || strings.Contains(t, "clob"):
		return KindText
	case t == "uuid" || t == "json" || t == "jsonb" || t == "enum" || t == "set" || t == "string":
		return KindText
	}
	return KindOther
}

// AllColumns returns primary keys then columns.
func (t *Table) AllColumns() []*Column {
	all := make([]*Column, 0, len(t.PrimaryKeys)+len(t.Columns))
	all = append(all, t.PrimaryKeys...)
	return append(all, t.Columns...)
}

// ColumnNames returns the names of AllColumns.
func (t *Table) ColumnNames() []string {
	all := t.AllColumns()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.Name
	}
	return names
}

// PrimaryKeyNames returns the key column names in key order.
func (t *Table) PrimaryKeyNames() []string {
	names := make([]string, len(t.PrimaryKeys))
	for i, c := range t.PrimaryKeys {
		names[i] = c.Name
	}
	return names
}

// Lookup finds a column by name. Names are matched case-insensitively
// since Oracle reports them upper case.
func (t *Table) Lookup(name string) (*Column, bool) {
	for _, c := range t.AllColumns() {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// FullName returns schema.table, or the bare table name without a schema.
func (t *Table) FullName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}
