package record

import (
	"strings"

	"db-check/internal/schema"
)

// ColumnValue pairs a column description with one value.
type ColumnValue struct {
	Column *schema.Column
	Value  any
}

func (cv ColumnValue) Name() string {
	if cv.Column == nil {
		return ""
	}
	return cv.Column.Name
}

// Record is one row of a table, split into primary key values and the rest.
type Record struct {
	SchemaName  string
	TableName   string
	PrimaryKeys []ColumnValue
	Columns     []ColumnValue
}

func New(schemaName, tableName string) *Record {
	return &Record{SchemaName: schemaName, TableName: tableName}
}

func (r *Record) AddPrimaryKey(col *schema.Column, v any) *Record {
	r.PrimaryKeys = append(r.PrimaryKeys, ColumnValue{Column: col, Value: v})
	return r
}

func (r *Record) AddColumn(col *schema.Column, v any) *Record {
	r.Columns = append(r.Columns, ColumnValue{Column: col, Value: v})
	return r
}

// All returns primary key values then column values.
func (r *Record) All() []ColumnValue {
	all := make([]ColumnValue, 0, len(r.PrimaryKeys)+len(r.Columns))
	all = append(all, r.PrimaryKeys...)
	return append(all, r.Columns...)
}

func (r *Record) PrimaryKeyNames() []string {
	return names(r.PrimaryKeys)
}

func (r *Record) ColumnNames() []string {
	return names(r.Columns)
}

func names(values []ColumnValue) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.Name()
	}
	return out
}

// Get finds a value by column name, ignoring case.
func (r *Record) Get(name string) (ColumnValue, bool) {
	for _, cv := range r.PrimaryKeys {
		if strings.EqualFold(cv.Name(), name) {
			return cv, true
		}
	}
	for _, cv := range r.Columns {
		if strings.EqualFold(cv.Name(), name) {
			return cv, true
		}
	}
	return ColumnValue{}, false
}

// Key renders the primary key tuple as canonical text. A record without key
// values is identified by every column value.
func (r *Record) Key() string {
	values := r.PrimaryKeys
	if len(values) == 0 {
		values = r.Columns
	}
	parts := make([]string, len(values))
	for i, cv := range values {
		parts[i] = Text(cv.Value)
	}
	return strings.Join(parts, "\x00")
}

// FullName returns schema.table, or the bare table name without a schema.
func (r *Record) FullName() string {
	if r.SchemaName == "" {
		return r.TableName
	}
	return r.SchemaName + "." + r.TableName
}

// String renders the record as schema.table{col=value, ...}.
func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString(r.FullName())
	sb.WriteByte('{')
	for i, cv := range r.All() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(cv.Name())
		sb.WriteByte('=')
		if cv.Value == nil {
			sb.WriteString("NULL")
		} else {
			sb.WriteString(Text(cv.Value))
		}
	}
	sb.WriteByte('}')
	return sb.String()
}
