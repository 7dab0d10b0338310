package dialect

import (
	"fmt"
	"strings"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string {
	return "postgres"
}

func (d *PostgresDialect) GetTablesQuery() string {
	// $1 is cast so a NULL schema still has a known type.
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = COALESCE($1::text, current_schema()) AND table_type = 'BASE TABLE' ORDER BY table_name`
}

func (d *PostgresDialect) GetColumnsQuery() string {
	// udt_name is reported instead of data_type (int4 rather than integer).
	return `
SELECT
    c.table_schema,
    c.column_name,
    c.udt_name,
    c.ordinal_position,
    k.ordinal_position,
    c.is_nullable
FROM information_schema.columns c
LEFT JOIN (
    SELECT kcu.table_schema, kcu.table_name, kcu.column_name, kcu.ordinal_position
    FROM information_schema.key_column_usage kcu
    JOIN information_schema.table_constraints tc
        ON tc.constraint_schema = kcu.constraint_schema AND tc.constraint_name = kcu.constraint_name
    WHERE tc.constraint_type = 'PRIMARY KEY'
) k ON k.table_schema = c.table_schema AND k.table_name = c.table_name AND k.column_name = c.column_name
WHERE c.table_schema = COALESCE($1::text, current_schema()) AND c.table_name = $2
ORDER BY c.ordinal_position`
}

func (d *PostgresDialect) SelectQuery(schema, table string, cols []string) string {
	return buildSelect(d, schema, table, cols)
}

func (d *PostgresDialect) CountQuery(schema, table string) string {
	return buildCount(d, schema, table)
}

func (d *PostgresDialect) SelectByKeyQuery(schema, table string, keys, cols []string) string {
	return buildSelectByKey(d, schema, table, keys, cols)
}

func (d *PostgresDialect) SelectByKeyBatchQuery(schema, table string, keys, cols []string, n int) string {
	return buildSelectInTuples(d, schema, table, keys, cols, n)
}

func (d *PostgresDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *PostgresDialect) NormalizeType(sqlType string) string {
	t := strings.ToLower(sqlType)
	switch t {
	case "int4", "int2":
		return "int"
	case "int8":
		return "bigint"
	case "float4":
		return "float"
	case "float8":
		return "double"
	case "bpchar":
		return "char"
	case "bool":
		return "boolean"
	case "timestamptz":
		return "timestamp"
	default:
		return t
	}
}

func (d *PostgresDialect) GetSchemaName(input string) string {
	return DefaultGetSchemaName(input)
}

func (d *PostgresDialect) GetTableName(input string) string {
	return DefaultGetTableName(input)
}

func (d *PostgresDialect) MaxBatchRows(bindsPerRow int) int {
	return rowsWithin(65535, bindsPerRow)
}

func (d *PostgresDialect) UsesTargetEncoding() bool {
	return false
}
