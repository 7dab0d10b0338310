package dialect

import (
	"fmt"
	"strings"
)

type MSSQLDialect struct{}

// Helper: MSSQL Driver (go-mssqldb) prefers @p1, @p2 named parameters over ?
// especially when prepared statements are involved.

func (d *MSSQLDialect) Name() string {
	return "sqlserver"
}

func (d *MSSQLDialect) GetTablesQuery() string {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = COALESCE(@p1, SCHEMA_NAME()) AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
}

func (d *MSSQLDialect) GetColumnsQuery() string {
	return `
SELECT
    c.TABLE_SCHEMA,
    c.COLUMN_NAME,
    c.DATA_TYPE,
    c.ORDINAL_POSITION,
    pk.ORDINAL_POSITION,
    c.IS_NULLABLE
FROM INFORMATION_SCHEMA.COLUMNS c
LEFT JOIN (
    SELECT kcu.TABLE_SCHEMA, kcu.TABLE_NAME, kcu.COLUMN_NAME, kcu.ORDINAL_POSITION
    FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
    JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
        ON tc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA AND tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
    WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
) pk ON c.TABLE_SCHEMA = pk.TABLE_SCHEMA AND c.TABLE_NAME = pk.TABLE_NAME AND c.COLUMN_NAME = pk.COLUMN_NAME
WHERE c.TABLE_SCHEMA = COALESCE(@p1, SCHEMA_NAME()) AND c.TABLE_NAME = @p2
ORDER BY c.ORDINAL_POSITION`
}

func (d *MSSQLDialect) SelectQuery(schema, table string, cols []string) string {
	return buildSelect(d, schema, table, cols)
}

func (d *MSSQLDialect) CountQuery(schema, table string) string {
	return buildCount(d, schema, table)
}

func (d *MSSQLDialect) SelectByKeyQuery(schema, table string, keys, cols []string) string {
	return buildSelectByKey(d, schema, table, keys, cols)
}

// SelectByKeyBatchQuery falls back to OR-ed groups for composite keys since
// T-SQL has no row-value IN.
func (d *MSSQLDialect) SelectByKeyBatchQuery(schema, table string, keys, cols []string, n int) string {
	return buildSelectOrGroups(d, schema, table, keys, cols, n)
}

func (d *MSSQLDialect) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d *MSSQLDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

func (d *MSSQLDialect) NormalizeType(sqlType string) string {
	t := strings.ToLower(sqlType)
	switch t {
	case "nvarchar", "nchar", "text", "ntext":
		return "varchar"
	case "bit":
		return "boolean"
	case "decimal", "numeric", "money", "smallmoney":
		return "decimal"
	case "float", "real":
		return "float"
	case "datetime", "datetime2", "smalldatetime", "date", "datetimeoffset":
		return "datetime"
	case "image", "binary", "varbinary":
		return "blob"
	default:
		return t
	}
}

func (d *MSSQLDialect) GetSchemaName(input string) string {
	return DefaultGetSchemaName(input)
}

func (d *MSSQLDialect) GetTableName(input string) string {
	return DefaultGetTableName(input)
}

// MaxBatchRows stays under the 2100 parameter limit of a request.
func (d *MSSQLDialect) MaxBatchRows(bindsPerRow int) int {
	return rowsWithin(2100, bindsPerRow)
}

func (d *MSSQLDialect) UsesTargetEncoding() bool {
	return false
}
