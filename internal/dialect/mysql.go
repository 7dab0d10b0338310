package dialect

import (
	"strings"
)

type MysqlDialect struct{}

func (d *MysqlDialect) Name() string {
	return "mysql"
}

func (d *MysqlDialect) GetTablesQuery() string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = COALESCE(?, DATABASE()) AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`
}

func (d *MysqlDialect) GetColumnsQuery() string {
	// Primary key membership comes from the PRIMARY constraint so that the
	// key order follows the index definition, not the column order.
	return `
SELECT
    c.TABLE_SCHEMA,
    c.COLUMN_NAME,
    c.DATA_TYPE,
    c.ORDINAL_POSITION,
    k.ORDINAL_POSITION,
    c.IS_NULLABLE
FROM information_schema.COLUMNS c
LEFT JOIN information_schema.KEY_COLUMN_USAGE k
    ON k.TABLE_SCHEMA = c.TABLE_SCHEMA
    AND k.TABLE_NAME = c.TABLE_NAME
    AND k.COLUMN_NAME = c.COLUMN_NAME
    AND k.CONSTRAINT_NAME = 'PRIMARY'
WHERE c.TABLE_SCHEMA = COALESCE(?, DATABASE()) AND c.TABLE_NAME = ?
ORDER BY c.ORDINAL_POSITION`
}

func (d *MysqlDialect) SelectQuery(schema, table string, cols []string) string {
	return buildSelect(d, schema, table, cols)
}

func (d *MysqlDialect) CountQuery(schema, table string) string {
	return buildCount(d, schema, table)
}

func (d *MysqlDialect) SelectByKeyQuery(schema, table string, keys, cols []string) string {
	return buildSelectByKey(d, schema, table, keys, cols)
}

func (d *MysqlDialect) SelectByKeyBatchQuery(schema, table string, keys, cols []string, n int) string {
	return buildSelectInTuples(d, schema, table, keys, cols, n)
}

func (d *MysqlDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *MysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *MysqlDialect) NormalizeType(sqlType string) string {
	return DefaultNormalizeType(sqlType)
}

func (d *MysqlDialect) GetSchemaName(input string) string {
	return DefaultGetSchemaName(input)
}

func (d *MysqlDialect) GetTableName(input string) string {
	return DefaultGetTableName(input)
}

func (d *MysqlDialect) MaxBatchRows(bindsPerRow int) int {
	return rowsWithin(65535, bindsPerRow)
}

func (d *MysqlDialect) UsesTargetEncoding() bool {
	return false
}
