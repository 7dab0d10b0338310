package dialect

import (
	"fmt"
	"strings"
)

type OracleDialect struct{}

func (d *OracleDialect) Name() string {
	return "oracle"
}

func (d *OracleDialect) GetTablesQuery() string {
	// ALL_TABLES filtered by owner; a NULL schema falls back to the session user.
	return `SELECT TABLE_NAME FROM ALL_TABLES WHERE OWNER = NVL(:1, USER) ORDER BY TABLE_NAME`
}

func (d *OracleDialect) GetColumnsQuery() string {
	// NUMBER without scale information may still hold fractions, so only an
	// explicit zero scale is reported as INTEGER.
	return `
SELECT
    t.OWNER,
    t.COLUMN_NAME,
    CASE
        WHEN t.DATA_TYPE = 'NUMBER' AND t.DATA_SCALE = 0 THEN 'INTEGER'
        WHEN t.DATA_TYPE = 'NUMBER' THEN 'DECIMAL'
        ELSE t.DATA_TYPE
    END,
    t.COLUMN_ID,
    p.POSITION,
    t.NULLABLE
FROM ALL_TAB_COLUMNS t
LEFT JOIN (
    SELECT cc.OWNER, cc.TABLE_NAME, cc.COLUMN_NAME, cc.POSITION
    FROM ALL_CONS_COLUMNS cc
    JOIN ALL_CONSTRAINTS ac ON cc.OWNER = ac.OWNER AND cc.CONSTRAINT_NAME = ac.CONSTRAINT_NAME
    WHERE ac.CONSTRAINT_TYPE = 'P'
) p ON t.OWNER = p.OWNER AND t.TABLE_NAME = p.TABLE_NAME AND t.COLUMN_NAME = p.COLUMN_NAME
WHERE t.OWNER = NVL(:1, USER) AND t.TABLE_NAME = :2
ORDER BY t.COLUMN_ID`
}

func (d *OracleDialect) SelectQuery(schema, table string, cols []string) string {
	return buildSelect(d, schema, table, cols)
}

func (d *OracleDialect) CountQuery(schema, table string) string {
	return buildCount(d, schema, table)
}

func (d *OracleDialect) SelectByKeyQuery(schema, table string, keys, cols []string) string {
	return buildSelectByKey(d, schema, table, keys, cols)
}

func (d *OracleDialect) SelectByKeyBatchQuery(schema, table string, keys, cols []string, n int) string {
	return buildSelectInTuples(d, schema, table, keys, cols, n)
}

// QuoteIdentifier leaves names bare: quoting would make them case sensitive
// while the dictionary stores them upper case.
func (d *OracleDialect) QuoteIdentifier(name string) string {
	return name
}

func (d *OracleDialect) Placeholder(index int) string {
	// Oracle uses :1, :2, etc. (1-based index)
	return fmt.Sprintf(":%d", index+1)
}

func (d *OracleDialect) NormalizeType(sqlType string) string {
	s := strings.ToLower(sqlType)
	switch {
	case s == "integer" || s == "decimal":
		return s
	case strings.Contains(s, "char") || strings.Contains(s, "clob"):
		return "varchar"
	case strings.Contains(s, "float") || strings.Contains(s, "binary_double"):
		return "float"
	case strings.Contains(s, "date") || strings.Contains(s, "timestamp"):
		return "datetime"
	case strings.Contains(s, "raw") || strings.Contains(s, "blob"):
		return "blob"
	}
	return s
}

func (d *OracleDialect) GetSchemaName(input string) string {
	return strings.ToUpper(input)
}

func (d *OracleDialect) GetTableName(input string) string {
	return strings.ToUpper(input)
}

// MaxBatchRows stays under the 1000 expression limit of an IN list (ORA-01795).
func (d *OracleDialect) MaxBatchRows(bindsPerRow int) int {
	return 1000
}

func (d *OracleDialect) UsesTargetEncoding() bool {
	return true
}
