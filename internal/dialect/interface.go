package dialect

// Dialect abstracts database-specific operations.
type Dialect interface {
	Name() string

	// Metadata Queries (Schema Introspection)
	// Schema arguments are bound as nullable values; NULL selects the
	// connection's default schema.
	GetTablesQuery() string
	GetColumnsQuery() string

	// Query Generation
	SelectQuery(schema, table string, cols []string) string
	CountQuery(schema, table string) string
	// SelectByKeyQuery projects keys then cols and filters on keys, or on cols
	// when the table has no key.
	SelectByKeyQuery(schema, table string, keys, cols []string) string
	// SelectByKeyBatchQuery is the IN-list form of SelectByKeyQuery for n rows.
	SelectByKeyBatchQuery(schema, table string, keys, cols []string, n int) string
	// MaxBatchRows caps n of SelectByKeyBatchQuery for rows binding
	// bindsPerRow values each.
	MaxBatchRows(bindsPerRow int) int
	QuoteIdentifier(name string) string
	Placeholder(index int) string // Returns ?, $1, @p1, :1 etc.

	// Helpers
	NormalizeType(sqlType string) string
	GetSchemaName(input string) string
	// GetTableName folds a table name the way the data dictionary stores it.
	GetTableName(input string) string
	// UsesTargetEncoding reports whether text values read from this dialect
	// honor a configured target encoding override.
	UsesTargetEncoding() bool
}
