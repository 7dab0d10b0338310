package dialect

import (
	"fmt"
	"strings"
)

// GeneratePlaceholders is a helper function to create a slice of placeholder strings.
// It takes the number of placeholders needed, the index of the first one and a function
// that returns the placeholder for a given index.
// It returns a comma-separated string of the generated placeholders.
func GeneratePlaceholders(start, count int, placeholderFunc func(int) string) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(start + i)
	}
	return strings.Join(placeholders, ", ")
}

// DefaultNormalizeType is a default implementation for type normalization (lowercase).
func DefaultNormalizeType(sqlType string) string {
	return strings.ToLower(sqlType)
}

// DefaultGetSchemaName is a default implementation for Getting Schema Name (identity).
func DefaultGetSchemaName(input string) string {
	return input
}

// DefaultGetTableName is the identity folding of table names.
func DefaultGetTableName(input string) string {
	return input
}

// rowsWithin returns how many rows of bindsPerRow values fit in maxParams.
func rowsWithin(maxParams, bindsPerRow int) int {
	if bindsPerRow <= 0 {
		bindsPerRow = 1
	}
	return max(maxParams/bindsPerRow, 1)
}

func qualifiedName(d Dialect, schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

func quoteAll(d Dialect, names []string) []string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdentifier(n)
	}
	return quoted
}

// predicateColumns returns the columns a by-key lookup filters on.
func predicateColumns(keys, cols []string) []string {
	if len(keys) > 0 {
		return keys
	}
	return cols
}

func projection(keys, cols []string) []string {
	out := make([]string, 0, len(keys)+len(cols))
	out = append(out, keys...)
	return append(out, cols...)
}

func buildSelect(d Dialect, schema, table string, cols []string) string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoteAll(d, cols), ", "), qualifiedName(d, schema, table))
}

func buildCount(d Dialect, schema, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", qualifiedName(d, schema, table))
}

// buildSelectByKey renders "col = ? AND ..." over the predicate columns.
func buildSelectByKey(d Dialect, schema, table string, keys, cols []string) string {
	preds := predicateColumns(keys, cols)
	conds := make([]string, len(preds))
	for i, c := range preds {
		conds[i] = fmt.Sprintf("%s = %s", d.QuoteIdentifier(c), d.Placeholder(i))
	}
	return fmt.Sprintf("%s WHERE %s", buildSelect(d, schema, table, projection(keys, cols)), strings.Join(conds, " AND "))
}

// buildSelectInTuples renders the row-value IN-list form: "a IN (?, ?)" for a
// single predicate column, "(a, b) IN ((?, ?), (?, ?))" otherwise. Placeholders
// are numbered so that row i, column j takes index i*len(preds)+j.
func buildSelectInTuples(d Dialect, schema, table string, keys, cols []string, n int) string {
	preds := predicateColumns(keys, cols)
	k := len(preds)
	base := buildSelect(d, schema, table, projection(keys, cols))

	if k == 1 {
		return fmt.Sprintf("%s WHERE %s IN (%s)", base, d.QuoteIdentifier(preds[0]), GeneratePlaceholders(0, n, d.Placeholder))
	}

	groups := make([]string, n)
	for i := 0; i < n; i++ {
		groups[i] = "(" + GeneratePlaceholders(i*k, k, d.Placeholder) + ")"
	}
	return fmt.Sprintf("%s WHERE (%s) IN (%s)", base, strings.Join(quoteAll(d, preds), ", "), strings.Join(groups, ", "))
}

// buildSelectOrGroups renders "(a = ? AND b = ?) OR (...)" for dialects without
// row-value IN support.
func buildSelectOrGroups(d Dialect, schema, table string, keys, cols []string, n int) string {
	preds := predicateColumns(keys, cols)
	k := len(preds)
	base := buildSelect(d, schema, table, projection(keys, cols))

	if k == 1 {
		return fmt.Sprintf("%s WHERE %s IN (%s)", base, d.QuoteIdentifier(preds[0]), GeneratePlaceholders(0, n, d.Placeholder))
	}

	groups := make([]string, n)
	for i := 0; i < n; i++ {
		conds := make([]string, k)
		for j, c := range preds {
			conds[j] = fmt.Sprintf("%s = %s", d.QuoteIdentifier(c), d.Placeholder(i*k+j))
		}
		groups[i] = "(" + strings.Join(conds, " AND ") + ")"
	}
	return fmt.Sprintf("%s WHERE %s", base, strings.Join(groups, " OR "))
}
