package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"db-check/internal/dialect"
	"db-check/internal/errs"
)

// Describer produces the description of a single table.
type Describer interface {
	Describe(ctx context.Context, schema, table string) (*Table, error)
}

// Inspector describes tables through the dialect's metadata queries.
type Inspector struct {
	DB      *sql.DB
	Dialect dialect.Dialect
}

func NewInspector(db *sql.DB, d dialect.Dialect) *Inspector {
	return &Inspector{DB: db, Dialect: d}
}

// nullable binds an empty schema as NULL so the metadata query falls back
// to the connection's default schema.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Describe loads the columns and primary key of one table.
func (i *Inspector) Describe(ctx context.Context, schemaName, table string) (*Table, error) {
	target := i.Dialect.GetSchemaName(schemaName)
	name := i.Dialect.GetTableName(table)

	rows, err := i.DB.QueryContext(ctx, i.Dialect.GetColumnsQuery(), nullable(target), name)
	if err != nil {
		return nil, &errs.MetadataError{Schema: schemaName, Table: table, Err: err}
	}
	defer rows.Close()

	t := &Table{Name: table}
	var keys []*Column
	keyPos := make(map[*Column]int64)

	for rows.Next() {
		var owner, cName, dType, isNull sql.NullString
		var pos, pkPos sql.NullInt64

		if err := rows.Scan(&owner, &cName, &dType, &pos, &pkPos, &isNull); err != nil {
			return nil, &errs.MetadataError{Schema: schemaName, Table: table, Err: fmt.Errorf("failed to scan column: %w", err)}
		}
		if !cName.Valid {
			continue // Skip invalid rows
		}
		if owner.Valid {
			t.Schema = owner.String
		}

		col := &Column{
			Name:       cName.String,
			DataType:   i.Dialect.NormalizeType(dType.String),
			Position:   int(pos.Int64),
			IsNullable: isNull.String == "YES" || isNull.String == "Y",
			IsPK:       pkPos.Valid,
		}
		if col.IsPK {
			keys = append(keys, col)
			keyPos[col] = pkPos.Int64
		} else {
			t.Columns = append(t.Columns, col)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.MetadataError{Schema: schemaName, Table: table, Err: fmt.Errorf("error iterating columns: %w", err)}
	}

	if len(keys) == 0 && len(t.Columns) == 0 {
		return nil, &errs.MetadataError{Schema: schemaName, Table: table, Err: fmt.Errorf("table not found")}
	}

	sort.SliceStable(keys, func(a, b int) bool { return keyPos[keys[a]] < keyPos[keys[b]] })
	t.PrimaryKeys = keys
	return t, nil
}

// ListTables returns the base tables of a schema, or of the default schema when empty.
func (i *Inspector) ListTables(ctx context.Context, schemaName string) ([]string, error) {
	target := i.Dialect.GetSchemaName(schemaName)

	rows, err := i.DB.QueryContext(ctx, i.Dialect.GetTablesQuery(), nullable(target))
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// CountRows returns COUNT(*) of a table.
func (i *Inspector) CountRows(ctx context.Context, schemaName, table string) (int64, error) {
	var count int64
	query := i.Dialect.CountQuery(i.Dialect.GetSchemaName(schemaName), i.Dialect.GetTableName(table))
	if err := i.DB.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, &errs.QueryExecutionError{Msg: fmt.Sprintf("count %s", strings.TrimPrefix(schemaName+"."+table, ".")), Err: err}
	}
	return count, nil
}
