package extract

import (
	"context"
	"database/sql"
	"fmt"

	"db-check/internal/dialect"
	"db-check/internal/record"
	"db-check/internal/schema"
)

// DefaultBatchSize is used when Reader.BatchSize is not positive.
const DefaultBatchSize = 100

// Reader streams the rows of a source table as record batches.
type Reader struct {
	DB        *sql.DB
	Dialect   dialect.Dialect
	BatchSize int

	// TargetSchema is stamped on the produced records so that they address
	// the table on the target side. Empty means the target default schema.
	TargetSchema string
}

// Stream reads every row of table and hands it to fn in batches. It stops at
// the first error returned by fn.
func (r *Reader) Stream(ctx context.Context, table *schema.Table, fn func([]*record.Record) error) error {
	size := r.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	cols := table.AllColumns()
	query := r.Dialect.SelectQuery(table.Schema, table.Name, table.ColumnNames())

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", table.FullName(), err)
	}
	defer rows.Close()

	batch := make([]*record.Record, 0, size)
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan %s: %w", table.FullName(), err)
		}

		rec := record.New(r.TargetSchema, table.Name)
		for i, col := range cols {
			cv, err := record.Decode(raw[i], col, nil)
			if err != nil {
				return err
			}
			if col.IsPK {
				rec.PrimaryKeys = append(rec.PrimaryKeys, cv)
			} else {
				rec.Columns = append(rec.Columns, cv)
			}
		}

		batch = append(batch, rec)
		if len(batch) == size {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]*record.Record, 0, size)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating %s: %w", table.FullName(), err)
	}

	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}
