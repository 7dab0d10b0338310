package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"db-check/internal/errs"
	"db-check/internal/record"

	"golang.org/x/text/encoding"
)

// queryer is the part of *sql.Conn (or *sql.DB) the strategies need.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// queryByBatch fetches the target rows of all records with IN-list selects,
// split into chunks the dialect accepts in one statement.
func (s *runState) queryByBatch(ctx context.Context, q queryer, unit *SqlUnit, records []*record.Record) ([]*record.Record, error) {
	if len(records) == 0 {
		return nil, &errs.InvalidArgumentError{Msg: "do not exists data"}
	}

	k := unit.BindCount()
	limit := s.dialect.MaxBatchRows(k)

	var result []*record.Record
	for start := 0; start < len(records); start += limit {
		chunk := records[start:min(start+limit, len(records))]
		found, err := s.queryChunk(ctx, q, unit, chunk)
		if err != nil {
			return nil, err
		}
		result = append(result, found...)
	}
	return result, nil
}

func (s *runState) queryChunk(ctx context.Context, q queryer, unit *SqlUnit, records []*record.Record) ([]*record.Record, error) {
	k := unit.BindCount()
	args := make([]any, k*len(records))
	for i, r := range records {
		if err := unit.bindInto(args[k*i:k*(i+1)], r); err != nil {
			return nil, err
		}
	}

	query := unit.BatchQuery(s.dialect, len(records))
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &errs.QueryExecutionError{Msg: fmt.Sprintf("batch select on %s", unit.Table.FullName()), Err: err}
	}
	defer rows.Close()

	return s.readRows(rows, unit, records[0])
}

// queryOneByOne prepares the single-row select once and runs it per record.
func (s *runState) queryOneByOne(ctx context.Context, q queryer, unit *SqlUnit, records []*record.Record) ([]*record.Record, error) {
	stmt, err := q.PrepareContext(ctx, unit.Query)
	if err != nil {
		return nil, &errs.QueryExecutionError{Msg: fmt.Sprintf("prepare select on %s", unit.Table.FullName()), Err: err}
	}
	defer stmt.Close()

	var result []*record.Record
	args := make([]any, unit.BindCount())
	for _, r := range records {
		clear(args)
		if err := unit.bindInto(args, r); err != nil {
			return nil, err
		}

		rows, err := stmt.QueryContext(ctx, args...)
		if err != nil {
			return nil, &errs.QueryExecutionError{Msg: fmt.Sprintf("select on %s", unit.Table.FullName()), Err: err}
		}
		found, err := s.readRows(rows, unit, r)
		rows.Close()
		if err != nil {
			return nil, err
		}
		result = append(result, found...)
	}
	return result, nil
}

// readRows decodes every result row into a Record named after like, laid out
// in the unit's key and column order so keys render the same as the source.
func (s *runState) readRows(rows *sql.Rows, unit *SqlUnit, like *record.Record) ([]*record.Record, error) {
	labels, err := rows.Columns()
	if err != nil {
		return nil, &errs.QueryExecutionError{Msg: "read result columns", Err: err}
	}
	position := make(map[string]int, len(labels))
	for i, l := range labels {
		position[strings.ToUpper(l)] = i
	}

	var missing []string
	for _, name := range unit.Projection() {
		if _, ok := position[strings.ToUpper(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &errs.SchemaDriftError{Schema: like.SchemaName, Table: like.TableName, Missing: missing}
	}

	var out []*record.Record
	for rows.Next() {
		raw := make([]any, len(labels))
		ptrs := make([]any, len(labels))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &errs.QueryExecutionError{Msg: "scan target row", Err: err}
		}

		r, err := decodeRow(raw, position, unit, like, s.enc)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.QueryExecutionError{Msg: "iterate target rows", Err: err}
	}
	return out, nil
}

func decodeRow(raw []any, position map[string]int, unit *SqlUnit, like *record.Record, enc encoding.Encoding) (*record.Record, error) {
	r := record.New(like.SchemaName, like.TableName)

	add := func(name string, asKey bool) error {
		col, _ := unit.Table.Lookup(name)
		cv, err := record.Decode(raw[position[strings.ToUpper(name)]], col, enc)
		if err != nil {
			return &errs.QueryExecutionError{Msg: fmt.Sprintf("decode %s", unit.Table.FullName()), Err: err}
		}
		if asKey {
			r.PrimaryKeys = append(r.PrimaryKeys, cv)
		} else {
			r.Columns = append(r.Columns, cv)
		}
		return nil
	}

	if unit.hasKey {
		for _, name := range unit.Keys {
			if err := add(name, true); err != nil {
				return nil, err
			}
		}
	}
	for _, name := range unit.Columns {
		if err := add(name, false); err != nil {
			return nil, err
		}
	}
	return r, nil
}
