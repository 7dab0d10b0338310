package engine

import (
	"db-check/internal/errs"
	"db-check/internal/record"
)

// Batch is the records of one (schema, table) in arrival order.
type Batch struct {
	Schema  string
	Table   string
	Records []*record.Record
}

// Group partitions records by (schema, table). Batches are returned in order
// of first appearance; every record lands in exactly one batch.
func Group(records []*record.Record) ([]Batch, error) {
	type tableKey struct{ schema, table string }

	index := make(map[tableKey]int)
	var batches []Batch

	for _, r := range records {
		if r == nil || r.TableName == "" {
			return nil, &errs.InvalidArgumentError{Msg: "record without table name"}
		}
		k := tableKey{r.SchemaName, r.TableName}
		i, ok := index[k]
		if !ok {
			i = len(batches)
			index[k] = i
			batches = append(batches, Batch{Schema: r.SchemaName, Table: r.TableName})
		}
		batches[i].Records = append(batches[i].Records, r)
	}
	return batches, nil
}
