package engine

import (
	"context"
	"fmt"
)

// Counter returns COUNT(*) of a table. schema.Inspector implements it.
type Counter interface {
	CountRows(ctx context.Context, schemaName, table string) (int64, error)
}

// CountResult is the row count comparison of one table.
type CountResult struct {
	TableName string
	Source    int64
	Target    int64
	Status    string
	ErrorMsg  string
}

// OK reports equal counts on both sides.
func (r CountResult) OK() bool {
	return r.Status == "OK"
}

// VerifyCounts compares the row counts of each table on source and target.
// Count failures are reported in the result, not returned.
func VerifyCounts(ctx context.Context, source, target Counter, sourceSchema, targetSchema string, tables []string) []CountResult {
	var results []CountResult
	for _, table := range tables {
		res := CountResult{TableName: table}

		var err error
		if res.Source, err = source.CountRows(ctx, sourceSchema, table); err != nil {
			res.Status = "SOURCE_FAIL"
			res.ErrorMsg = err.Error()
		} else if res.Target, err = target.CountRows(ctx, targetSchema, table); err != nil {
			res.Status = "TARGET_FAIL"
			res.ErrorMsg = err.Error()
		} else if res.Source != res.Target {
			res.Status = fmt.Sprintf("COUNT_DIFF: %d/%d", res.Target, res.Source)
		} else {
			res.Status = "OK"
		}
		results = append(results, res)
	}
	return results
}
