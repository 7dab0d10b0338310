package engine

import (
	"context"
	"strings"
	"sync"

	"db-check/internal/dialect"
	"db-check/internal/errs"
	"db-check/internal/record"
	"db-check/internal/schema"

	"go.uber.org/zap"
)

// SqlUnit is the per-table query derivation shared by both strategies.
type SqlUnit struct {
	// Query is the single-row select, bound by Keys.
	Query string

	// Keys are the bind columns in bind order. With no primary key they are
	// every column.
	Keys []string

	// Columns are the projected non-key columns.
	Columns []string

	// Indexes maps an upper-cased column name to its 1-based bind position.
	Indexes map[string]int

	Schema string // schema used in generated SQL, empty for the default schema
	Name   string
	Table  *schema.Table

	hasKey bool
}

// BindCount is the number of bind values per record.
func (u *SqlUnit) BindCount() int {
	return len(u.Indexes)
}

// Projection returns the selected columns in select-list order.
func (u *SqlUnit) Projection() []string {
	if !u.hasKey {
		return u.Columns
	}
	out := make([]string, 0, len(u.Keys)+len(u.Columns))
	out = append(out, u.Keys...)
	return append(out, u.Columns...)
}

// BatchQuery renders the IN-list select for n records.
func (u *SqlUnit) BatchQuery(d dialect.Dialect, n int) string {
	if !u.hasKey {
		return d.SelectByKeyBatchQuery(u.Schema, u.Name, nil, u.Columns, n)
	}
	return d.SelectByKeyBatchQuery(u.Schema, u.Name, u.Keys, u.Columns, n)
}

// bindInto writes the bind values of r into args, which must hold BindCount
// slots. A record that does not fill every slot has drifted from the unit.
func (u *SqlUnit) bindInto(args []any, r *record.Record) error {
	values := r.PrimaryKeys
	if len(values) == 0 {
		values = r.Columns
	}

	bound := make([]bool, len(u.Indexes))
	for _, cv := range values {
		pos, ok := u.Indexes[strings.ToUpper(cv.Name())]
		if !ok {
			continue
		}
		args[pos-1] = cv.Value
		bound[pos-1] = true
	}

	var missing []string
	for _, name := range u.Keys {
		if !bound[u.Indexes[strings.ToUpper(name)]-1] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &errs.SchemaDriftError{Schema: r.SchemaName, Table: r.TableName, Missing: missing, Record: r.String()}
	}
	return nil
}

// unitCache memoizes SqlUnits per (schema, table). The first construction for
// a key is serialized by a mutex dedicated to that key.
type unitCache struct {
	schemas      *schema.Cache
	dialect      dialect.Dialect
	ignoreSchema bool
	logger       *zap.Logger

	units sync.Map // cacheKey -> *SqlUnit
	locks sync.Map // cacheKey -> *sync.Mutex
}

func newUnitCache(schemas *schema.Cache, d dialect.Dialect, ignoreSchema bool, logger *zap.Logger) *unitCache {
	return &unitCache{schemas: schemas, dialect: d, ignoreSchema: ignoreSchema, logger: logger}
}

func unitKey(schemaName, table string) string {
	return schemaName + "\x00" + table
}

// get returns the unit of schemaName.table, deriving it from the given key and
// column names on first use.
func (c *unitCache) get(ctx context.Context, schemaName, table string, pkNames, colNames []string) (*SqlUnit, error) {
	key := unitKey(schemaName, table)
	if u, ok := c.units.Load(key); ok {
		return u.(*SqlUnit), nil
	}

	l, _ := c.locks.LoadOrStore(key, &sync.Mutex{})
	mu := l.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	if u, ok := c.units.Load(key); ok {
		return u.(*SqlUnit), nil
	}

	tbl, err := c.schemas.Resolve(ctx, schemaName, table)
	if err != nil {
		return nil, err
	}

	unit, err := c.build(tbl, schemaName, table, pkNames, colNames)
	if err != nil {
		return nil, err
	}

	c.units.Store(key, unit)
	c.logger.Debug("sql unit prepared",
		zap.String("table", tbl.FullName()),
		zap.Strings("keys", unit.Keys),
		zap.String("query", unit.Query))
	return unit, nil
}

// build derives the unit and checks that the given names cover exactly the
// columns of the target table.
func (c *unitCache) build(tbl *schema.Table, schemaName, table string, pkNames, colNames []string) (*SqlUnit, error) {
	var missing []string
	covered := make(map[string]bool, len(pkNames)+len(colNames))

	resolve := func(names []string) []string {
		out := make([]string, 0, len(names))
		for _, n := range names {
			col, ok := tbl.Lookup(n)
			if !ok {
				missing = append(missing, n)
				continue
			}
			if covered[strings.ToUpper(col.Name)] {
				continue
			}
			covered[strings.ToUpper(col.Name)] = true
			out = append(out, col.Name)
		}
		return out
	}
	keys := resolve(pkNames)
	cols := resolve(colNames)

	for _, col := range tbl.AllColumns() {
		if !covered[strings.ToUpper(col.Name)] {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &errs.SchemaDriftError{Schema: schemaName, Table: table, Missing: missing}
	}

	sqlSchema := schemaName
	if c.ignoreSchema {
		sqlSchema = ""
	}

	unit := &SqlUnit{
		Columns: cols,
		Schema:  sqlSchema,
		Name:    table,
		Table:   tbl,
		hasKey:  len(keys) > 0,
	}
	if unit.hasKey {
		unit.Keys = keys
		unit.Query = c.dialect.SelectByKeyQuery(sqlSchema, table, keys, cols)
	} else {
		unit.Keys = cols
		unit.Query = c.dialect.SelectByKeyQuery(sqlSchema, table, nil, cols)
	}

	unit.Indexes = make(map[string]int, len(unit.Keys))
	for i, name := range unit.Keys {
		unit.Indexes[strings.ToUpper(name)] = i + 1
	}
	return unit, nil
}

func (c *unitCache) clear() {
	c.units.Range(func(k, _ any) bool {
		c.units.Delete(k)
		return true
	})
}
