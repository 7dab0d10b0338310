package schema

import (
	"context"
	"errors"
	"sync"

	"db-check/internal/errs"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes table descriptions for the lifetime of a check run.
// Concurrent first lookups of the same table share one Describe call and
// receive the same *Table.
type Cache struct {
	describer    Describer
	ignoreSchema bool

	mu     sync.RWMutex
	tables map[string]*Table
	sf     singleflight.Group
}

// NewCache creates a cache in front of describer. With ignoreSchema the
// describer is asked for the table in the target's default schema.
func NewCache(describer Describer, ignoreSchema bool) *Cache {
	return &Cache{
		describer:    describer,
		ignoreSchema: ignoreSchema,
		tables:       make(map[string]*Table),
	}
}

// cacheKey joins schema and table with a separator that cannot appear in
// an identifier.
func cacheKey(schema, table string) string {
	return schema + "\x00" + table
}

// Resolve returns the description of schema.table, describing it on first use.
// Failures are returned as *errs.MetadataError and are not cached.
func (c *Cache) Resolve(ctx context.Context, schemaName, table string) (*Table, error) {
	key := cacheKey(schemaName, table)

	// Fast path
	c.mu.RLock()
	t, ok := c.tables[key]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Double-check after acquiring the flight
		c.mu.RLock()
		t, ok := c.tables[key]
		c.mu.RUnlock()
		if ok {
			return t, nil
		}

		lookup := schemaName
		if c.ignoreSchema {
			lookup = ""
		}
		// The flight is shared: one caller giving up must not fail the others.
		t, err := c.describer.Describe(context.WithoutCancel(ctx), lookup, table)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.tables[key] = t
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		var me *errs.MetadataError
		if errors.As(err, &me) {
			return nil, err
		}
		return nil, &errs.MetadataError{Schema: schemaName, Table: table, Err: err}
	}
	return v.(*Table), nil
}

// Len reports how many tables are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

// Clear drops every cached description.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.tables = make(map[string]*Table)
	c.mu.Unlock()
}
