package engine

import (
	"context"
	"database/sql"
	"sync"

	"db-check/internal/dialect"
	"db-check/internal/diff"
	"db-check/internal/errs"
	"db-check/internal/record"
	"db-check/internal/schema"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
)

// Options configures a Checker.
type Options struct {
	// BatchApply selects the IN-list strategy; otherwise rows are fetched one by one.
	BatchApply bool

	// IgnoreSchema describes and queries target tables in the default schema.
	IgnoreSchema bool

	// TargetEncoding overrides the charset of target text values (Oracle only).
	TargetEncoding string

	// Concurrency bounds how many table groups of one Apply run at once.
	Concurrency int

	// Dialect overrides detection from the driver.
	Dialect dialect.Dialect

	// Describer overrides the metadata inspector.
	Describer schema.Describer
}

// Checker verifies migrated records against the target database.
type Checker struct {
	db         *sql.DB
	opts       Options
	comparator diff.Comparator
	reporter   diff.Reporter
	logger     *zap.Logger

	mu      sync.RWMutex
	run     *runState
	schemas *schema.Cache
}

// runState is what Start prepares for Apply.
type runState struct {
	dialect dialect.Dialect
	enc     encoding.Encoding
	units   *unitCache
}

func New(db *sql.DB, opts Options, comparator diff.Comparator, reporter diff.Reporter, logger *zap.Logger) *Checker {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		db:         db,
		opts:       opts,
		comparator: comparator,
		reporter:   reporter,
		logger:     logger,
	}
}

// Start selects the dialect and creates the caches. It must precede Apply.
func (c *Checker) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.opts.Dialect
	if d == nil {
		var err error
		if d, err = dialect.Detect(c.db); err != nil {
			return &errs.InvalidArgumentError{Msg: err.Error()}
		}
	}

	var enc encoding.Encoding
	if c.opts.TargetEncoding != "" {
		if d.UsesTargetEncoding() {
			var err error
			if enc, err = record.LookupEncoding(c.opts.TargetEncoding); err != nil {
				return &errs.InvalidArgumentError{Msg: err.Error()}
			}
		} else {
			c.logger.Warn("target encoding ignored for dialect",
				zap.String("dialect", d.Name()),
				zap.String("encoding", c.opts.TargetEncoding))
		}
	}

	describer := c.opts.Describer
	if describer == nil {
		describer = schema.NewInspector(c.db, d)
	}

	c.schemas = schema.NewCache(describer, c.opts.IgnoreSchema)
	c.run = &runState{
		dialect: d,
		enc:     enc,
		units:   newUnitCache(c.schemas, d, c.opts.IgnoreSchema, c.logger),
	}

	c.logger.Info("checker started",
		zap.String("dialect", d.Name()),
		zap.Bool("batch_apply", c.opts.BatchApply),
		zap.Bool("ignore_schema", c.opts.IgnoreSchema),
		zap.Int("concurrency", c.opts.Concurrency))
	return nil
}

// Apply verifies records against the target. Records are grouped per table;
// each group runs on its own connection. The first failing group cancels the
// rest and its error is returned.
func (c *Checker) Apply(ctx context.Context, records []*record.Record) error {
	if len(records) == 0 {
		return nil
	}

	c.mu.RLock()
	run := c.run
	c.mu.RUnlock()
	if run == nil {
		return &errs.InvalidArgumentError{Msg: "checker is not started"}
	}

	batches, err := Group(records)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for _, b := range batches {
		g.Go(func() error {
			return c.applyBatch(gctx, run, b)
		})
	}
	return g.Wait()
}

func (c *Checker) applyBatch(ctx context.Context, run *runState, b Batch) error {
	first := b.Records[0]
	unit, err := run.units.get(ctx, b.Schema, b.Table, first.PrimaryKeyNames(), first.ColumnNames())
	if err != nil {
		return err
	}

	conn, err := c.db.Conn(ctx)
	if err != nil {
		return &errs.QueryExecutionError{Msg: "borrow connection", Err: err}
	}
	defer conn.Close()

	var target []*record.Record
	if c.opts.BatchApply {
		target, err = run.queryByBatch(ctx, conn, unit, b.Records)
	} else {
		target, err = run.queryOneByOne(ctx, conn, unit, b.Records)
	}
	if err != nil {
		return err
	}

	diffs := diff.Compute(b.Records, target)
	if c.comparator != nil {
		diff.Compare(diffs, c.comparator)
	}
	if c.reporter != nil {
		for _, d := range diffs {
			c.reporter.Report(d)
		}
	}

	c.logger.Debug("batch checked",
		zap.String("table", unit.Table.FullName()),
		zap.Int("records", len(b.Records)),
		zap.Int("target_rows", len(target)))
	return nil
}

// Stop drops the caches. The checker can be started again.
func (c *Checker) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run != nil {
		c.run.units.clear()
	}
	if c.schemas != nil {
		c.schemas.Clear()
	}
	c.run = nil
	c.logger.Info("checker stopped")
}

// Dialect returns the dialect chosen by Start.
func (c *Checker) Dialect() dialect.Dialect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.run == nil {
		return nil
	}
	return c.run.dialect
}
