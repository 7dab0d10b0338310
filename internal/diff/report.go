package diff

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Reporter receives every Diff produced by a check. Implementations must be
// safe for concurrent use.
type Reporter interface {
	Report(d Diff)
}

// LogReporter writes diffs to a zap logger.
type LogReporter struct {
	logger *zap.Logger
}

func NewLogReporter(logger *zap.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(d Diff) {
	fields := []zap.Field{
		zap.String("table", d.Table()),
		zap.String("key", d.DisplayKey()),
	}

	switch {
	case d.Clean():
		r.logger.Debug("row matched", fields...)
	case d.Kind == Matched:
		mismatches := make([]string, len(d.Mismatches))
		for i, m := range d.Mismatches {
			mismatches[i] = m.String()
		}
		r.logger.Warn("row mismatch", append(fields, zap.Strings("mismatches", mismatches))...)
	case d.Kind == SourceOnly:
		r.logger.Error("row missing on target", append(fields, zap.Stringer("source", d.Source))...)
	case d.Kind == TargetOnly:
		r.logger.Error("row unexpected on target", append(fields, zap.Stringer("target", d.Target))...)
	}
}

// Summary counts diffs of one table.
type Summary struct {
	Matched    int
	Mismatched int
	SourceOnly int
	TargetOnly int
}

// Differences is the number of keys that did not match cleanly.
func (s Summary) Differences() int {
	return s.Mismatched + s.SourceOnly + s.TargetOnly
}

func (s *Summary) add(d Diff) {
	switch {
	case d.Clean():
		s.Matched++
	case d.Kind == Matched:
		s.Mismatched++
	case d.Kind == SourceOnly:
		s.SourceOnly++
	case d.Kind == TargetOnly:
		s.TargetOnly++
	}
}

// Collector aggregates diffs per table.
type Collector struct {
	mu     sync.Mutex
	tables map[string]*Summary
}

func NewCollector() *Collector {
	return &Collector{tables: make(map[string]*Summary)}
}

func (c *Collector) Report(d Diff) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.tables[d.Table()]
	if !ok {
		s = &Summary{}
		c.tables[d.Table()] = s
	}
	s.add(d)
}

// Summary returns the counts of one table.
func (c *Collector) Summary(table string) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.tables[table]; ok {
		return *s
	}
	return Summary{}
}

// Tables returns the reported table names, sorted.
func (c *Collector) Tables() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Total sums the counts of every table.
func (c *Collector) Total() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total Summary
	for _, s := range c.tables {
		total.Matched += s.Matched
		total.Mismatched += s.Mismatched
		total.SourceOnly += s.SourceOnly
		total.TargetOnly += s.TargetOnly
	}
	return total
}

// Tee forwards each diff to every reporter in order.
type Tee []Reporter

func (t Tee) Report(d Diff) {
	for _, r := range t {
		r.Report(d)
	}
}
