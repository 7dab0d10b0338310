package diff

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"db-check/internal/record"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Mismatch describes one differing column of a Matched pair.
type Mismatch struct {
	Column  string
	Source  any
	Target  any
	Missing bool // the column is absent from the target row
}

func (m Mismatch) String() string {
	if m.Missing {
		return fmt.Sprintf("%s: missing on target", m.Column)
	}
	return fmt.Sprintf("%s: source=%s target=%s", m.Column, render(m.Source), render(m.Target))
}

func render(v any) string {
	if v == nil {
		return "NULL"
	}
	return record.Text(v)
}

// Comparator compares the fields of a source record with its target row.
type Comparator interface {
	Compare(source, target *record.Record) []Mismatch
}

// ComparatorFunc adapts a function to Comparator.
type ComparatorFunc func(source, target *record.Record) []Mismatch

func (f ComparatorFunc) Compare(source, target *record.Record) []Mismatch {
	return f(source, target)
}

// FieldComparator compares every source column with the target column of the
// same name. Ignore lists column names to skip.
type FieldComparator struct {
	Ignore []string
}

func (c FieldComparator) ignored(name string) bool {
	for _, n := range c.Ignore {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func (c FieldComparator) Compare(source, target *record.Record) []Mismatch {
	var out []Mismatch
	for _, s := range source.All() {
		name := s.Name()
		if c.ignored(name) {
			continue
		}
		t, ok := target.Get(name)
		if !ok {
			out = append(out, Mismatch{Column: name, Source: s.Value, Missing: true})
			continue
		}
		if !Equal(s.Value, t.Value) {
			out = append(out, Mismatch{Column: name, Source: s.Value, Target: t.Value})
		}
	}
	return out
}

// Equal compares two decoded values. Numbers compare by value regardless of
// their Go type, times by instant, byte slices bytewise, everything else by
// canonical text.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if ab, ok := a.([]byte); ok {
		if bb, ok := b.([]byte); ok {
			return bytes.Equal(ab, bb)
		}
	}

	if at, ok := a.(time.Time); ok {
		if bt, err := cast.ToTimeE(b); err == nil {
			return at.Equal(bt)
		}
	} else if bt, ok := b.(time.Time); ok {
		if at, err := cast.ToTimeE(a); err == nil {
			return at.Equal(bt)
		}
	}

	if isNumeric(a) || isNumeric(b) {
		ad, aerr := asDecimal(a)
		bd, berr := asDecimal(b)
		if aerr == nil && berr == nil {
			return ad.Equal(bd)
		}
	}

	if ab, ok := a.(bool); ok {
		if bb, err := cast.ToBoolE(b); err == nil {
			return ab == bb
		}
	} else if bb, ok := b.(bool); ok {
		if ab, err := cast.ToBoolE(a); err == nil {
			return ab == bb
		}
	}

	return record.Text(a) == record.Text(b)
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, decimal.Decimal:
		return true
	}
	return false
}

func asDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case float32:
		return decimal.NewFromFloat32(t), nil
	}
	return decimal.NewFromString(strings.TrimSpace(record.Text(v)))
}
