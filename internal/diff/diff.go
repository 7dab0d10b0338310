package diff

import (
	"strings"

	"db-check/internal/record"
)

// Kind classifies one reconciled key.
type Kind int

const (
	// Matched means the key exists on both sides.
	Matched Kind = iota
	// SourceOnly means the source record has no counterpart on the target.
	SourceOnly
	// TargetOnly means a target row was returned that no source record claimed.
	TargetOnly
)

func (k Kind) String() string {
	switch k {
	case Matched:
		return "matched"
	case SourceOnly:
		return "source_only"
	case TargetOnly:
		return "target_only"
	default:
		return "unknown"
	}
}

// Diff is the outcome for one key of a batch.
type Diff struct {
	// Kind is the classification of this key.
	Kind Kind

	// Key is the canonical key text shared by Source and Target.
	Key string

	// Source is nil for TargetOnly.
	Source *record.Record

	// Target is nil for SourceOnly.
	Target *record.Record

	// Mismatches lists the differing columns of a Matched pair, as filled by a Comparator.
	Mismatches []Mismatch
}

// Table returns the qualified table name of whichever side is present.
func (d Diff) Table() string {
	if d.Source != nil {
		return d.Source.FullName()
	}
	if d.Target != nil {
		return d.Target.FullName()
	}
	return ""
}

// DisplayKey renders Key with composite parts separated by commas.
func (d Diff) DisplayKey() string {
	return strings.ReplaceAll(d.Key, "\x00", ",")
}

// Clean reports a Matched pair without mismatches.
func (d Diff) Clean() bool {
	return d.Kind == Matched && len(d.Mismatches) == 0
}

// Compute reconciles source records against the target rows fetched for them.
//
// Target rows are indexed by Key; when two target rows share a key the later
// one wins. Each source record consumes its counterpart, so a second source
// record with an already consumed key is reported SourceOnly. Matched and
// SourceOnly diffs follow source order, then TargetOnly diffs follow target
// arrival order. Every source record and every distinct target key appears
// in exactly one Diff.
func Compute(source, target []*record.Record) []Diff {
	index := make(map[string]int, len(target))
	for i, t := range target {
		index[t.Key()] = i
	}

	diffs := make([]Diff, 0, len(source)+len(target))
	consumed := make(map[string]bool, len(target))

	for _, s := range source {
		key := s.Key()
		i, ok := index[key]
		if !ok || consumed[key] {
			diffs = append(diffs, Diff{Kind: SourceOnly, Key: key, Source: s})
			continue
		}
		consumed[key] = true
		diffs = append(diffs, Diff{Kind: Matched, Key: key, Source: s, Target: target[i]})
	}

	for i, t := range target {
		key := t.Key()
		if index[key] != i || consumed[key] {
			continue
		}
		diffs = append(diffs, Diff{Kind: TargetOnly, Key: key, Target: t})
	}
	return diffs
}

// Compare fills the Mismatches of every Matched diff using cmp.
func Compare(diffs []Diff, cmp Comparator) {
	for i := range diffs {
		if diffs[i].Kind != Matched {
			continue
		}
		diffs[i].Mismatches = cmp.Compare(diffs[i].Source, diffs[i].Target)
	}
}
