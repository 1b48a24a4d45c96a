// Package model provides a deliberately simple, non-cursor-based oracle of
// a key's visible value at a given read timestamp.
//
// It is intentionally easy to audit: given the full write history (and
// optional lock) of one user key, it answers the same question
// BackwardScanner/ForwardScanner answer via bounded stepping and seek
// fallback, but by sorting and scanning a slice directly. Tests in
// pkg/mvcc cross-check scanner output against this oracle across
// randomized histories.
package model

import (
	"sort"

	"github.com/calvinalkan/mvccscan/pkg/mvcc"
)

// Write is one committed (or rolled back, or lock-marker) version of a key.
type Write struct {
	CommitTS uint64
	Kind     mvcc.WriteKind
	StartTS  uint64
	// Value is the value a Put record carries. Ignored for other kinds.
	Value []byte
}

// Lock is the at-most-one outstanding lock on a key.
type Lock struct {
	StartTS uint64
	Primary []byte
}

// KeyHistory is everything known about one user key: its write CF versions
// and its lock CF entry, if any.
type KeyHistory struct {
	Writes []Write
	Lock   *Lock
}

// VisibleValue computes the value a read at ts under isolation would see
// for this key: the value (if any) of the newest write whose CommitTS is
// <= the effective read timestamp, skipping Lock and Rollback records,
// after resolving the key's lock (if present) against ts.
//
// This mirrors BackwardScanner.ReadNext's per-key resolution (lock check,
// then walk from newest commit_ts down until a Put or Delete is found)
// without any of the cursor bookkeeping.
func VisibleValue(h KeyHistory, userKey []byte, ts uint64, isolation mvcc.IsolationLevel) (value []byte, hasValue bool, err error) {
	effectiveTS := ts

	if h.Lock != nil {
		result := mvcc.CheckLock(mvcc.LockRecord{StartTS: h.Lock.StartTS, Primary: h.Lock.Primary}, userKey, ts, isolation)
		switch result.Kind {
		case mvcc.LockCheckLocked:
			return nil, false, result.Err
		case mvcc.LockCheckIgnored:
			effectiveTS = result.EffectiveTS
		}
	}

	sorted := make([]Write, len(h.Writes))
	copy(sorted, h.Writes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CommitTS > sorted[j].CommitTS })

	for _, w := range sorted {
		if w.CommitTS > effectiveTS {
			continue
		}

		switch w.Kind {
		case mvcc.WriteKindPut:
			return w.Value, true, nil
		case mvcc.WriteKindDelete:
			return nil, false, nil
		case mvcc.WriteKindLock, mvcc.WriteKindRollback:
			continue
		}
	}

	return nil, false, nil
}
