package mvcckv

// Cursor is a positioned iterator over one column family of one Snapshot.
// All mutating operations take the relevant CFStatistics by reference so
// the caller's scanner accumulates counters without the cursor needing to
// know which scanner it belongs to.
//
// A Cursor is not safe for concurrent use.
type Cursor interface {
	// Valid reports whether the cursor is positioned at an entry.
	Valid() bool

	// Key returns the raw key at the current position. The returned slice
	// is only valid until the next mutating call on this cursor.
	Key() []byte

	// Value returns the raw value at the current position. The returned
	// slice is only valid until the next mutating call on this cursor.
	Value() []byte

	// Next advances to the next key in ascending order.
	Next(stats *CFStatistics)

	// Prev advances to the next key in descending order.
	Prev(stats *CFStatistics)

	// SeekToLast positions the cursor at the greatest key in range.
	SeekToLast(stats *CFStatistics)

	// SeekToFirst positions the cursor at the smallest key in range. The
	// ascending mirror of SeekToLast, used by ForwardScanner's init.
	SeekToFirst(stats *CFStatistics)

	// Seek positions the cursor at the smallest key greater than or equal
	// to key. The ascending mirror of ReverseSeek, used by
	// ForwardScanner's init when a lower bound is configured.
	Seek(key []byte, stats *CFStatistics) error

	// ReverseSeek positions the cursor at the greatest key strictly less
	// than key. It is used for initial positioning when an upper bound is
	// configured, not for stepping within reverse_get.
	ReverseSeek(key []byte, stats *CFStatistics) error

	// InternalSeek positions the cursor at the smallest key greater than
	// or equal to key, assuming the cursor is already iterating and the
	// target lies ahead in ascending order. Used by phase B of reverse_get.
	InternalSeek(key []byte, stats *CFStatistics) error

	// InternalSeekForPrev positions the cursor at the greatest key less
	// than or equal to key. Used to skip past a user key's remaining
	// versions once phase A/B stepping gives up.
	InternalSeekForPrev(key []byte, stats *CFStatistics) error
}

// Snapshot is an immutable view of all column families as of some point in
// time. It produces cursors on demand; a snapshot may be shared by multiple
// readers, each holding its own cursors.
type Snapshot interface {
	// NewCursor builds a cursor over the named column family, scoped to
	// rng, optimized for the given scan mode. fillCache controls whether
	// reads populate the engine's block cache.
	NewCursor(cf string, mode ScanMode, rng Range, fillCache bool) (Cursor, error)
}
