// Package memengine is an in-memory reference implementation of
// pkg/mvcckv.Snapshot/Cursor, used by tests, the CLI, and fixture loading.
// It keeps each column family as a slice sorted ascending by encoded key
// bytes and serves cursors as simple index-based views over a range-filtered
// slice, so the bounded-step-vs-seek behavior pkg/mvcc exercises is directly
// observable through pkg/mvcckv.Statistics counters.
package memengine
