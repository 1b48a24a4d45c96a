// Package mvcckv defines the external collaborator interfaces a reverse
// MVCC scanner is built against: a snapshot that hands out cursors over
// named column families, a cursor positioned within one column family, and
// the statistics counters cursor operations feed.
//
// This package has no concrete storage engine. It is the seam between
// pkg/mvcc (the scanner itself) and whatever engine a caller wires in —
// internal/memengine, or a real LSM-backed store.
package mvcckv
