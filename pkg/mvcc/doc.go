// Package mvcc implements a reverse (and, as a mirror, forward) MVCC range
// scanner over a three-column-family key-value store: write, lock, and
// default. Given a snapshot and a read timestamp, BackwardScanner yields, in
// descending user-key order, the value each key had as of that timestamp,
// respecting transactional locks and rollback markers.
//
// The hard part is cursor coordination: three iterators advanced in
// lockstep while minimizing expensive direction reversals on an
// LSM-backed engine. See BackwardScanner for the algorithm.
package mvcc
