package mvcc

import "github.com/calvinalkan/mvccscan/pkg/mvcckv"

// scannerConfig is the configuration shared by BackwardScannerBuilder and
// ForwardScannerBuilder: everything but the direction of travel.
type scannerConfig struct {
	snapshot    mvcckv.Snapshot
	ts          uint64
	fillCache   bool
	omitValue   bool
	isolation   IsolationLevel
	rangeBounds mvcckv.Range
}

func newScannerConfig(snapshot mvcckv.Snapshot, ts uint64) scannerConfig {
	return scannerConfig{
		snapshot:  snapshot,
		ts:        ts,
		fillCache: true,
		isolation: SnapshotIsolation,
	}
}

// BackwardScannerBuilder constructs a BackwardScanner. The write and lock
// cursors are created eagerly on Build; the default cursor is deferred and
// inherits the same configuration. Build does not check the configuration
// itself (for example, a lower bound above the upper bound is accepted);
// only errors from the snapshot's NewCursor are returned.
type BackwardScannerBuilder struct {
	cfg scannerConfig
}

// NewBackwardScannerBuilder starts a builder reading snapshot as of ts.
// Defaults: FillCache=true, OmitValue=false, IsolationLevel=SnapshotIsolation,
// unbounded range.
func NewBackwardScannerBuilder(snapshot mvcckv.Snapshot, ts uint64) *BackwardScannerBuilder {
	return &BackwardScannerBuilder{cfg: newScannerConfig(snapshot, ts)}
}

// FillCache sets whether underlying reads populate the block cache.
func (b *BackwardScannerBuilder) FillCache(v bool) *BackwardScannerBuilder {
	b.cfg.fillCache = v
	return b
}

// OmitValue sets whether returned values are always empty, skipping
// default-CF reads entirely.
func (b *BackwardScannerBuilder) OmitValue(v bool) *BackwardScannerBuilder {
	b.cfg.omitValue = v
	return b
}

// IsolationLevel sets the isolation level used for lock checks.
func (b *BackwardScannerBuilder) IsolationLevel(v IsolationLevel) *BackwardScannerBuilder {
	b.cfg.isolation = v
	return b
}

// Range restricts the scan to the half-open interval [lower, upper). A nil
// bound is unbounded on that side.
func (b *BackwardScannerBuilder) Range(lower, upper []byte) *BackwardScannerBuilder {
	b.cfg.rangeBounds = mvcckv.Range{Lower: lower, Upper: upper}
	return b
}

// Build constructs the write and lock cursors and returns a ready
// BackwardScanner. The default cursor is built lazily on first need.
func (b *BackwardScannerBuilder) Build() (*BackwardScanner, error) {
	lockCursor, err := b.cfg.snapshot.NewCursor(mvcckv.CFLock, mvcckv.ScanModeBackward, b.cfg.rangeBounds, b.cfg.fillCache)
	if err != nil {
		return nil, err
	}
	writeCursor, err := b.cfg.snapshot.NewCursor(mvcckv.CFWrite, mvcckv.ScanModeBackward, b.cfg.rangeBounds, b.cfg.fillCache)
	if err != nil {
		return nil, err
	}
	return &BackwardScanner{
		cfg:         b.cfg,
		lockCursor:  lockCursor,
		writeCursor: writeCursor,
	}, nil
}
