package mvcc

import (
	"bytes"

	"github.com/calvinalkan/mvccscan/pkg/mvcckv"
)

// ForwardScannerBuilder mirrors BackwardScannerBuilder for ascending scans.
// Not independently specified the way BackwardScanner is: it exists to
// give Builder and Statistics a second, symmetric consumer, reusing
// KeyCodec/WriteRecord/LockCheck/ValueLoader rather than adding new
// invariants.
type ForwardScannerBuilder struct {
	cfg scannerConfig
}

// NewForwardScannerBuilder starts a builder reading snapshot as of ts.
func NewForwardScannerBuilder(snapshot mvcckv.Snapshot, ts uint64) *ForwardScannerBuilder {
	return &ForwardScannerBuilder{cfg: newScannerConfig(snapshot, ts)}
}

func (b *ForwardScannerBuilder) FillCache(v bool) *ForwardScannerBuilder {
	b.cfg.fillCache = v
	return b
}

func (b *ForwardScannerBuilder) OmitValue(v bool) *ForwardScannerBuilder {
	b.cfg.omitValue = v
	return b
}

func (b *ForwardScannerBuilder) IsolationLevel(v IsolationLevel) *ForwardScannerBuilder {
	b.cfg.isolation = v
	return b
}

func (b *ForwardScannerBuilder) Range(lower, upper []byte) *ForwardScannerBuilder {
	b.cfg.rangeBounds = mvcckv.Range{Lower: lower, Upper: upper}
	return b
}

// Build constructs the write and lock cursors eagerly, in forward scan
// mode.
func (b *ForwardScannerBuilder) Build() (*ForwardScanner, error) {
	lockCursor, err := b.cfg.snapshot.NewCursor(mvcckv.CFLock, mvcckv.ScanModeForward, b.cfg.rangeBounds, b.cfg.fillCache)
	if err != nil {
		return nil, err
	}
	writeCursor, err := b.cfg.snapshot.NewCursor(mvcckv.CFWrite, mvcckv.ScanModeForward, b.cfg.rangeBounds, b.cfg.fillCache)
	if err != nil {
		return nil, err
	}
	return &ForwardScanner{
		cfg:         b.cfg,
		lockCursor:  lockCursor,
		writeCursor: writeCursor,
	}, nil
}

// ForwardScanner is the ascending mirror of BackwardScanner: it co-advances
// write and lock cursors with next() instead of prev(). Within one user key,
// ascending write-CF order runs from the newest commit_ts to the oldest, so
// the first Put/Delete at or below ts is the visible version and a single
// forward walk per key suffices; no bounded-step/seek hybrid is used.
type ForwardScanner struct {
	cfg scannerConfig

	lockCursor    mvcckv.Cursor
	writeCursor   mvcckv.Cursor
	defaultCursor mvcckv.Cursor

	started bool

	stats mvcckv.Statistics
}

// TakeStatistics returns and resets the accumulated counters.
func (s *ForwardScanner) TakeStatistics() mvcckv.Statistics {
	return s.stats.Take()
}

// ReadNext returns the next (user_key, value) pair in ascending order.
func (s *ForwardScanner) ReadNext() ([]byte, []byte, bool, error) {
	if err := s.ensureStarted(); err != nil {
		return nil, nil, false, err
	}

	for {
		currentUserKey, hasWrite, hasLock, ok, err := s.currentUserKey()
		if err != nil {
			return nil, nil, false, err
		}
		if !ok {
			return nil, nil, false, nil
		}

		var lockErr error
		getTS := s.cfg.ts

		if hasLock {
			lockRec, err := ParseLockRecord(s.lockCursor.Value())
			if err != nil {
				return nil, nil, false, err
			}
			switch res := CheckLock(lockRec, currentUserKey, s.cfg.ts, s.cfg.isolation); res.Kind {
			case LockCheckNotLocked:
			case LockCheckLocked:
				lockErr = res.Err
			case LockCheckIgnored:
				getTS = res.EffectiveTS
			}
			s.lockCursor.Next(&s.stats.Lock)
		}

		var (
			value    []byte
			hasValue bool
		)
		if hasWrite {
			if lockErr == nil {
				value, hasValue, err = s.forwardGet(currentUserKey, getTS)
				if err != nil {
					return nil, nil, false, err
				}
			}
			if err := s.moveWriteCursorToNextUserKey(currentUserKey); err != nil {
				return nil, nil, false, err
			}
		}

		if lockErr != nil {
			return nil, nil, false, lockErr
		}
		if hasValue {
			return currentUserKey, value, true, nil
		}
	}
}

func (s *ForwardScanner) ensureStarted() error {
	if s.started {
		return nil
	}
	if s.cfg.rangeBounds.Lower != nil {
		if err := s.writeCursor.Seek(s.cfg.rangeBounds.Lower, &s.stats.Write); err != nil {
			return err
		}
		if err := s.lockCursor.Seek(s.cfg.rangeBounds.Lower, &s.stats.Lock); err != nil {
			return err
		}
	} else {
		s.writeCursor.SeekToFirst(&s.stats.Write)
		s.lockCursor.SeekToFirst(&s.stats.Lock)
	}
	s.started = true
	return nil
}

func (s *ForwardScanner) currentUserKey() (userKey []byte, hasWrite, hasLock, ok bool, err error) {
	var writeUserKey UserKey
	writeValid := s.writeCursor.Valid()
	if writeValid {
		writeUserKey, err = TruncateTS(s.writeCursor.Key())
		if err != nil {
			return nil, false, false, false, err
		}
	}
	lockValid := s.lockCursor.Valid()
	var lockUserKey []byte
	if lockValid {
		lockUserKey = s.lockCursor.Key()
	}

	switch {
	case !writeValid && !lockValid:
		return nil, false, false, false, nil
	case !writeValid:
		return NewUserKey(lockUserKey), false, true, true, nil
	case !lockValid:
		return NewUserKey(writeUserKey), true, false, true, nil
	default:
		switch bytes.Compare([]byte(writeUserKey), lockUserKey) {
		case 1:
			// Ascending scan: meeting the lock first means its write does
			// not yet exist in this range.
			return NewUserKey(lockUserKey), false, true, true, nil
		case -1:
			return NewUserKey(writeUserKey), true, false, true, nil
		default:
			return NewUserKey(writeUserKey), true, true, true, nil
		}
	}
}

// forwardGet walks the write cursor ascending (newest commit_ts to
// oldest, within one user key) until it finds the first committed Put/
// Delete with commit_ts <= ts, skipping Lock/Rollback. The write cursor
// must be positioned at the newest version of userKey on entry.
func (s *ForwardScanner) forwardGet(userKey UserKey, ts uint64) (value []byte, hasValue bool, err error) {
	for {
		key := s.writeCursor.Key()
		if !UserKeyEq(key, userKey) {
			return nil, false, nil
		}
		commitTS, err := DecodeTS(key)
		if err != nil {
			return nil, false, err
		}
		if commitTS <= ts {
			rec, err := ParseWriteRecord(s.writeCursor.Value())
			if err != nil {
				return nil, false, err
			}
			s.stats.Write.Processed++
			switch rec.Kind {
			case WriteKindPut:
				if s.cfg.omitValue {
					return []byte{}, true, nil
				}
				if rec.ShortValue != nil {
					return rec.ShortValue, true, nil
				}
				if err := s.ensureDefaultCursor(); err != nil {
					return nil, false, err
				}
				loader := ValueLoader{cursor: s.defaultCursor, stats: &s.stats.Default}
				v, err := loader.Load(userKey, rec.StartTS)
				return v, true, err
			case WriteKindDelete:
				return nil, false, nil
			case WriteKindLock, WriteKindRollback:
			}
		}
		s.writeCursor.Next(&s.stats.Write)
		if !s.writeCursor.Valid() {
			return nil, false, nil
		}
	}
}

func (s *ForwardScanner) moveWriteCursorToNextUserKey(currentUserKey UserKey) error {
	for {
		if !s.writeCursor.Valid() {
			return nil
		}
		if !UserKeyEq(s.writeCursor.Key(), currentUserKey) {
			return nil
		}
		s.writeCursor.Next(&s.stats.Write)
	}
}

func (s *ForwardScanner) ensureDefaultCursor() error {
	if s.defaultCursor != nil {
		return nil
	}
	rng := s.cfg.rangeBounds
	s.cfg.rangeBounds = mvcckv.Range{}
	cursor, err := s.cfg.snapshot.NewCursor(mvcckv.CFDefault, mvcckv.ScanModeForward, rng, s.cfg.fillCache)
	if err != nil {
		return err
	}
	s.defaultCursor = cursor
	return nil
}
