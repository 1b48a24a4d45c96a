package mvcc

import (
	"bytes"

	"github.com/calvinalkan/mvccscan/pkg/mvcckv"
)

// ReverseSeekBound is the step budget spent searching within one user key's
// version history before falling back to a seek. Tuned independently from
// mvcckv.SeekBound, which bounds skipping past a user key's remaining
// versions; the two rarely share an optimal value because the expected
// version count per key and the expected skip count after a hit are
// different workload properties. Must be >= 16 for stepping to stay
// cheaper than a direction-reversing seek on an LSM engine.
const ReverseSeekBound = 16

// BackwardScanner yields, in descending user-key order, the value each key
// had as of the configured read timestamp, respecting locks and rollback
// markers. Build one with BackwardScannerBuilder.
//
// A BackwardScanner is owned by a single goroutine; it holds no internal
// concurrency and performs no asynchronous work. Cursor operations may
// block on engine I/O but return synchronously to the caller.
type BackwardScanner struct {
	cfg scannerConfig

	lockCursor    mvcckv.Cursor
	writeCursor   mvcckv.Cursor
	defaultCursor mvcckv.Cursor

	started bool

	stats mvcckv.Statistics
}

// TakeStatistics returns the counters accumulated so far and resets them to
// zero. Two consecutive calls with no intervening ReadNext return a zero
// Statistics on the second call.
func (s *BackwardScanner) TakeStatistics() mvcckv.Statistics {
	return s.stats.Take()
}

// ReadNext returns the next (user_key, value) pair in descending order, or
// (nil, nil, false, nil) at end of stream. An error aborts this call only;
// the scanner's cursors remain positioned and a subsequent ReadNext may
// succeed (for example after a KeyIsLocked error, the next call resumes
// at the following key).
func (s *BackwardScanner) ReadNext() ([]byte, []byte, bool, error) {
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
			s.stats.Lock.Processed++
			switch res := CheckLock(lockRec, currentUserKey, s.cfg.ts, s.cfg.isolation); res.Kind {
			case LockCheckNotLocked:
			case LockCheckLocked:
				lockErr = res.Err
			case LockCheckIgnored:
				getTS = res.EffectiveTS
			}
			s.lockCursor.Prev(&s.stats.Lock)
		}

		var (
			value          []byte
			hasValue       bool
			metPrevUserKey bool
		)
		if hasWrite {
			if lockErr == nil {
				value, hasValue, metPrevUserKey, err = s.reverseGet(currentUserKey, getTS)
				if err != nil {
					return nil, nil, false, err
				}
			}
			if !metPrevUserKey {
				if err := s.moveWriteCursorToPrevUserKey(currentUserKey); err != nil {
					return nil, nil, false, err
				}
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

func (s *BackwardScanner) ensureStarted() error {
	if s.started {
		return nil
	}
	if s.cfg.rangeBounds.Upper != nil {
		if err := s.writeCursor.ReverseSeek(s.cfg.rangeBounds.Upper, &s.stats.Write); err != nil {
			return err
		}
		if err := s.lockCursor.ReverseSeek(s.cfg.rangeBounds.Upper, &s.stats.Lock); err != nil {
			return err
		}
	} else {
		s.writeCursor.SeekToLast(&s.stats.Write)
		s.lockCursor.SeekToLast(&s.stats.Lock)
	}
	s.started = true
	return nil
}

// currentUserKey determines which user key the next iteration processes
// and which CFs contribute to it, per §4.3 step 1.
func (s *BackwardScanner) currentUserKey() (userKey []byte, hasWrite, hasLock, ok bool, err error) {
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
		case -1:
			// Scanning from largest to smallest user key: meeting the lock
			// first means its corresponding write does not exist (yet, in
			// this range).
			return NewUserKey(lockUserKey), false, true, true, nil
		case 1:
			return NewUserKey(writeUserKey), true, false, true, nil
		default:
			return NewUserKey(writeUserKey), true, true, true, nil
		}
	}
}

// reverseGet returns the value of userKey as of ts, given the write cursor
// currently points at the oldest version of userKey in scan order (§4.4).
// metPrevUserKey reports whether the cursor already moved off userKey
// entirely, in which case the caller must not call
// moveWriteCursorToPrevUserKey.
func (s *BackwardScanner) reverseGet(userKey UserKey, ts uint64) (value []byte, hasValue, metPrevUserKey bool, err error) {
	var (
		lastVersion         *WriteRecord
		lastCheckedCommitTS uint64
	)

	for i := 0; i < ReverseSeekBound; i++ {
		if i > 0 {
			s.writeCursor.Prev(&s.stats.Write)
			if !s.writeCursor.Valid() {
				v, has, err := s.handleLastVersion(lastVersion, userKey)
				return v, has, false, err
			}
		}

		key := s.writeCursor.Key()
		lastCheckedCommitTS, err = DecodeTS(key)
		if err != nil {
			return nil, false, false, err
		}

		if !UserKeyEq(key, userKey) {
			v, has, err := s.handleLastVersion(lastVersion, userKey)
			return v, has, true, err
		}
		if lastCheckedCommitTS > ts {
			v, has, err := s.handleLastVersion(lastVersion, userKey)
			return v, has, false, err
		}

		rec, err := ParseWriteRecord(s.writeCursor.Value())
		if err != nil {
			return nil, false, false, err
		}
		s.stats.Write.Processed++

		switch rec.Kind {
		case WriteKindPut, WriteKindDelete:
			r := rec
			lastVersion = &r
		case WriteKindLock, WriteKindRollback:
		}
	}

	if lastCheckedCommitTS == ts {
		v, has, err := s.handleLastVersion(lastVersion, userKey)
		return v, has, false, err
	}

	// Phase B: seek fallback. A version with commit_ts in
	// (lastCheckedCommitTS, ts] may still exist ahead in ascending order.
	seekKey := AppendTS(userKey, ts)
	if err := s.writeCursor.InternalSeek(seekKey, &s.stats.Write); err != nil {
		return nil, false, false, err
	}

	for {
		key := s.writeCursor.Key()
		currentTS, err := DecodeTS(key)
		if err != nil {
			return nil, false, false, err
		}
		if currentTS <= lastCheckedCommitTS {
			v, has, err := s.handleLastVersion(lastVersion, userKey)
			return v, has, false, err
		}

		rec, err := ParseWriteRecord(s.writeCursor.Value())
		if err != nil {
			return nil, false, false, err
		}
		s.stats.Write.Processed++

		switch rec.Kind {
		case WriteKindPut:
			v, err := s.loadValue(rec, userKey)
			return v, true, false, err
		case WriteKindDelete:
			return nil, false, false, nil
		case WriteKindLock, WriteKindRollback:
			s.writeCursor.Next(&s.stats.Write)
		}
	}
}

// handleLastVersion interprets the last recorded Put/Delete seen while
// searching: Put loads its value, Delete means no value, nil means none
// found at all.
func (s *BackwardScanner) handleLastVersion(lastVersion *WriteRecord, userKey UserKey) (value []byte, hasValue bool, err error) {
	if lastVersion == nil {
		return nil, false, nil
	}
	switch lastVersion.Kind {
	case WriteKindPut:
		v, err := s.loadValue(*lastVersion, userKey)
		return v, true, err
	case WriteKindDelete:
		return nil, false, nil
	default:
		return nil, false, nil
	}
}

// loadValue resolves a Put's value, either inline or via the default CF.
func (s *BackwardScanner) loadValue(rec WriteRecord, userKey UserKey) ([]byte, error) {
	if s.cfg.omitValue {
		return []byte{}, nil
	}
	if rec.ShortValue != nil {
		return rec.ShortValue, nil
	}
	if err := s.ensureDefaultCursor(); err != nil {
		return nil, err
	}
	loader := ReverseValueLoader{cursor: s.defaultCursor, stats: &s.stats.Default}
	return loader.Load(userKey, rec.StartTS)
}

// moveWriteCursorToPrevUserKey advances the write cursor past any
// remaining versions of currentUserKey so the next loop iteration sees a
// different user key or end of stream (§4.5).
func (s *BackwardScanner) moveWriteCursorToPrevUserKey(currentUserKey UserKey) error {
	for i := 0; i < mvcckv.SeekBound; i++ {
		if i > 0 {
			s.writeCursor.Prev(&s.stats.Write)
		}
		if !s.writeCursor.Valid() {
			return nil
		}
		if !UserKeyEq(s.writeCursor.Key(), currentUserKey) {
			return nil
		}
	}
	return s.writeCursor.InternalSeekForPrev(currentUserKey, &s.stats.Write)
}

// ensureDefaultCursor lazily builds the default CF cursor on first need,
// consuming the scanner's range bounds (they must not be referenced
// afterward).
func (s *BackwardScanner) ensureDefaultCursor() error {
	if s.defaultCursor != nil {
		return nil
	}
	rng := s.cfg.rangeBounds
	s.cfg.rangeBounds = mvcckv.Range{}
	cursor, err := s.cfg.snapshot.NewCursor(mvcckv.CFDefault, mvcckv.ScanModeBackward, rng, s.cfg.fillCache)
	if err != nil {
		return err
	}
	s.defaultCursor = cursor
	return nil
}
