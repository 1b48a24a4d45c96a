package mvcc

import (
	"bytes"
	"fmt"

	"github.com/calvinalkan/mvccscan/pkg/mvcckv"
)

// valueLoader resolves an out-of-line Put value in the default CF using a
// near-seek strategy in either scan direction, sharing the step-then-seek
// shape of reverse_get/move_write_cursor_to_prev_user_key for the same
// direction-reversal-avoidance reason. ReverseValueLoader and ValueLoader
// are thin, direction-specific views over it.
type valueLoader struct {
	cursor mvcckv.Cursor
	stats  *mvcckv.CFStatistics
}

// nearReverseLoad locates (userKey, startTS) by stepping the cursor
// backward (descending) up to mvcckv.SeekBound times, falling back to a
// direct reverse positioning.
func (l *valueLoader) nearReverseLoad(userKey UserKey, startTS uint64) ([]byte, error) {
	target := AppendTS(userKey, startTS)

	if l.cursor.Valid() {
		for i := 0; i < mvcckv.SeekBound; i++ {
			if i > 0 {
				l.cursor.Prev(l.stats)
			}
			if !l.cursor.Valid() {
				break
			}
			key := l.cursor.Key()
			if bytes.Equal(key, target) {
				return l.decodeCurrent()
			}
			if bytes.Compare(key, target) < 0 {
				break
			}
		}
	}

	if err := l.cursor.InternalSeekForPrev(target, l.stats); err != nil {
		return nil, err
	}
	if !l.cursor.Valid() || !bytes.Equal(l.cursor.Key(), target) {
		return nil, fmt.Errorf("%w: (user_key, start_ts)=(%q, %d) not in default CF", ErrValueNotFound, userKey, startTS)
	}
	return l.decodeCurrent()
}

// nearLoad locates (userKey, startTS) by stepping the cursor forward
// (ascending) up to mvcckv.SeekBound times, falling back to a direct
// ascending positioning. Used by ForwardScanner.
func (l *valueLoader) nearLoad(userKey UserKey, startTS uint64) ([]byte, error) {
	target := AppendTS(userKey, startTS)

	if l.cursor.Valid() {
		for i := 0; i < mvcckv.SeekBound; i++ {
			if i > 0 {
				l.cursor.Next(l.stats)
			}
			if !l.cursor.Valid() {
				break
			}
			key := l.cursor.Key()
			if bytes.Equal(key, target) {
				return l.decodeCurrent()
			}
			if bytes.Compare(key, target) > 0 {
				break
			}
		}
	}

	if err := l.cursor.InternalSeek(target, l.stats); err != nil {
		return nil, err
	}
	if !l.cursor.Valid() || !bytes.Equal(l.cursor.Key(), target) {
		return nil, fmt.Errorf("%w: (user_key, start_ts)=(%q, %d) not in default CF", ErrValueNotFound, userKey, startTS)
	}
	return l.decodeCurrent()
}

func (l *valueLoader) decodeCurrent() ([]byte, error) {
	v := l.cursor.Value()
	if v == nil {
		return nil, fmt.Errorf("%w: empty default CF entry", ErrMalformedValue)
	}
	return append([]byte(nil), v...), nil
}

// ReverseValueLoader loads an out-of-line Put value from the default CF,
// given a default cursor scanning in backward mode. Fails with
// ErrValueNotFound if the target key is absent (an invariant violation) or
// ErrMalformedValue on decode error.
type ReverseValueLoader struct {
	cursor mvcckv.Cursor
	stats  *mvcckv.CFStatistics
}

// Load resolves the value written by the Put with the given start_ts for
// userKey.
func (l ReverseValueLoader) Load(userKey UserKey, startTS uint64) ([]byte, error) {
	vl := valueLoader{cursor: l.cursor, stats: l.stats}
	return vl.nearReverseLoad(userKey, startTS)
}

// ValueLoader is the forward-scan mirror of ReverseValueLoader.
type ValueLoader struct {
	cursor mvcckv.Cursor
	stats  *mvcckv.CFStatistics
}

// Load resolves the value written by the Put with the given start_ts for
// userKey, using a forward (ascending) default cursor.
func (l ValueLoader) Load(userKey UserKey, startTS uint64) ([]byte, error) {
	vl := valueLoader{cursor: l.cursor, stats: l.stats}
	return vl.nearLoad(userKey, startTS)
}
