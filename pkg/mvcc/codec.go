package mvcc

import (
	"encoding/binary"
	"fmt"
)

// tsLen is the width of the encoded commit_ts suffix.
const tsLen = 8

// UserKey is the user-key prefix of a composite key, built with spare
// trailing capacity (cap == len+tsLen) so AppendTS can extend it without
// reallocating, mirroring a reserve-then-extend on a growable buffer.
type UserKey []byte

// NewUserKey copies raw into a freshly allocated UserKey with tsLen bytes
// of reserved trailing capacity.
func NewUserKey(raw []byte) UserKey {
	buf := make([]byte, len(raw), len(raw)+tsLen)
	copy(buf, raw)
	return UserKey(buf)
}

// Encode builds the composite key for (userKey, commitTS): the raw user-key
// bytes followed by a big-endian, bitwise-complemented commit_ts. Because
// complementing reverses numeric order, ascending byte order of the result
// sorts first by user key ascending, then by commit_ts descending.
func Encode(userKey []byte, commitTS uint64) []byte {
	out := make([]byte, len(userKey)+tsLen)
	copy(out, userKey)
	binary.BigEndian.PutUint64(out[len(userKey):], ^commitTS)
	return out
}

// AppendTS appends the encoded suffix for ts to userKey, reusing the
// reserved trailing capacity when present (no reallocation for a UserKey
// produced by TruncateTS or NewUserKey).
func AppendTS(userKey UserKey, ts uint64) []byte {
	out := append([]byte(userKey), make([]byte, tsLen)...)
	binary.BigEndian.PutUint64(out[len(userKey):], ^ts)
	return out
}

// DecodeTS reads the trailing commit_ts suffix of a composite key.
func DecodeTS(composite []byte) (uint64, error) {
	if len(composite) < tsLen {
		return 0, fmt.Errorf("%w: key length %d < %d", ErrMalformedKey, len(composite), tsLen)
	}
	suffix := composite[len(composite)-tsLen:]
	return ^binary.BigEndian.Uint64(suffix), nil
}

// TruncateTS returns the user-key prefix of composite, as a UserKey with
// tsLen bytes of reserved trailing capacity for later allocation-free
// AppendTS calls.
func TruncateTS(composite []byte) (UserKey, error) {
	if len(composite) < tsLen {
		return nil, fmt.Errorf("%w: key length %d < %d", ErrMalformedKey, len(composite), tsLen)
	}
	prefixLen := len(composite) - tsLen
	buf := make([]byte, prefixLen, prefixLen+tsLen)
	copy(buf, composite[:prefixLen])
	return UserKey(buf), nil
}

// UserKeyEq reports whether composite's user-key prefix equals
// userKeyEncoded, without allocating.
func UserKeyEq(composite []byte, userKeyEncoded []byte) bool {
	if len(composite) < tsLen {
		return false
	}
	prefix := composite[:len(composite)-tsLen]
	if len(prefix) != len(userKeyEncoded) {
		return false
	}
	for i := range prefix {
		if prefix[i] != userKeyEncoded[i] {
			return false
		}
	}
	return true
}
