package mvcc

import "errors"

// Error classification. Callers MUST classify with errors.Is; callers MAY
// wrap these with additional context (see ErrKeyIsLocked).
var (
	// ErrMalformedKey indicates a composite key is shorter than the 8-byte
	// timestamp suffix, or its user-key encoding is otherwise invalid.
	ErrMalformedKey = errors.New("mvcc: malformed key")

	// ErrMalformedWrite indicates a write CF value could not be decoded,
	// typically an unknown write kind tag.
	ErrMalformedWrite = errors.New("mvcc: malformed write record")

	// ErrMalformedValue indicates a default CF value could not be decoded
	// at the expected location.
	ErrMalformedValue = errors.New("mvcc: malformed value")

	// ErrKeyIsLocked indicates a blocking lock under SnapshotIsolation.
	// Returned wrapped with the lock's start_ts and primary, e.g.
	// fmt.Errorf("%w: start_ts=%d primary=%q", ErrKeyIsLocked, ts, primary).
	ErrKeyIsLocked = errors.New("mvcc: key is locked")

	// ErrValueNotFound indicates a Put write record pointed at the default
	// CF but no matching entry was found there; an invariant violation.
	ErrValueNotFound = errors.New("mvcc: value not found")
)
