package memengine

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/calvinalkan/mvccscan/pkg/mvcckv"
)

type entry struct {
	key   []byte
	value []byte
}

// Snapshot is an immutable, in-memory view of the write, lock, and default
// column families. Build one with Build.
type Snapshot struct {
	cfs map[string][]entry
}

var _ mvcckv.Snapshot = (*Snapshot)(nil)

func newSnapshot() *Snapshot {
	return &Snapshot{cfs: map[string][]entry{
		mvcckv.CFWrite:   nil,
		mvcckv.CFLock:    nil,
		mvcckv.CFDefault: nil,
	}}
}

func (s *Snapshot) put(cf string, key, value []byte) {
	s.cfs[cf] = append(s.cfs[cf], entry{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
}

func (s *Snapshot) sortAll() {
	for cf, entries := range s.cfs {
		sort.Slice(entries, func(i, j int) bool {
			return bytes.Compare(entries[i].key, entries[j].key) < 0
		})
		s.cfs[cf] = entries
	}
}

// NewCursor implements mvcckv.Snapshot.
func (s *Snapshot) NewCursor(cf string, mode mvcckv.ScanMode, rng mvcckv.Range, fillCache bool) (mvcckv.Cursor, error) {
	entries, ok := s.cfs[cf]
	if !ok {
		return nil, fmt.Errorf("memengine: unknown column family %q", cf)
	}

	lo := 0
	if rng.Lower != nil {
		lo = sort.Search(len(entries), func(i int) bool {
			return bytes.Compare(entries[i].key, rng.Lower) >= 0
		})
	}
	hi := len(entries)
	if rng.Upper != nil {
		hi = sort.Search(len(entries), func(i int) bool {
			return bytes.Compare(entries[i].key, rng.Upper) >= 0
		})
	}

	return &cursor{entries: entries[lo:hi], pos: -1}, nil
}

// CF returns the raw (key, value) entries of the named column family, sorted
// ascending by key. The returned slice is new; the key and value byte slices
// in it are shared with the snapshot.
func (s *Snapshot) CF(cf string) [][2][]byte {
	entries := s.cfs[cf]
	out := make([][2][]byte, len(entries))
	for i, e := range entries {
		out[i] = [2][]byte{e.key, e.value}
	}
	return out
}
