package memengine

import (
	"bytes"
	"sort"

	"github.com/calvinalkan/mvccscan/pkg/mvcckv"
)

// cursor is a position within a range-filtered, ascending-sorted entry
// slice. pos == -1 or pos == len(entries) means invalid/unpositioned.
type cursor struct {
	entries []entry
	pos     int
}

var _ mvcckv.Cursor = (*cursor)(nil)

func (c *cursor) Valid() bool {
	return c.pos >= 0 && c.pos < len(c.entries)
}

func (c *cursor) Key() []byte {
	return c.entries[c.pos].key
}

func (c *cursor) Value() []byte {
	return c.entries[c.pos].value
}

func (c *cursor) Next(stats *mvcckv.CFStatistics) {
	stats.Next++
	if c.pos < len(c.entries) {
		c.pos++
	}
}

func (c *cursor) Prev(stats *mvcckv.CFStatistics) {
	stats.Prev++
	if c.pos >= 0 {
		c.pos--
	}
}

func (c *cursor) SeekToLast(stats *mvcckv.CFStatistics) {
	c.pos = len(c.entries) - 1
}

func (c *cursor) SeekToFirst(stats *mvcckv.CFStatistics) {
	c.pos = 0
	if len(c.entries) == 0 {
		c.pos = -1
	}
}

// ReverseSeek positions at the greatest key strictly less than key. Modeled
// as a seek_for_prev, matching the engine's reverse_seek implementation.
func (c *cursor) ReverseSeek(key []byte, stats *mvcckv.CFStatistics) error {
	stats.SeekForPrev++
	idx := sort.Search(len(c.entries), func(i int) bool {
		return bytes.Compare(c.entries[i].key, key) >= 0
	})
	c.pos = idx - 1
	return nil
}

// InternalSeek positions at the smallest key >= key (ascending seek).
func (c *cursor) InternalSeek(key []byte, stats *mvcckv.CFStatistics) error {
	stats.Seek++
	idx := sort.Search(len(c.entries), func(i int) bool {
		return bytes.Compare(c.entries[i].key, key) >= 0
	})
	if idx >= len(c.entries) {
		c.pos = len(c.entries)
	} else {
		c.pos = idx
	}
	return nil
}

// Seek is the exported-interface twin of InternalSeek: the ascending
// mirror of ReverseSeek, used by ForwardScanner's init.
func (c *cursor) Seek(key []byte, stats *mvcckv.CFStatistics) error {
	return c.InternalSeek(key, stats)
}

// InternalSeekForPrev positions at the greatest key <= key.
func (c *cursor) InternalSeekForPrev(key []byte, stats *mvcckv.CFStatistics) error {
	stats.SeekForPrev++
	idx := sort.Search(len(c.entries), func(i int) bool {
		return bytes.Compare(c.entries[i].key, key) > 0
	})
	c.pos = idx - 1
	return nil
}
