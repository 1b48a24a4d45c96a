package memengine

import (
	"bytes"

	mvccfs "github.com/calvinalkan/mvccscan/pkg/fs"
)

// DumpTo serializes the snapshot's current contents to path as a hujson
// (JSON-compatible) fixture document, written atomically via writer so a
// crash or interruption never leaves a partially written fixture on disk.
func (s *Snapshot) DumpTo(writer *mvccfs.AtomicWriter, path string) error {
	f, err := s.ToFixture()
	if err != nil {
		return err
	}
	data, err := marshalFixture(f)
	if err != nil {
		return err
	}
	return writer.WriteWithDefaults(path, bytes.NewReader(data))
}
