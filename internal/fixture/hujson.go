package fixture

import (
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/mvccscan/internal/memengine"
	mvccfs "github.com/calvinalkan/mvccscan/pkg/fs"
)

// LoadHuJSON reads a commented-JSON scan scenario document from path and
// builds a memengine.Snapshot from it.
func LoadHuJSON(fsys mvccfs.FS, path string) (*memengine.Snapshot, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %q: %w", path, err)
	}
	return ParseHuJSON(data)
}

// ParseHuJSON builds a memengine.Snapshot from an in-memory hujson
// document, standardizing it to JSON before decoding.
func ParseHuJSON(data []byte) (*memengine.Snapshot, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var f memengine.Fixture
	if err := json.Unmarshal(standardized, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	return memengine.Build(f)
}
