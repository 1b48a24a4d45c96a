package fixture_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/mvccscan/internal/fixture"
	mvccfs "github.com/calvinalkan/mvccscan/pkg/fs"
)

const sampleDoc = `{
  // a scan scenario with one versioned key and a lock
  "keys": [
    {
      "key_hex": "6b", // "k"
      "versions": [
        {"commit_ts": 5, "kind": "put", "start_ts": 5, "short_value_hex": "76"}, // "v"
      ],
    },
  ],
}`

func Test_ParseHuJSON_Decodes_Commented_Document(t *testing.T) {
	t.Parallel()

	snap, err := fixture.ParseHuJSON([]byte(sampleDoc))
	require.NoError(t, err)

	entries := snap.CF("write")
	assert.Len(t, entries, 1)
}

func Test_ParseHuJSON_Rejects_Invalid_Document(t *testing.T) {
	t.Parallel()

	_, err := fixture.ParseHuJSON([]byte("not json at all {{{"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fixture.ErrInvalidDocument)
}

func Test_LoadHuJSON_Reads_From_Filesystem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.hujson")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	snap, err := fixture.LoadHuJSON(mvccfs.NewReal(), path)
	require.NoError(t, err)
	assert.Len(t, snap.CF("write"), 1)
}

func Test_LoadHuJSON_Missing_File_Errors(t *testing.T) {
	t.Parallel()

	_, err := fixture.LoadHuJSON(mvccfs.NewReal(), "/nonexistent/path/scenario.hujson")
	require.Error(t, err)
}
