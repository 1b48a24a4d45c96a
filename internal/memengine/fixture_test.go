package memengine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/mvccscan/internal/memengine"
	mvccfs "github.com/calvinalkan/mvccscan/pkg/fs"
)

func Test_Build_Decodes_Versions_And_Lock(t *testing.T) {
	t.Parallel()

	f := memengine.Fixture{Keys: []memengine.KeyFixture{
		{
			KeyHex: byteKeyHex('k'),
			Versions: []memengine.WriteFixture{
				{CommitTS: 5, Kind: "put", StartTS: 5, ShortValueHex: hexStringPtr("value")},
			},
			Lock: &memengine.LockFixture{StartTS: 7, PrimaryHex: byteKeyHex('p')},
		},
	}}

	snap, err := memengine.Build(f)
	require.NoError(t, err)

	writeEntries := snap.CF("write")
	require.Len(t, writeEntries, 1)

	lockEntries := snap.CF("lock")
	require.Len(t, lockEntries, 1)
}

func Test_Build_Synthesizes_UUID_Primary_When_Absent(t *testing.T) {
	t.Parallel()

	f := memengine.Fixture{Keys: []memengine.KeyFixture{
		{KeyHex: byteKeyHex('k'), Lock: &memengine.LockFixture{StartTS: 1}},
	}}

	snap, err := memengine.Build(f)
	require.NoError(t, err)

	lockEntries := snap.CF("lock")
	require.Len(t, lockEntries, 1)
	// start_ts (8 bytes) + a synthetic uuid.NewString() primary, which is
	// 36 characters, so the record is longer than the bare start_ts.
	assert.Greater(t, len(lockEntries[0][1]), 8)
}

func Test_Build_Rejects_Invalid_KeyHex(t *testing.T) {
	t.Parallel()

	_, err := memengine.Build(memengine.Fixture{Keys: []memengine.KeyFixture{
		{KeyHex: "not-hex"},
	}})
	require.Error(t, err)
}

func Test_Build_Rejects_Unknown_WriteKind(t *testing.T) {
	t.Parallel()

	_, err := memengine.Build(memengine.Fixture{Keys: []memengine.KeyFixture{
		{KeyHex: byteKeyHex('k'), Versions: []memengine.WriteFixture{{CommitTS: 1, Kind: "bogus"}}},
	}})
	require.Error(t, err)
}

func Test_ToFixture_Roundtrips_Through_Build(t *testing.T) {
	t.Parallel()

	original := memengine.Fixture{Keys: []memengine.KeyFixture{
		{
			KeyHex: byteKeyHex('k'),
			Versions: []memengine.WriteFixture{
				{CommitTS: 5, Kind: "put", StartTS: 5, ShortValueHex: hexStringPtr("inline")},
				{CommitTS: 10, Kind: "delete", StartTS: 10},
			},
		},
	}}

	snap, err := memengine.Build(original)
	require.NoError(t, err)

	roundtripped, err := snap.ToFixture()
	require.NoError(t, err)
	require.Len(t, roundtripped.Keys, 1)
	assert.Equal(t, original.Keys[0].KeyHex, roundtripped.Keys[0].KeyHex)
	require.Len(t, roundtripped.Keys[0].Versions, 2)
}

func Test_ToFixture_Inlines_Default_CF_Value_By_StartTS(t *testing.T) {
	t.Parallel()

	original := memengine.Fixture{Keys: []memengine.KeyFixture{
		{
			KeyHex: byteKeyHex('k'),
			Versions: []memengine.WriteFixture{
				{CommitTS: 5, Kind: "put", StartTS: 5, DefaultValueHex: hexStringPtr("out-of-line")},
			},
		},
	}}

	snap, err := memengine.Build(original)
	require.NoError(t, err)

	roundtripped, err := snap.ToFixture()
	require.NoError(t, err)
	require.Len(t, roundtripped.Keys[0].Versions, 1)
	require.NotNil(t, roundtripped.Keys[0].Versions[0].DefaultValueHex)
	assert.Equal(t, *original.Keys[0].Versions[0].DefaultValueHex, *roundtripped.Keys[0].Versions[0].DefaultValueHex)
}

func Test_DumpTo_Writes_A_Loadable_Fixture(t *testing.T) {
	t.Parallel()

	snap, err := memengine.Build(memengine.Fixture{Keys: []memengine.KeyFixture{
		{KeyHex: byteKeyHex('k'), Versions: []memengine.WriteFixture{
			{CommitTS: 1, Kind: "put", StartTS: 1, ShortValueHex: hexStringPtr("v")},
		}},
	}})
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "dump.json")

	writer := mvccfs.NewAtomicWriter(mvccfs.NewReal())
	require.NoError(t, snap.DumpTo(writer, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "key_hex")
}
