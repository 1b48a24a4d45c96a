package memengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/mvccscan/internal/memengine"
	"github.com/calvinalkan/mvccscan/pkg/mvcckv"
)

func buildWriteCFSnapshot(t *testing.T, keys ...byte) *memengine.Snapshot {
	t.Helper()

	var kfs []memengine.KeyFixture
	for _, k := range keys {
		kfs = append(kfs, memengine.KeyFixture{
			KeyHex:   byteKeyHex(k),
			Versions: []memengine.WriteFixture{{CommitTS: 1, Kind: "put", StartTS: 1, ShortValueHex: hexStringPtr("v")}},
		})
	}
	snap, err := memengine.Build(memengine.Fixture{Keys: kfs})
	require.NoError(t, err)
	return snap
}

func Test_Cursor_Next_Prev_Increment_Statistics(t *testing.T) {
	t.Parallel()

	snap := buildWriteCFSnapshot(t, 1, 2, 3)
	cursor, err := snap.NewCursor(mvcckv.CFWrite, mvcckv.ScanModeBackward, mvcckv.Range{}, true)
	require.NoError(t, err)

	var stats mvcckv.CFStatistics
	cursor.SeekToLast(&stats)
	assert.Equal(t, 0, stats.SeekForPrev, "SeekToLast must not increment any counter")
	require.True(t, cursor.Valid())

	cursor.Prev(&stats)
	assert.Equal(t, 1, stats.Prev)

	cursor.Next(&stats)
	assert.Equal(t, 1, stats.Next)
}

func Test_Cursor_SeekToFirst_On_Empty_Range_Is_Invalid(t *testing.T) {
	t.Parallel()

	snap := buildWriteCFSnapshot(t)
	cursor, err := snap.NewCursor(mvcckv.CFWrite, mvcckv.ScanModeForward, mvcckv.Range{}, true)
	require.NoError(t, err)

	var stats mvcckv.CFStatistics
	cursor.SeekToFirst(&stats)
	assert.False(t, cursor.Valid())
}

func Test_Cursor_ReverseSeek_Positions_Strictly_Before_Target(t *testing.T) {
	t.Parallel()

	snap := buildWriteCFSnapshot(t, 1, 3, 5)
	cursor, err := snap.NewCursor(mvcckv.CFWrite, mvcckv.ScanModeBackward, mvcckv.Range{}, true)
	require.NoError(t, err)

	var stats mvcckv.CFStatistics
	// Composite keys are [user_key_byte, 8 complemented ts bytes]; seeking
	// on a single-byte target landing strictly between entries exercises
	// the "greatest key < target" contract without needing exact encoding.
	err = cursor.ReverseSeek([]byte{4}, &stats)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SeekForPrev)
	require.True(t, cursor.Valid())
	assert.Equal(t, byte(3), cursor.Key()[0])
}

func Test_Cursor_InternalSeek_Positions_At_Or_After_Target(t *testing.T) {
	t.Parallel()

	snap := buildWriteCFSnapshot(t, 1, 3, 5)
	cursor, err := snap.NewCursor(mvcckv.CFWrite, mvcckv.ScanModeForward, mvcckv.Range{}, true)
	require.NoError(t, err)

	var stats mvcckv.CFStatistics
	err = cursor.InternalSeek([]byte{2}, &stats)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Seek)
	require.True(t, cursor.Valid())
	assert.Equal(t, byte(3), cursor.Key()[0])
}

func Test_Cursor_InternalSeekForPrev_Positions_At_Or_Before_Target(t *testing.T) {
	t.Parallel()

	snap := buildWriteCFSnapshot(t, 1, 3, 5)
	cursor, err := snap.NewCursor(mvcckv.CFWrite, mvcckv.ScanModeBackward, mvcckv.Range{}, true)
	require.NoError(t, err)

	var stats mvcckv.CFStatistics
	// Target exactly key 3's stored composite key (commit_ts 1): greatest
	// entry <= this must land on key 3 itself (inclusive), unlike ReverseSeek.
	err = cursor.InternalSeekForPrev([]byte{3, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe}, &stats)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SeekForPrev)
	require.True(t, cursor.Valid())
	assert.Equal(t, byte(3), cursor.Key()[0])
}

func Test_NewCursor_Range_Filters_Entries(t *testing.T) {
	t.Parallel()

	snap := buildWriteCFSnapshot(t, 1, 2, 3, 4, 5)
	cursor, err := snap.NewCursor(mvcckv.CFWrite, mvcckv.ScanModeForward, mvcckv.Range{Lower: []byte{2}, Upper: []byte{4}}, true)
	require.NoError(t, err)

	var stats mvcckv.CFStatistics
	var got []byte
	for cursor.SeekToFirst(&stats); cursor.Valid(); cursor.Next(&stats) {
		got = append(got, cursor.Key()[0])
	}
	assert.Equal(t, []byte{2, 3}, got)
}

func Test_NewCursor_Unknown_CF_Errors(t *testing.T) {
	t.Parallel()

	snap := buildWriteCFSnapshot(t, 1)
	_, err := snap.NewCursor("bogus", mvcckv.ScanModeForward, mvcckv.Range{}, true)
	require.Error(t, err)
}
