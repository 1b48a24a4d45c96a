package mvcc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/mvccscan/pkg/mvcc"
)

func Test_WriteRecord_Roundtrips_For_Every_Kind(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		kind       mvcc.WriteKind
		startTS    uint64
		shortValue []byte
	}{
		{name: "Delete", kind: mvcc.WriteKindDelete, startTS: 7},
		{name: "Lock", kind: mvcc.WriteKindLock, startTS: 8},
		{name: "Rollback", kind: mvcc.WriteKindRollback, startTS: 9},
		{name: "PutWithShortValue", kind: mvcc.WriteKindPut, startTS: 10, shortValue: []byte("hello")},
		{name: "PutOutOfLine", kind: mvcc.WriteKindPut, startTS: 11, shortValue: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			raw := mvcc.EncodeWriteRecord(tc.kind, tc.startTS, tc.shortValue)
			got, err := mvcc.ParseWriteRecord(raw)
			require.NoError(t, err)

			assert.Equal(t, tc.kind, got.Kind)
			assert.Equal(t, tc.startTS, got.StartTS)
			assert.Equal(t, tc.shortValue, got.ShortValue)
		})
	}
}

func Test_WriteRecord_Put_With_Empty_ShortValue_Is_Distinct_From_OutOfLine(t *testing.T) {
	t.Parallel()

	inline := mvcc.EncodeWriteRecord(mvcc.WriteKindPut, 1, []byte{})
	outOfLine := mvcc.EncodeWriteRecord(mvcc.WriteKindPut, 1, nil)

	gotInline, err := mvcc.ParseWriteRecord(inline)
	require.NoError(t, err)
	gotOutOfLine, err := mvcc.ParseWriteRecord(outOfLine)
	require.NoError(t, err)

	assert.NotNil(t, gotInline.ShortValue, "a present but empty short value must not decode as out-of-line")
	assert.Nil(t, gotOutOfLine.ShortValue)
}

func Test_ParseWriteRecord_Rejects_Too_Short(t *testing.T) {
	t.Parallel()

	_, err := mvcc.ParseWriteRecord([]byte{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, mvcc.ErrMalformedWrite))
}

func Test_ParseWriteRecord_Rejects_Unknown_Kind(t *testing.T) {
	t.Parallel()

	raw := mvcc.EncodeWriteRecord(mvcc.WriteKindDelete, 5, nil)
	raw[0] = 99

	_, err := mvcc.ParseWriteRecord(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mvcc.ErrMalformedWrite))
}

func Test_ParseWriteRecord_Rejects_Put_Missing_Presence_Flag(t *testing.T) {
	t.Parallel()

	raw := mvcc.EncodeWriteRecord(mvcc.WriteKindDelete, 5, nil)
	raw[0] = byte(mvcc.WriteKindPut)

	_, err := mvcc.ParseWriteRecord(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mvcc.ErrMalformedWrite))
}

func Test_WriteKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Put", mvcc.WriteKindPut.String())
	assert.Equal(t, "Delete", mvcc.WriteKindDelete.String())
	assert.Equal(t, "Lock", mvcc.WriteKindLock.String())
	assert.Equal(t, "Rollback", mvcc.WriteKindRollback.String())
	assert.Equal(t, "Unknown", mvcc.WriteKind(0).String())
}
