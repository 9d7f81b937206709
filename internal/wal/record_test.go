package wal

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_RoundTrip(t *testing.T) {
	recs := []*Record{
		{Type: RecordTypeAppend, LSN: 1, Vector: []float32{0.5, -1, 3}},
		{Type: RecordTypeAppend, LSN: 2, Vector: []float32{}},
		{Type: RecordTypeCheckpoint, LSN: 3, SnapshotLSN: 2},
	}

	var buf bytes.Buffer
	for _, r := range recs {
		require.NoError(t, r.Encode(&buf))
	}

	for _, want := range recs {
		got, n, err := Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, int64(want.Size()), n)
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.LSN, got.LSN)
		assert.Equal(t, want.SnapshotLSN, got.SnapshotLSN)
		if want.Type == RecordTypeAppend {
			assert.Equal(t, want.Vector, got.Vector)
		}
	}

	_, _, err := Decode(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestRecord_Size(t *testing.T) {
	assert.Equal(t, 17+4+12, (&Record{Type: RecordTypeAppend, Vector: make([]float32, 3)}).Size())
	assert.Equal(t, 17+8, (&Record{Type: RecordTypeCheckpoint}).Size())
}

func TestRecord_InvalidType(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, (&Record{Type: 9}).Encode(&buf), ErrInvalidType)
	assert.Zero(t, buf.Len())
}

func TestDecode_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Record{Type: RecordTypeAppend, LSN: 1, Vector: []float32{1, 2}}).Encode(&buf))
	data := buf.Bytes()

	_, _, err := Decode(bytes.NewReader(data[:5]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, _, err = Decode(bytes.NewReader(data[:len(data)-1]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecode_BadCRC(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Record{Type: RecordTypeCheckpoint, LSN: 1, SnapshotLSN: 7}).Encode(&buf))
	data := buf.Bytes()
	data[0] ^= 0x01

	_, _, err := Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrInvalidCRC)
}

func TestRecordType_String(t *testing.T) {
	assert.Equal(t, "append", RecordTypeAppend.String())
	assert.Equal(t, "checkpoint", RecordTypeCheckpoint.String())
	assert.Equal(t, "unknown", RecordType(0).String())
}
