package vectorstore

import (
	"testing"

	"github.com/hupe1980/ivfgo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidDimension(t *testing.T) {
	for _, dim := range []int{0, -3} {
		_, err := New(dim)
		assert.ErrorIs(t, err, model.ErrInvalidParameter)
	}
}

func TestAppendAndGet(t *testing.T) {
	s, err := New(3)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Dimension())
	assert.Equal(t, 0, s.Count())

	id0, err := s.Append([]float32{1, 2, 3})
	require.NoError(t, err)
	id1, err := s.Append([]float32{4, 5, 6})
	require.NoError(t, err)

	assert.Equal(t, model.ID(0), id0)
	assert.Equal(t, model.ID(1), id1)
	assert.Equal(t, 2, s.Count())

	v, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5, 6}, v)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, s.Raw())
	assert.Equal(t, int64(24), s.Bytes())
}

func TestAppend_CopiesInput(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)

	in := []float32{1, 2}
	_, err = s.Append(in)
	require.NoError(t, err)
	in[0] = 99

	v, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)
}

func TestAppend_DimensionMismatchLeavesStoreUnchanged(t *testing.T) {
	s, err := New(3)
	require.NoError(t, err)
	_, err = s.Append([]float32{1, 2, 3})
	require.NoError(t, err)

	for _, bad := range [][]float32{nil, {1, 2}, {1, 2, 3, 4}} {
		_, err := s.Append(bad)
		require.ErrorIs(t, err, model.ErrDimensionMismatch)

		var dm *model.DimensionMismatchError
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, len(bad), dm.Actual)
		assert.Equal(t, 1, s.Count())
		assert.Len(t, s.Raw(), 3)
	}

	id, err := s.Append([]float32{7, 8, 9})
	require.NoError(t, err)
	assert.Equal(t, model.ID(1), id)
}

func TestGet_OutOfRange(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)

	_, err = s.Get(0)
	assert.ErrorIs(t, err, model.ErrIndexOutOfRange)

	_, err = s.Append([]float32{1, 1})
	require.NoError(t, err)

	_, err = s.Get(1)
	assert.ErrorIs(t, err, model.ErrIndexOutOfRange)
	_, err = s.Get(^model.ID(0))
	assert.ErrorIs(t, err, model.ErrIndexOutOfRange)
}

func TestGet_AppendToViewDoesNotCorruptStore(t *testing.T) {
	s, err := New(2)
	require.NoError(t, err)
	_, _ = s.Append([]float32{1, 2})
	_, _ = s.Append([]float32{3, 4})

	v, err := s.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 2, cap(v))
	_ = append(v, 42)

	second, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, second)
}

func TestAll(t *testing.T) {
	s, err := New(1)
	require.NoError(t, err)
	for i := range 5 {
		_, err := s.Append([]float32{float32(i)})
		require.NoError(t, err)
	}

	var ids []model.ID
	for id, v := range s.All() {
		assert.Equal(t, float32(id), v[0])
		ids = append(ids, id)
		if id == 2 {
			break
		}
	}
	assert.Equal(t, []model.ID{0, 1, 2}, ids)
}

func TestFromRaw(t *testing.T) {
	s, err := FromRaw(2, []float32{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, []float32{3, 4}, s.Row(1))

	_, err = FromRaw(2, []float32{1, 2, 3})
	assert.ErrorIs(t, err, model.ErrDimensionMismatch)

	_, err = FromRaw(0, nil)
	assert.ErrorIs(t, err, model.ErrInvalidParameter)
}
