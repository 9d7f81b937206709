package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkers_DefaultSize(t *testing.T) {
	assert.Positive(t, NewWorkers(0).Size())
	assert.Equal(t, 3, NewWorkers(3).Size())
}

func TestRun_CallsEveryIndexOnce(t *testing.T) {
	for _, size := range []int{1, 4} {
		w := NewWorkers(size)
		hits := make([]int32, 100)
		err := w.Run(context.Background(), len(hits), func(_ context.Context, i int) error {
			atomic.AddInt32(&hits[i], 1)
			return nil
		})
		require.NoError(t, err)
		for i, h := range hits {
			assert.Equal(t, int32(1), h, "index %d", i)
		}
	}
}

func TestRun_RespectsLimit(t *testing.T) {
	w := NewWorkers(2)
	var active, peak int32
	err := w.Run(context.Background(), 50, func(_ context.Context, _ int) error {
		cur := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		atomic.AddInt32(&active, -1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRun_ReturnsError(t *testing.T) {
	boom := errors.New("boom")
	for _, size := range []int{1, 4} {
		err := NewWorkers(size).Run(context.Background(), 10, func(_ context.Context, i int) error {
			if i == 3 {
				return boom
			}
			return nil
		})
		assert.ErrorIs(t, err, boom)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	err := NewWorkers(1).Run(ctx, 5, func(context.Context, int) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestChunks(t *testing.T) {
	w := NewWorkers(4)

	assert.Nil(t, w.Chunks(0))
	assert.Equal(t, []Range{{0, 1}, {1, 2}}, w.Chunks(2))
	assert.Equal(t, []Range{{0, 3}, {3, 6}, {6, 8}, {8, 10}}, w.Chunks(10))

	total := 0
	prev := 0
	for _, r := range w.Chunks(1001) {
		assert.Equal(t, prev, r.Start)
		assert.Positive(t, r.Len())
		total += r.Len()
		prev = r.End
	}
	assert.Equal(t, 1001, total)
}

func TestForEachChunk(t *testing.T) {
	w := NewWorkers(3)
	sums := make([]int, 3)
	err := w.ForEachChunk(context.Background(), 9, func(_ context.Context, shard int, r Range) error {
		for i := r.Start; i < r.End; i++ {
			sums[shard] += i
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0 + 1 + 2, 3 + 4 + 5, 6 + 7 + 8}, sums)
}
