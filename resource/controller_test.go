package resource

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(50))
	require.NoError(t, c.AcquireMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	assert.ErrorIs(t, c.AcquireMemory(20), ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.AcquireMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	require.NoError(t, c.AcquireMemory(1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
	assert.Zero(t, c.MemoryLimit())
}

func TestController_Concurrency(t *testing.T) {
	c := NewController(Config{MaxBackgroundWorkers: 2})

	require.NoError(t, c.AcquireBackground(context.Background()))
	require.NoError(t, c.AcquireBackground(context.Background()))
	assert.False(t, c.TryAcquireBackground())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireBackground(ctx), context.DeadlineExceeded)

	c.ReleaseBackground()
	assert.True(t, c.TryAcquireBackground())
}

func TestController_NilSafe(t *testing.T) {
	var c *Controller
	ctx := context.Background()

	assert.NoError(t, c.AcquireMemory(1<<40))
	c.ReleaseMemory(1)
	assert.Zero(t, c.MemoryUsage())
	assert.NoError(t, c.AcquireBackground(ctx))
	assert.True(t, c.TryAcquireBackground())
	c.ReleaseBackground()
	assert.NoError(t, c.AcquireIO(ctx, 1<<20))
	assert.True(t, c.TryAcquireIO(1))
	assert.Equal(t, Stats{}, c.Stats())
}

func TestController_IOLargerThanBurst(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// A single WaitN larger than the burst would fail outright.
	start := time.Now()
	require.NoError(t, c.AcquireIO(context.Background(), 1<<20+1024))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestController_IOCanceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10})
	require.True(t, c.TryAcquireIO(10))
	assert.False(t, c.TryAcquireIO(10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.AcquireIO(ctx, 5))
}

func TestRateLimitedIO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	ctx := context.Background()

	var buf bytes.Buffer
	w := NewRateLimitedWriter(ctx, &buf, c)
	n, err := w.Write([]byte("snapshot"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	r := NewRateLimitedReader(ctx, strings.NewReader("snapshot"), c)
	got := make([]byte, 16)
	n, err = r.Read(got)
	require.NoError(t, err)
	assert.Equal(t, "snapshot", string(got[:n]))
}

func TestController_Stats(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 64, IOLimitBytesPerSec: 32})
	require.NoError(t, c.AcquireMemory(16))

	assert.Equal(t, Stats{MemoryUsed: 16, MemoryLimit: 64, Background: 1, IOLimit: 32}, c.Stats())
}
