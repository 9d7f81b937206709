package ivfgo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicMetricsCollector(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	db := openTestDB(t, 2, 1, WithMetricsCollector(metrics))

	_, err := db.Insert(ctx, []float32{0, 0})
	require.NoError(t, err)
	_, err = db.Insert(ctx, []float32{0})
	require.Error(t, err)
	_, err = db.BatchInsert(ctx, [][]float32{{1, 1}, {2, 2}})
	require.NoError(t, err)

	_, err = db.Search(ctx, []float32{0, 0}, 1)
	require.ErrorIs(t, err, ErrNotBuilt)

	require.NoError(t, db.Build(ctx))
	_, err = db.Search(ctx, []float32{0, 0}, 2)
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.InsertCount)
	assert.Equal(t, int64(1), stats.InsertErrors)
	assert.Equal(t, int64(1), stats.BatchInsertCount)
	assert.Equal(t, int64(2), stats.BatchInsertItems)
	assert.Zero(t, stats.BatchInsertFailed)
	assert.Equal(t, int64(2), stats.SearchCount)
	assert.Equal(t, int64(1), stats.SearchErrors)
	assert.Equal(t, int64(1), stats.SearchAvgScanned) // 3 scanned over 2 searches
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Zero(t, stats.BuildErrors)
}

func TestNoopMetricsCollector(t *testing.T) {
	var mc MetricsCollector = NoopMetricsCollector{}
	mc.RecordInsert(0, nil)
	mc.RecordBatchInsert(1, 0, 0)
	mc.RecordSearch(1, 1, 0, nil)
	mc.RecordBuild(1, 0, nil)
	mc.RecordCheckpoint(1, 0, nil)
}
