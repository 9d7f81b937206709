package ivfgo

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/ivfgo/resource"
	"github.com/hupe1980/ivfgo/testutil"
)

// exhaustive probes every list so results match brute force.
func exhaustive(nLists int) []SearchOption {
	return []SearchOption{WithNProbe(nLists), WithProbeRatio(math.MaxFloat32)}
}

func openTestDB(t *testing.T, dim, nLists int, opts ...Option) *DB {
	t.Helper()
	db, err := Open(context.Background(), dim, nLists, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, 0, 4)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = Open(ctx, 4, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = Open(ctx, 4, 2, WithMaxIterations(0))
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestDB_InsertBuildSearch(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(1)
	vectors := rng.ClusteredVectors(400, 8, 8, 0.05)

	db := openTestDB(t, 8, 8, WithSeed(7))
	ids, err := db.BatchInsert(ctx, vectors)
	require.NoError(t, err)
	require.Len(t, ids, len(vectors))
	for i, id := range ids {
		assert.Equal(t, ID(i), id)
	}
	assert.Equal(t, 400, db.Len())

	require.NoError(t, db.Build(ctx))

	for _, q := range vectors[:20] {
		got, err := db.Search(ctx, q, 10, exhaustive(8)...)
		require.NoError(t, err)
		want := testutil.BruteForceSearch(vectors, q, 10)
		require.Len(t, got, 10)
		for i := range want {
			assert.Equal(t, want[i].ID, got[i].ID)
			assert.InDelta(t, want[i].Distance, got[i].Distance, 1e-4)
		}
	}
}

func TestDB_SearchSelf(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, 2, 2)

	_, err := db.BatchInsert(ctx, [][]float32{{0, 0}, {0, 1}, {10, 10}, {10, 11}})
	require.NoError(t, err)
	require.NoError(t, db.Build(ctx))

	got, err := db.Search(ctx, []float32{10, 10}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ID(2), got[0].ID)
	assert.Zero(t, got[0].Distance)
}

func TestDB_SearchBeforeBuild(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, 2, 1)

	_, err := db.Search(ctx, []float32{0, 0}, 1)
	assert.ErrorIs(t, err, ErrNotBuilt)

	_, err = db.Insert(ctx, []float32{0, 0})
	require.NoError(t, err)
	_, err = db.Search(ctx, []float32{0, 0}, 1)
	assert.ErrorIs(t, err, ErrNotBuilt)
}

func TestDB_BuildInsufficientData(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, 2, 4)

	_, err := db.BatchInsert(ctx, [][]float32{{0, 0}, {1, 1}})
	require.NoError(t, err)
	assert.ErrorIs(t, db.Build(ctx), ErrInsufficientData)
}

func TestDB_DimensionMismatchRejectsBatch(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, 3, 1)

	_, err := db.Insert(ctx, []float32{1, 2})
	var dm *DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 2, dm.Actual)

	ids, err := db.BatchInsert(ctx, [][]float32{{1, 2, 3}, {1, 2}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Empty(t, ids)
	assert.Zero(t, db.Len())
}

func TestDB_PendingVectorsNotSearched(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, 2, 1)

	_, err := db.BatchInsert(ctx, [][]float32{{0, 0}, {5, 5}})
	require.NoError(t, err)
	require.NoError(t, db.Build(ctx))

	late, err := db.Insert(ctx, []float32{1, 1})
	require.NoError(t, err)
	assert.Equal(t, ID(2), late)

	st := db.Stats()
	assert.Equal(t, 3, st.Vectors)
	assert.Equal(t, 2, st.Indexed)
	assert.Equal(t, 1, st.Pending)

	got, err := db.Search(ctx, []float32{1, 1}, 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.NotEqual(t, late, r.ID)
	}

	require.NoError(t, db.Build(ctx))
	got, err = db.Search(ctx, []float32{1, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, late, got[0].ID)
}

func TestDB_Get(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, 2, 1)

	id, err := db.Insert(ctx, []float32{3, 4})
	require.NoError(t, err)

	v, err := db.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, v)

	v[0] = 99
	again, err := db.Get(id)
	require.NoError(t, err)
	assert.Equal(t, float32(3), again[0])

	_, err = db.Get(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDB_SearchParameters(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, 2, 1)

	_, err := db.BatchInsert(ctx, [][]float32{{0, 0}, {1, 0}, {2, 0}})
	require.NoError(t, err)
	require.NoError(t, db.Build(ctx))

	_, err = db.Search(ctx, []float32{0, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = db.Search(ctx, []float32{0, 0}, 1, WithRefineFactor(0))
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = db.Search(ctx, []float32{0, 0}, 1, WithProbeRatio(-1))
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = db.Search(ctx, []float32{0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	got, err := db.Search(ctx, []float32{0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestDB_SearchFilter(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, 2, 1)

	_, err := db.BatchInsert(ctx, [][]float32{{0, 0}, {1, 0}, {2, 0}, {3, 0}})
	require.NoError(t, err)
	require.NoError(t, db.Build(ctx))

	got, err := db.Search(ctx, []float32{0, 0}, 4, WithFilterIDs(1, 3))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ID(1), got[0].ID)
	assert.Equal(t, ID(3), got[1].ID)
}

func TestDB_Explain(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, 2, 2, WithSeed(3))

	_, err := db.BatchInsert(ctx, [][]float32{{0, 0}, {0, 1}, {100, 100}, {100, 101}})
	require.NoError(t, err)
	require.NoError(t, db.Build(ctx))

	res, ex, err := db.Explain(ctx, []float32{0, 0}, 2, WithNProbe(1))
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, ID(0), res[0].ID)
	assert.Equal(t, ID(1), res[1].ID)
	assert.Len(t, ex.Probed, 1)
	assert.Equal(t, len(res), min(ex.Scanned, 2))

	_, ex, err = db.Explain(ctx, []float32{0, 0}, 2, exhaustive(2)...)
	require.NoError(t, err)
	assert.Len(t, ex.Probed, 2)
	assert.Equal(t, 4, ex.Scanned)
}

func TestDB_SearchDefaults(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, 2, 2, WithSeed(3), WithSearchDefaults(SearchParams{
		ProbeRatio:   0,
		MaxNProbe:    1,
		RefineFactor: 1,
	}))

	_, err := db.BatchInsert(ctx, [][]float32{{0, 0}, {0, 1}, {100, 100}, {100, 101}})
	require.NoError(t, err)
	require.NoError(t, db.Build(ctx))

	_, ex, err := db.Explain(ctx, []float32{0, 0}, 4)
	require.NoError(t, err)
	assert.Len(t, ex.Probed, 1)
}

func TestDB_CanceledContext(t *testing.T) {
	db := openTestDB(t, 2, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.Insert(ctx, []float32{0, 0})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = db.Search(ctx, []float32{0, 0}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, db.Len())
}

func TestDB_MemoryLimit(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 3 * 2 * 4})
	db := openTestDB(t, 2, 1, WithResourceController(rc))

	ids, err := db.BatchInsert(ctx, [][]float32{{0, 0}, {1, 1}, {2, 2}, {3, 3}})
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Len(t, ids, 3)
	assert.Equal(t, 3, db.Len())
	assert.Equal(t, int64(24), rc.MemoryUsage())

	require.NoError(t, db.Close())
	assert.Zero(t, rc.MemoryUsage())
}

func TestDB_Closed(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, 2, 1)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = db.Insert(ctx, []float32{0, 0})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = db.Search(ctx, []float32{0, 0}, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = db.Get(0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, db.Build(ctx), ErrClosed)
	assert.ErrorIs(t, db.Close(), ErrClosed)
}

func TestDB_ConcurrentInsertAndSearch(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(5)
	db := openTestDB(t, 4, 4)

	_, err := db.BatchInsert(ctx, rng.UniformVectors(64, 4))
	require.NoError(t, err)
	require.NoError(t, db.Build(ctx))

	extra := rng.UniformVectors(200, 4)
	queries := rng.UniformVectors(50, 4)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for _, v := range extra {
			_, err := db.Insert(ctx, v)
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for _, q := range queries {
			_, err := db.Search(ctx, q, 5)
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, db.Build(ctx))
	}()
	wg.Wait()

	assert.Equal(t, 264, db.Len())
}
