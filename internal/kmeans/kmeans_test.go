package kmeans

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/hupe1980/ivfgo/internal/pool"
	"github.com/hupe1980/ivfgo/model"
	"github.com/hupe1980/ivfgo/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqRNG replays a fixed sequence of draws.
type seqRNG struct {
	vals []int
	i    int
}

func (r *seqRNG) IntN(n int) int {
	v := r.vals[r.i%len(r.vals)] % n
	r.i++
	return v
}

func newSource(t *testing.T, dim int, flat ...float32) *vectorstore.Store {
	t.Helper()
	s, err := vectorstore.FromRaw(dim, flat)
	require.NoError(t, err)
	return s
}

func TestTrain_TwoClusters(t *testing.T) {
	// 2 clusters: (0,0) and (10,10)
	src := newSource(t, 2,
		0, 0, 0, 1, 1, 0, // near 0,0
		10, 10, 10, 11, 11, 10, // near 10,10
	)

	p := New(2)
	res, err := p.Train(src, 2, 100, rand.New(rand.NewPCG(42, 42)))
	require.NoError(t, err)
	assert.Len(t, res.Centroids, 4)
	assert.True(t, res.Converged)
	assert.Equal(t, StateConverged, p.State())

	c1, _ := Nearest([]float32{0.5, 0.5}, res.Centroids, 2)
	c2, _ := Nearest([]float32{10.5, 10.5}, res.Centroids, 2)
	assert.NotEqual(t, c1, c2)
}

func TestTrain_CountEqualsKConvergesAfterFirstPass(t *testing.T) {
	src := newSource(t, 2, 0, 0, 5, 0, 0, 5, 9, 9)

	p := New(2)
	res, err := p.Train(src, 4, 20, &seqRNG{vals: []int{0, 1, 2, 3}})
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Equal(t, 2, res.Iterations)
	assert.Zero(t, res.Changed)
	assert.Equal(t, src.Raw(), res.Centroids)
	assert.Equal(t, []int32{0, 1, 2, 3}, p.Assignments())
}

func TestTrain_FirstPassCountsAgainstZeroAssignment(t *testing.T) {
	src := newSource(t, 1, 0, 10, 20)

	p := New(1)
	res, err := p.Train(src, 3, 1, &seqRNG{vals: []int{0, 1, 2}})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, 2, res.Changed, "rows 1 and 2 move away from cluster 0")
	assert.False(t, res.Converged)
	assert.Equal(t, StateBudgetExhausted, p.State())
}

func TestTrain_FirstPassWithoutChangesDoesNotConverge(t *testing.T) {
	src := newSource(t, 1, 1, 1, 1)

	p := New(1)
	res, err := p.Train(src, 1, 5, &seqRNG{vals: []int{0}})
	require.NoError(t, err)

	// Pass 0 reports zero changes but only pass 1 may end the run.
	assert.True(t, res.Converged)
	assert.Equal(t, 2, res.Iterations)
}

func TestTrain_Validation(t *testing.T) {
	src := newSource(t, 2, 0, 0, 1, 1)
	rng := &seqRNG{vals: []int{0}}

	_, err := New(2).Train(src, 0, 10, rng)
	assert.ErrorIs(t, err, model.ErrInvalidParameter)

	_, err = New(2).Train(src, 1, 0, rng)
	assert.ErrorIs(t, err, model.ErrInvalidParameter)

	_, err = New(3).Train(src, 1, 10, rng)
	assert.ErrorIs(t, err, model.ErrDimensionMismatch)

	p := New(2)
	_, err = p.Train(src, 3, 10, rng)
	assert.ErrorIs(t, err, model.ErrInsufficientData)
	var ide *model.InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 2, ide.Have)
	assert.Equal(t, 3, ide.Need)
	assert.Equal(t, StateUninitialized, p.State())
}

func TestTrain_DuplicateSeedsAreKept(t *testing.T) {
	src := newSource(t, 2, 0, 0, 2, 0, 4, 0)

	p := New(2)
	res, err := p.Train(src, 2, 1, &seqRNG{vals: []int{0, 0}})
	require.NoError(t, err)

	// Every row ties between the two identical seeds and goes to cluster 0.
	assert.Equal(t, []int32{0, 0, 0}, p.Assignments())
	assert.Equal(t, 1, res.EmptyClusters)
	assert.Equal(t, []float32{2, 0, 0, 0}, res.Centroids, "empty cluster keeps its seed")
}

func TestTrain_EmptyClusterReseed(t *testing.T) {
	src := newSource(t, 2, 0, 0, 2, 0, 4, 0)

	p := New(2, WithEmptyClusterPolicy(EmptyClusterReseed))
	res, err := p.Train(src, 2, 1, &seqRNG{vals: []int{0, 0, 2}})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 0, 4, 0}, res.Centroids)
}

func TestTrain_ScenarioSeparatedPairsAnySeed(t *testing.T) {
	src := newSource(t, 2, 0, 0, 0, 1, 10, 10, 10, 11)

	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			p := New(2)
			res, err := p.Train(src, 2, 20, &seqRNG{vals: []int{a, b}})
			require.NoError(t, err)
			require.True(t, res.Converged, "seeds %d,%d", a, b)

			got := [][]float32{res.Centroids[0:2], res.Centroids[2:4]}
			assert.ElementsMatch(t, [][]float32{{0, 0.5}, {10, 10.5}}, got, "seeds %d,%d", a, b)
		}
	}
}

func TestTrain_ParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	flat := make([]float32, 2000*8)
	for i := range flat {
		flat[i] = rng.Float32() * 10
	}
	src := newSource(t, 8, flat...)

	serial := New(8, WithWorkers(pool.NewWorkers(1)))
	rs, err := serial.Train(src, 16, 15, rand.New(rand.NewPCG(42, 42)))
	require.NoError(t, err)

	parallel := New(8, WithWorkers(pool.NewWorkers(7)))
	rp, err := parallel.Train(src, 16, 15, rand.New(rand.NewPCG(42, 42)))
	require.NoError(t, err)

	assert.Equal(t, rs, rp)
	assert.Equal(t, serial.Assignments(), parallel.Assignments())
}

func TestTrain_Cancellation(t *testing.T) {
	src := newSource(t, 1, 0, 1, 2, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(1, WithWorkers(pool.NewWorkers(2)))
	_, err := p.TrainContext(ctx, src, 2, 10, &seqRNG{vals: []int{0, 3}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNearest(t *testing.T) {
	centroids := []float32{0, 0, 10, 10, 0, 0}
	idx, d := Nearest([]float32{1, 0}, centroids, 2)
	assert.Equal(t, 0, idx, "ties resolve to the lowest index")
	assert.Equal(t, float32(1), d)

	idx, _ = Nearest([]float32{9, 9}, centroids, 2)
	assert.Equal(t, 1, idx)

	idx, _ = Nearest([]float32{1, 1}, nil, 2)
	assert.Equal(t, -1, idx)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "converged", StateConverged.String())
	assert.Equal(t, "budget_exhausted", StateBudgetExhausted.String())
	assert.Equal(t, "reseed", EmptyClusterReseed.String())
}
