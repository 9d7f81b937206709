package distance

import (
	"testing"

	"github.com/hupe1980/ivfgo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 32},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Mixed", []float32{1, -1, 2}, []float32{1, 1, -2}, -4},
		{"Empty", []float32{}, []float32{}, 0},
		{"Single", []float32{2}, []float32{3}, 6},
		{"Large", make([]float32, 1024), make([]float32, 1024), 0},
	}

	for i := range tests[5].a {
		tests[5].a[i] = 1
		tests[5].b[i] = 1
	}
	tests[5].expected = 1024

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dot(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 27},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"Mixed", []float32{1, -1}, []float32{-1, 1}, 8},
		{"Empty", []float32{}, []float32{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SquaredL2(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestCheckedKernels(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}

	l2, err := L2Squared(a, b)
	require.NoError(t, err)
	assert.Equal(t, float32(27), l2)

	ip, err := InnerProduct(a, b)
	require.NoError(t, err)
	assert.Equal(t, float32(32), ip)

	l2ba, err := L2Squared(b, a)
	require.NoError(t, err)
	assert.Equal(t, l2, l2ba, "squared L2 is symmetric")

	self, err := L2Squared(a, a)
	require.NoError(t, err)
	assert.Zero(t, self)
}

func TestCheckedKernels_DimensionMismatch(t *testing.T) {
	_, err := L2Squared([]float32{1, 2}, []float32{1, 2, 3})
	assert.ErrorIs(t, err, model.ErrDimensionMismatch)

	_, err = InnerProduct([]float32{1}, nil)
	assert.ErrorIs(t, err, model.ErrDimensionMismatch)
}

func TestSquaredL2Batch(t *testing.T) {
	out := make([]float32, 2)
	SquaredL2Batch([]float32{1, 2, 3}, []float32{1, 2, 3, 4, 5, 6}, 3, out)
	assert.Equal(t, []float32{0, 27}, out)
}

func TestProvider(t *testing.T) {
	fn, err := Provider(MetricL2)
	require.NoError(t, err)
	assert.Equal(t, float32(27), fn([]float32{1, 2, 3}, []float32{4, 5, 6}))

	fn, err = Provider(MetricDot)
	require.NoError(t, err)
	assert.Equal(t, float32(32), fn([]float32{1, 2, 3}, []float32{4, 5, 6}))

	_, err = Provider(Metric(99))
	assert.Error(t, err)

	assert.Equal(t, "L2", MetricL2.String())
	assert.Equal(t, "Dot", MetricDot.String())
	assert.Equal(t, "Unknown(99)", Metric(99).String())
}
