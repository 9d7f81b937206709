package simd

var (
	dotImpl       = dotGeneric
	squaredL2Impl = squaredL2Generic
)

// useISA installs the kernels for isa. It is only called during init and
// from tests that pin a kernel.
func useISA(isa ISA) {
	activeISA = isa
	switch isa {
	case NEON:
		dotImpl, squaredL2Impl = dot4, squaredL2x4
	case AVX2:
		dotImpl, squaredL2Impl = dot8, squaredL2x8
	case AVX512:
		dotImpl, squaredL2Impl = dot16, squaredL2x16
	default:
		dotImpl, squaredL2Impl = dotGeneric, squaredL2Generic
	}
}

// Dot calculates the dot product of two vectors.
//
// SAFETY: This function assumes len(a) == len(b).
// Callers MUST check lengths; the distance package does.
func Dot(a, b []float32) float32 {
	return dotImpl(a, b)
}

// SquaredL2 calculates the squared L2 distance.
//
// SAFETY: This function assumes len(a) == len(b).
// Callers MUST check lengths; the distance package does.
func SquaredL2(a, b []float32) float32 {
	return squaredL2Impl(a, b)
}

// DotBatch calculates dot products for a batch of vectors.
// targets is a flattened array of N vectors, each of dimension dim.
// out must have length N (len(targets) / dim).
func DotBatch(query []float32, targets []float32, dim int, out []float32) {
	batch(dotImpl, query, targets, dim, out)
}

// SquaredL2Batch calculates squared L2 distance for a batch of vectors.
// targets is a flattened array of N vectors, each of dimension dim.
// out must have length N (len(targets) / dim).
func SquaredL2Batch(query []float32, targets []float32, dim int, out []float32) {
	batch(squaredL2Impl, query, targets, dim, out)
}

func batch(kernel func(a, b []float32) float32, query, targets []float32, dim int, out []float32) {
	if dim <= 0 || len(out) == 0 || len(query) < dim {
		return
	}

	q := query[:dim]
	n := min(len(out), len(targets)/dim)

	for i := 0; i < n; i++ {
		offset := i * dim
		out[i] = kernel(q, targets[offset:offset+dim:offset+dim])
	}
}

func dotGeneric(a, b []float32) float32 {
	var ret float32
	b = b[:len(a)]
	for i := range a {
		ret += a[i] * b[i]
	}
	return ret
}

func squaredL2Generic(a, b []float32) float32 {
	var ret float32
	b = b[:len(a)]
	for i := range a {
		d := a[i] - b[i]
		ret += d * d
	}
	return ret
}
