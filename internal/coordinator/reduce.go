package coordinator

// Reduce combines partial outputs by element-wise mean. An empty list reduces
// to an empty vector; vectors of unequal length are rejected.
func Reduce(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return []float32{}, nil
	}
	n := len(vectors[0])
	for i, v := range vectors[1:] {
		if len(v) != n {
			return nil, reductionMismatchError{index: i + 1, want: n, got: len(v)}
		}
	}
	sum := make([]float64, n)
	for _, v := range vectors {
		for i, x := range v {
			sum[i] += float64(x)
		}
	}
	out := make([]float32, n)
	k := float64(len(vectors))
	for i := range sum {
		out[i] = float32(sum[i] / k)
	}
	return out, nil
}
