// Package features turns raw product fields into the numeric feature vector
// expected by the gender classifier, and defines the per-article training
// features that vector must stay consistent with.
package features

// Vector is a sparse row vector. Indices are strictly increasing and every
// index is below Width.
type Vector struct {
	Width   int
	Indices []int
	Values  []float64
}

// NNZ returns the number of stored entries.
func (v Vector) NNZ() int { return len(v.Indices) }

// At returns the value at column i.
func (v Vector) At(i int) float64 {
	for k, idx := range v.Indices {
		if idx == i {
			return v.Values[k]
		}
		if idx > i {
			break
		}
	}
	return 0
}

// Dot computes v·w. w must have at least Width entries.
func (v Vector) Dot(w []float64) float64 {
	var sum float64
	for k, idx := range v.Indices {
		sum += v.Values[k] * w[idx]
	}
	return sum
}

// Dense expands v into a slice of length Width.
func (v Vector) Dense() []float64 {
	out := make([]float64, v.Width)
	for k, idx := range v.Indices {
		out[idx] = v.Values[k]
	}
	return out
}

// hstack appends dense to the right of v.
func hstack(v Vector, dense []float64) Vector {
	out := Vector{
		Width:   v.Width + len(dense),
		Indices: make([]int, 0, len(v.Indices)+len(dense)),
		Values:  make([]float64, 0, len(v.Values)+len(dense)),
	}
	out.Indices = append(out.Indices, v.Indices...)
	out.Values = append(out.Values, v.Values...)
	for j, x := range dense {
		out.Indices = append(out.Indices, v.Width+j)
		out.Values = append(out.Values, x)
	}
	return out
}
