package nn

import (
	"math"
	"math/rand/v2"
)

// glorotUniform fills n values from U[-l, l] with l = sqrt(6/(fanIn+fanOut)).
func glorotUniform(r *rand.Rand, n, fanIn, fanOut int) []float64 {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	out := make([]float64, n)
	for i := range out {
		out[i] = (2*r.Float64() - 1) * limit
	}
	return out
}

// orthogonal returns a rows x cols row-major matrix whose rows (rows <= cols)
// or columns (rows > cols) are orthonormal, from Gram-Schmidt on a standard
// normal draw.
func orthogonal(r *rand.Rand, rows, cols int) []float64 {
	// Orthonormalize the k short vectors of length m.
	k, m := min(rows, cols), max(rows, cols)
	vecs := make([][]float64, k)
	for i := range vecs {
		vecs[i] = make([]float64, m)
		for j := range vecs[i] {
			vecs[i][j] = r.NormFloat64()
		}
	}

	for i, v := range vecs {
		for _, u := range vecs[:i] {
			var dot float64
			for j := range v {
				dot += v[j] * u[j]
			}
			for j := range v {
				v[j] -= dot * u[j]
			}
		}
		var norm float64
		for _, x := range v {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}
		for j := range v {
			v[j] /= norm
		}
	}

	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if rows <= cols {
				out[i*cols+j] = vecs[i][j]
			} else {
				out[i*cols+j] = vecs[j][i]
			}
		}
	}
	return out
}
