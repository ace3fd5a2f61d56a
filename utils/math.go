package utils

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Matrix helpers shared by the model, the optimizer and the trainer.
//
// r = rows of matrix
// c = columns of matrix
// o = output

// Dot returns m * n as a freshly allocated dense matrix.
func Dot(m, n mat.Matrix) *mat.Dense {
	r, _ := m.Dims()
	_, c := n.Dims()
	o := mat.NewDense(r, c, nil)
	o.Product(m, n)
	return o
}

// Scale returns s * m as a freshly allocated dense matrix.
func Scale(s float64, m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	o := mat.NewDense(r, c, nil)
	o.Scale(s, m)
	return o
}

func ToDense(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(m)
}

func ZerosLike(a *mat.Dense) *mat.Dense {
	r, c := a.Dims()
	return mat.NewDense(r, c, nil)
}

// MatrixNorm returns the Frobenius norm of m.
func MatrixNorm(m mat.Matrix) float64 {
	return mat.Norm(m, 2)
}

// UniformArray fills a slice with independent draws from [lo, hi).
func UniformArray(size int, lo, hi float64, rnd *rand.Rand) []float64 {
	out := make([]float64, size)
	for i := range out {
		out[i] = lo + (hi-lo)*rnd.Float64()
	}
	return out
}

// NormalArray fills a slice with independent standard normal draws.
func NormalArray(size int, rnd *rand.Rand) []float64 {
	out := make([]float64, size)
	for i := range out {
		out[i] = rnd.NormFloat64()
	}
	return out
}

// Orthogonal returns a (rows x cols) matrix whose rows (when rows <= cols)
// or columns (when rows >= cols) are mutually orthonormal, scaled by gain.
// It QR-factorizes a standard normal matrix and sign-corrects Q by the
// diagonal of R so the distribution is uniform over orthogonal matrices.
func Orthogonal(rows, cols int, gain float64, rnd *rand.Rand) *mat.Dense {
	n, m := rows, cols
	tall := rows >= cols
	if !tall {
		n, m = cols, rows
	}
	a := mat.NewDense(n, m, NormalArray(n*m, rnd))
	var qr mat.QR
	qr.Factorize(a)
	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)
	// First m columns of the full Q span the range of a.
	thin := ToDense(q.Slice(0, n, 0, m))
	for j := 0; j < m; j++ {
		if r.At(j, j) < 0 {
			for i := 0; i < n; i++ {
				thin.Set(i, j, -thin.At(i, j))
			}
		}
	}
	out := mat.NewDense(rows, cols, nil)
	if tall {
		out.Scale(gain, thin)
	} else {
		out.Scale(gain, thin.T())
	}
	return out
}

// TrailingMean returns the mean of the last n entries of xs, or of all of
// xs when it holds fewer than n. NaN on an empty slice.
func TrailingMean(xs []float64, n int) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	if n > len(xs) {
		n = len(xs)
	}
	return stat.Mean(xs[len(xs)-n:], nil)
}
