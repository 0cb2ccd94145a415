package features

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Row is a sparse feature vector. Indices are strictly increasing.
type Row struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product of the row with a dense weight vector.
func (r Row) Dot(w []float64) float64 {
	var sum float64
	for k, j := range r.Indices {
		sum += r.Values[k] * w[j]
	}
	return sum
}

// SquaredNorm returns the squared Euclidean norm of the row.
func (r Row) SquaredNorm() float64 {
	var sum float64
	for _, v := range r.Values {
		sum += v * v
	}
	return sum
}

// AddTo adds scale*r to the dense vector w.
func (r Row) AddTo(w []float64, scale float64) {
	for k, j := range r.Indices {
		w[j] += scale * r.Values[k]
	}
}

// Matrix is a row-compressed TF-IDF matrix: one row per document, one
// column per vocabulary term. It implements mat.Matrix.
type Matrix struct {
	rows []Row
	cols int
}

var _ mat.Matrix = (*Matrix)(nil)

// Dims returns the number of documents and vocabulary terms.
func (m *Matrix) Dims() (r, c int) {
	return len(m.rows), m.cols
}

// At returns the weight of term j in document i.
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || i >= len(m.rows) || j < 0 || j >= m.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	row := m.rows[i]
	k := sort.SearchInts(row.Indices, j)
	if k < len(row.Indices) && row.Indices[k] == j {
		return row.Values[k]
	}
	return 0
}

// T returns the transpose view of the matrix.
func (m *Matrix) T() mat.Matrix {
	return mat.Transpose{Matrix: m}
}

// Row returns document i.
func (m *Matrix) Row(i int) Row {
	return m.rows[i]
}

// NNZ returns the number of stored non-zero entries.
func (m *Matrix) NNZ() int {
	n := 0
	for _, r := range m.rows {
		n += len(r.Indices)
	}
	return n
}
