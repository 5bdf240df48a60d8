package projection

import (
	"sort"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Triplet is a single (row, column, weight) entry of a sparse matrix
type Triplet struct {
	Row    int
	Col    int
	Weight float64
}

// Operator is an immutable sparse linear map from an image of Size×Size pixels
// to Directions×Size detector readings.
//
// Entries are kept twice: compressed by row for forward projection and
// compressed by column for the per-pixel access needed by coordinate descent.
// Operator satisfies gonum's mat.Matrix so it can be handed to code that only
// needs element access.
type Operator struct {
	// size is the image side length, dirs the number of projection angles
	size int
	dirs int

	csr *sparse.CSR
	csc *sparse.CSC

	// raw views of csr and csc; indices are sorted and unique within every
	// row (byRow) and column (byCol)
	byRow *blas.SparseMatrix
	byCol *blas.SparseMatrix
}

var _ mat.Matrix = (*Operator)(nil)

// newOperator assembles the triplet arena into compressed row and column
// storage. Duplicate (row, col) pairs are summed.
func newOperator(rows, cols int, triplets []Triplet) *Operator {
	ia := make([]int, len(triplets))
	ja := make([]int, len(triplets))
	data := make([]float64, len(triplets))
	for p, t := range triplets {
		ia[p], ja[p], data[p] = t.Row, t.Col, t.Weight
	}
	coo := sparse.NewCOO(rows, cols, ia, ja, data)

	op := &Operator{csr: coo.ToCSR(), csc: coo.ToCSC()}
	op.byRow = op.csr.RawMatrix()
	op.byCol = op.csc.RawMatrix()
	canonicalize(op.byRow)
	canonicalize(op.byCol)
	return op
}

// canonicalize sorts the minor indices of every compressed segment and sums
// repeated entries in place
func canonicalize(m *blas.SparseMatrix) {
	nnz := 0
	start := 0
	for s := 0; s+1 < len(m.Indptr); s++ {
		end := m.Indptr[s+1]
		seg := entrySegment{idx: m.Ind[start:end], val: m.Data[start:end]}
		if !sort.IsSorted(seg) {
			sort.Stable(seg)
		}
		first := nnz
		for p := start; p < end; p++ {
			if nnz > first && m.Ind[nnz-1] == m.Ind[p] {
				m.Data[nnz-1] += m.Data[p]
				continue
			}
			m.Ind[nnz] = m.Ind[p]
			m.Data[nnz] = m.Data[p]
			nnz++
		}
		m.Indptr[s] = first
		start = end
	}
	m.Indptr[len(m.Indptr)-1] = nnz
	m.Ind = m.Ind[:nnz]
	m.Data = m.Data[:nnz]
}

// entrySegment sorts parallel index/value slices by index
type entrySegment struct {
	idx []int
	val []float64
}

func (s entrySegment) Len() int           { return len(s.idx) }
func (s entrySegment) Less(a, b int) bool { return s.idx[a] < s.idx[b] }
func (s entrySegment) Swap(a, b int) {
	s.idx[a], s.idx[b] = s.idx[b], s.idx[a]
	s.val[a], s.val[b] = s.val[b], s.val[a]
}

// Dims returns the number of rows (detector readings) and columns (pixels)
func (op *Operator) Dims() (r, c int) {
	return op.csr.Dims()
}

// At returns the weight at row i, column j. It panics if the indices are out
// of range, like gonum's dense types.
func (op *Operator) At(i, j int) float64 {
	rows, cols := op.Dims()
	if i < 0 || i >= rows || j < 0 || j >= cols {
		panic(mat.ErrIndexOutOfRange)
	}
	idx, val := op.Row(i)
	k := sort.SearchInts(idx, j)
	if k < len(idx) && idx[k] == j {
		return val[k]
	}
	return 0
}

// T returns the implicit transpose of the operator
func (op *Operator) T() mat.Matrix {
	return mat.Transpose{Matrix: op}
}

// Size returns the image side length the operator was built for
func (op *Operator) Size() int {
	return op.size
}

// Directions returns the number of projection angles
func (op *Operator) Directions() int {
	return op.dirs
}

// NNZ returns the number of stored entries
func (op *Operator) NNZ() int {
	return len(op.byRow.Ind)
}

// Triplets returns a copy of all stored entries in row-major order
func (op *Operator) Triplets() []Triplet {
	rows, _ := op.Dims()
	out := make([]Triplet, 0, op.NNZ())
	for i := 0; i < rows; i++ {
		idx, val := op.Row(i)
		for p, j := range idx {
			out = append(out, Triplet{Row: i, Col: j, Weight: val[p]})
		}
	}
	return out
}

// Row returns the column indices and weights of row i. The slices alias the
// operator storage and must not be modified.
func (op *Operator) Row(i int) ([]int, []float64) {
	start, end := op.byRow.Indptr[i], op.byRow.Indptr[i+1]
	return op.byRow.Ind[start:end], op.byRow.Data[start:end]
}

// Column returns the row indices and weights of column j. The slices alias
// the operator storage and must not be modified.
func (op *Operator) Column(j int) ([]int, []float64) {
	start, end := op.byCol.Indptr[j], op.byCol.Indptr[j+1]
	return op.byCol.Ind[start:end], op.byCol.Data[start:end]
}

// ColumnSquaredNorms returns ‖A_j‖² for every column j
func (op *Operator) ColumnSquaredNorms() []float64 {
	_, cols := op.Dims()
	norms := make([]float64, cols)
	for j := range norms {
		_, val := op.Column(j)
		norms[j] = floats.Dot(val, val)
	}
	return norms
}

// MulVec computes dst = A·x. dst must have length rows and x length cols.
func (op *Operator) MulVec(dst, x []float64) {
	rows, cols := op.Dims()
	if len(dst) != rows || len(x) != cols {
		panic(mat.ErrShape)
	}
	for i := range dst {
		dst[i] = 0
	}
	blas.Dusmv(false, 1, op.byRow, x, 1, dst, 1)
}

// MulTransVec computes dst = Aᵀ·y. dst must have length cols and y length rows.
func (op *Operator) MulTransVec(dst, y []float64) {
	rows, cols := op.Dims()
	if len(dst) != cols || len(y) != rows {
		panic(mat.ErrShape)
	}
	for j := range dst {
		dst[j] = 0
	}
	blas.Dusmv(true, 1, op.byRow, y, 1, dst, 1)
}

// Dense materializes the operator as a gonum dense matrix. Only intended for
// small systems.
func (op *Operator) Dense() *mat.Dense {
	return op.csr.ToDense()
}
