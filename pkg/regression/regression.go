// Package regression provides the penalized least-squares solvers used to
// reconstruct images from projection data: Lasso (L1) and Ridge (L2).
//
// Both solvers fit coefficients without an intercept and accept any design
// that exposes sparse row and column access, such as projection.Operator.
package regression

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"cstomo/internal/models"
)

var (
	// ErrInvalidAlpha is returned for a negative regularization strength
	ErrInvalidAlpha = errors.New("regression: alpha must be non-negative")

	// ErrDimensionMismatch is returned when the target length does not match
	// the number of design rows
	ErrDimensionMismatch = errors.New("regression: target length does not match design rows")

	// ErrNotConverged is returned by strict solvers that exhaust their
	// iteration budget
	ErrNotConverged = errors.New("regression: solver did not converge")

	// ErrUnknownSolver is returned for an unsupported ridge solver name
	ErrUnknownSolver = errors.New("regression: unknown solver")
)

// Design is the read-only view of a design matrix needed by the solvers.
// Row and Column return index/value pairs sorted by index; the returned
// slices must not be modified.
type Design interface {
	Dims() (r, c int)
	Row(i int) ([]int, []float64)
	Column(j int) ([]int, []float64)
	MulVec(dst, x []float64)
	MulTransVec(dst, y []float64)
}

// Regressor fits coefficients w minimizing a penalized ‖y - Xw‖²
type Regressor interface {
	Fit(X Design, y []float64) (*Result, error)
	Name() string
}

// Result holds fitted coefficients and solver diagnostics
type Result struct {
	// Coef are the fitted coefficients, one per design column
	Coef []float64

	// Iterations is the number of solver iterations (zero for direct solves)
	Iterations int

	// Converged reports whether the solver met its tolerance
	Converged bool
}

// Image reshapes the coefficients into an l×l image. The coefficients are
// copied.
func (r *Result) Image(l int) *models.Image {
	img := models.NewImage(l)
	copy(img.Data, r.Coef)
	return img
}

// DenseDesign adapts a gonum matrix to the Design interface by indexing its
// non-zero entries
type DenseDesign struct {
	rows, cols int

	rowIdx [][]int
	rowVal [][]float64
	colIdx [][]int
	colVal [][]float64
}

// NewDenseDesign indexes the non-zero entries of m
func NewDenseDesign(m mat.Matrix) *DenseDesign {
	r, c := m.Dims()
	d := &DenseDesign{
		rows:   r,
		cols:   c,
		rowIdx: make([][]int, r),
		rowVal: make([][]float64, r),
		colIdx: make([][]int, c),
		colVal: make([][]float64, c),
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if v == 0 {
				continue
			}
			d.rowIdx[i] = append(d.rowIdx[i], j)
			d.rowVal[i] = append(d.rowVal[i], v)
			d.colIdx[j] = append(d.colIdx[j], i)
			d.colVal[j] = append(d.colVal[j], v)
		}
	}
	return d
}

// Dims returns the design shape
func (d *DenseDesign) Dims() (r, c int) { return d.rows, d.cols }

// Row returns the non-zero entries of row i
func (d *DenseDesign) Row(i int) ([]int, []float64) { return d.rowIdx[i], d.rowVal[i] }

// Column returns the non-zero entries of column j
func (d *DenseDesign) Column(j int) ([]int, []float64) { return d.colIdx[j], d.colVal[j] }

// MulVec computes dst = X·x
func (d *DenseDesign) MulVec(dst, x []float64) {
	for i := 0; i < d.rows; i++ {
		dst[i] = sparseDot(d.rowIdx[i], d.rowVal[i], x)
	}
}

// MulTransVec computes dst = Xᵀ·y
func (d *DenseDesign) MulTransVec(dst, y []float64) {
	for j := 0; j < d.cols; j++ {
		dst[j] = sparseDot(d.colIdx[j], d.colVal[j], y)
	}
}

// sparseDot computes Σ val[p]·x[idx[p]]
func sparseDot(idx []int, val []float64, x []float64) float64 {
	sum := 0.0
	for p, i := range idx {
		sum += val[p] * x[i]
	}
	return sum
}

// sparseAxpy computes x[idx[p]] += a·val[p]
func sparseAxpy(a float64, idx []int, val []float64, x []float64) {
	for p, i := range idx {
		x[i] += a * val[p]
	}
}

// columnSquaredNorms returns ‖X_j‖² for every column, using the design's own
// implementation when it has one
func columnSquaredNorms(X Design) []float64 {
	if n, ok := X.(interface{ ColumnSquaredNorms() []float64 }); ok {
		return n.ColumnSquaredNorms()
	}
	_, c := X.Dims()
	norms := make([]float64, c)
	for j := 0; j < c; j++ {
		_, val := X.Column(j)
		for _, v := range val {
			norms[j] += v * v
		}
	}
	return norms
}

func softThreshold(x, t float64) float64 {
	if math.Abs(x) <= t {
		return 0
	}
	return math.Copysign(math.Abs(x)-t, x)
}
