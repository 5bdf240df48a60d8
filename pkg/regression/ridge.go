package regression

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RidgeSolver selects how the ridge normal equations are solved
type RidgeSolver string

const (
	// SolverAuto uses Cholesky for small systems and conjugate gradient otherwise
	SolverAuto RidgeSolver = "auto"

	// SolverCholesky factorizes the dense normal matrix
	SolverCholesky RidgeSolver = "cholesky"

	// SolverCG runs matrix-free conjugate gradient
	SolverCG RidgeSolver = "cg"
)

// maxDenseFeatures is the largest column count for which SolverAuto builds
// the dense normal matrix
const maxDenseFeatures = 4096

// Ridge solves the L2-penalized least-squares problem
//
//	min_w ‖y - Xw‖² + Alpha·‖w‖²
//
// through the normal equations (XᵀX + Alpha·I)·w = Xᵀy.
type Ridge struct {
	// Alpha is the L2 regularization strength
	Alpha float64

	// Solver picks the linear solver
	Solver RidgeSolver

	// MaxIter bounds conjugate gradient iterations. Zero means 10·columns.
	MaxIter int

	// Tol is the relative residual tolerance for conjugate gradient
	Tol float64

	// Logger receives solver diagnostics
	Logger *zap.Logger
}

// NewRidge creates a Ridge solver using automatic solver selection
func NewRidge(alpha float64) *Ridge {
	return &Ridge{
		Alpha:  alpha,
		Solver: SolverAuto,
		Tol:    1e-6,
	}
}

// Name identifies the solver
func (r *Ridge) Name() string {
	return "ridge"
}

// Fit solves the ridge problem for (X, y)
func (r *Ridge) Fit(X Design, y []float64) (*Result, error) {
	if r.Alpha < 0 {
		return nil, fmt.Errorf("ridge (alpha=%g): %w", r.Alpha, ErrInvalidAlpha)
	}
	nSamples, nFeatures := X.Dims()
	if len(y) != nSamples {
		return nil, fmt.Errorf("ridge with %d targets for %d rows: %w", len(y), nSamples, ErrDimensionMismatch)
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	solver := r.Solver
	if solver == "" || solver == SolverAuto {
		solver = SolverCholesky
		if nFeatures > maxDenseFeatures {
			solver = SolverCG
		}
	}

	rhs := make([]float64, nFeatures)
	X.MulTransVec(rhs, y)

	switch solver {
	case SolverCholesky:
		logger.Debug("solving ridge normal equations", zap.String("solver", string(solver)), zap.Int("features", nFeatures))
		return r.solveDense(X, rhs, logger)
	case SolverCG:
		logger.Debug("solving ridge normal equations", zap.String("solver", string(solver)), zap.Int("features", nFeatures))
		return r.solveCG(X, rhs, logger)
	default:
		return nil, fmt.Errorf("ridge solver %q: %w", r.Solver, ErrUnknownSolver)
	}
}

// normalMatrix accumulates XᵀX + Alpha·I row by row
func (r *Ridge) normalMatrix(X Design) *mat.SymDense {
	nSamples, nFeatures := X.Dims()
	data := make([]float64, nFeatures*nFeatures)

	for i := 0; i < nSamples; i++ {
		idx, val := X.Row(i)
		for a := range idx {
			for b := a; b < len(idx); b++ {
				ca, cb := idx[a], idx[b]
				if ca > cb {
					ca, cb = cb, ca
				}
				data[ca*nFeatures+cb] += val[a] * val[b]
			}
		}
	}
	for j := 0; j < nFeatures; j++ {
		data[j*nFeatures+j] += r.Alpha
	}

	// NewSymDense only reads the upper triangle
	return mat.NewSymDense(nFeatures, data)
}

// solveDense factorizes the normal matrix with Cholesky. A singular or
// ill-conditioned normal matrix, as produced by alpha = 0 on an
// underdetermined design, is handed to conjugate gradient, which converges to
// the minimum-norm solution from a zero start.
func (r *Ridge) solveDense(X Design, rhs []float64, logger *zap.Logger) (*Result, error) {
	nSamples, nFeatures := X.Dims()
	if r.Alpha == 0 && nSamples < nFeatures {
		logger.Warn("normal matrix is singular, using conjugate gradient",
			zap.Int("rows", nSamples), zap.Int("features", nFeatures))
		return r.solveCG(X, rhs, logger)
	}

	normal := r.normalMatrix(X)
	b := mat.NewVecDense(nFeatures, rhs)
	w := mat.NewVecDense(nFeatures, nil)

	var chol mat.Cholesky
	if ok := chol.Factorize(normal); !ok {
		logger.Warn("normal matrix is not positive definite, using conjugate gradient")
		return r.solveCG(X, rhs, logger)
	}
	if err := chol.SolveVecTo(w, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("ridge cholesky solve: %w", err)
		}
		logger.Warn("normal matrix is ill conditioned, using conjugate gradient", zap.Error(err))
		return r.solveCG(X, rhs, logger)
	}
	return &Result{Coef: w.RawVector().Data, Converged: true}, nil
}

// solveCG runs conjugate gradient on the normal equations without forming
// XᵀX
func (r *Ridge) solveCG(X Design, rhs []float64, logger *zap.Logger) (*Result, error) {
	nSamples, nFeatures := X.Dims()
	maxIter := r.MaxIter
	if maxIter <= 0 {
		maxIter = 10 * nFeatures
	}
	tol := r.Tol
	if tol <= 0 {
		tol = 1e-6
	}

	w := make([]float64, nFeatures)
	res := make([]float64, nFeatures)
	copy(res, rhs)
	dir := make([]float64, nFeatures)
	copy(dir, res)
	xp := make([]float64, nSamples)
	ap := make([]float64, nFeatures)

	result := &Result{Coef: w}
	bNorm := floats.Norm(rhs, 2)
	if bNorm == 0 {
		result.Converged = true
		return result, nil
	}

	rs := floats.Dot(res, res)
	for iter := 0; iter < maxIter; iter++ {
		// ap = (XᵀX + αI)·dir
		X.MulVec(xp, dir)
		X.MulTransVec(ap, xp)
		floats.AddScaled(ap, r.Alpha, dir)

		curvature := floats.Dot(dir, ap)
		if curvature <= 0 {
			break
		}
		step := rs / curvature
		floats.AddScaled(w, step, dir)
		floats.AddScaled(res, -step, ap)
		result.Iterations = iter + 1

		rsNew := floats.Dot(res, res)
		if math.Sqrt(rsNew) <= tol*bNorm {
			result.Converged = true
			break
		}
		floats.Scale(rsNew/rs, dir)
		floats.Add(dir, res)
		rs = rsNew
	}

	if !result.Converged {
		logger.Warn("ridge conjugate gradient did not converge",
			zap.Int("iterations", result.Iterations))
	}
	return result, nil
}
