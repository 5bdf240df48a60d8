package regression

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Lasso solves the L1-penalized least-squares problem
//
//	min_w (1/(2n))·‖y - Xw‖² + Alpha·‖w‖₁
//
// with cyclic coordinate descent, n being the number of design rows.
type Lasso struct {
	// Alpha is the L1 regularization strength
	Alpha float64

	// MaxIter bounds the number of full coordinate sweeps
	MaxIter int

	// Tol is the relative tolerance on coefficient updates and duality gap
	Tol float64

	// Strict turns an exhausted iteration budget into ErrNotConverged
	Strict bool

	// Logger receives convergence diagnostics
	Logger *zap.Logger
}

// NewLasso creates a Lasso solver with default iteration settings
func NewLasso(alpha float64) *Lasso {
	return &Lasso{
		Alpha:   alpha,
		MaxIter: 1000,
		Tol:     1e-4,
	}
}

// Name identifies the solver
func (l *Lasso) Name() string {
	return "lasso"
}

// Fit runs coordinate descent on (X, y).
//
// Each sweep updates one coefficient at a time against the running residual.
// When the largest update is small relative to the largest coefficient, the
// duality gap is evaluated and the fit stops once it drops below Tol·‖y‖².
func (l *Lasso) Fit(X Design, y []float64) (*Result, error) {
	if l.Alpha < 0 {
		return nil, fmt.Errorf("lasso (alpha=%g): %w", l.Alpha, ErrInvalidAlpha)
	}
	nSamples, nFeatures := X.Dims()
	if len(y) != nSamples {
		return nil, fmt.Errorf("lasso with %d targets for %d rows: %w", len(y), nSamples, ErrDimensionMismatch)
	}
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxIter := l.MaxIter
	if maxIter < 1 {
		maxIter = 1
	}

	alpha := l.Alpha * float64(nSamples)
	w := make([]float64, nFeatures)
	residual := make([]float64, nSamples)
	copy(residual, y)
	norms := columnSquaredNorms(X)
	tol := l.Tol * floats.Dot(y, y)

	result := &Result{Coef: w}
	for iter := 0; iter < maxIter; iter++ {
		wMax, dwMax := 0.0, 0.0

		for j := 0; j < nFeatures; j++ {
			if norms[j] == 0 {
				continue
			}
			idx, val := X.Column(j)
			wj := w[j]

			if wj != 0 {
				sparseAxpy(wj, idx, val, residual)
			}

			rho := sparseDot(idx, val, residual)
			w[j] = softThreshold(rho, alpha) / norms[j]

			if w[j] != 0 {
				sparseAxpy(-w[j], idx, val, residual)
			}

			dwMax = math.Max(dwMax, math.Abs(w[j]-wj))
			wMax = math.Max(wMax, math.Abs(w[j]))
		}
		result.Iterations = iter + 1

		if wMax == 0 || dwMax/wMax < l.Tol || iter == maxIter-1 {
			gap := l.dualityGap(X, y, w, residual, alpha)
			if gap <= tol {
				result.Converged = true
				logger.Debug("lasso converged",
					zap.Int("iterations", result.Iterations),
					zap.Float64("gap", gap))
				break
			}
		}
	}

	if !result.Converged {
		logger.Warn("lasso did not converge, consider increasing MaxIter",
			zap.Int("iterations", result.Iterations),
			zap.Float64("alpha", l.Alpha))
		if l.Strict {
			return result, fmt.Errorf("lasso after %d iterations: %w", result.Iterations, ErrNotConverged)
		}
	}

	return result, nil
}

// dualityGap evaluates the gap between the primal objective and the dual
// objective at a feasible dual point obtained by rescaling the residual
func (l *Lasso) dualityGap(X Design, y, w, residual []float64, alpha float64) float64 {
	_, nFeatures := X.Dims()
	xtr := make([]float64, nFeatures)
	X.MulTransVec(xtr, residual)

	dualNorm := 0.0
	for _, v := range xtr {
		dualNorm = math.Max(dualNorm, math.Abs(v))
	}
	rNorm2 := floats.Dot(residual, residual)

	var gap, scale float64
	if dualNorm > alpha {
		scale = alpha / dualNorm
		gap = 0.5 * (rNorm2 + rNorm2*scale*scale)
	} else {
		scale = 1
		gap = rNorm2
	}

	gap += alpha*floats.Norm(w, 1) - scale*floats.Dot(residual, y)
	return gap
}
