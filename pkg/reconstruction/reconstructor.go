// Package reconstruction drives the compressive-sensing tomography experiment:
// it builds the projection operator, simulates noisy measurements of a sparse
// phantom, reconstructs it with L1 and L2 penalized regression and renders the
// comparison.
package reconstruction

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"cstomo/internal/models"
	"cstomo/pkg/backprojection"
	"cstomo/pkg/metrics"
	"cstomo/pkg/phantom"
	"cstomo/pkg/projection"
	"cstomo/pkg/regression"
	"cstomo/pkg/visualization"
)

// Method names used to tag reconstructions and figure panels
const (
	MethodLasso = "lasso"
	MethodRidge = "ridge"
	MethodFBP   = "fbp"
)

// Params holds the experiment configuration
type Params struct {
	// Size is the side length l of the square image
	Size int

	// Directions is the number of projection angles
	Directions int

	// Seed drives both the phantom and the measurement noise
	Seed int64

	// Points is the number of blob seed points. Zero means phantom.DefaultPoints.
	Points int

	// NoiseSigma is the standard deviation of the additive measurement noise
	NoiseSigma float64

	// LassoAlpha, LassoMaxIter and LassoTol configure the L1 solver.
	// Zero iteration settings keep the solver defaults.
	LassoAlpha   float64
	LassoMaxIter int
	LassoTol     float64

	// RidgeAlpha and RidgeSolver configure the L2 solver
	RidgeAlpha  float64
	RidgeSolver regression.RidgeSolver

	// FBP enables the filtered back-projection baseline
	FBP       bool
	FBPFilter backprojection.Filter

	// OutputFile is the path of the comparison figure (PNG). Empty skips rendering.
	OutputFile string

	// NumCores above one runs the regression fits concurrently
	NumCores int

	// SaveIntermediaryResults determines whether to save intermediary processing results
	SaveIntermediaryResults bool

	// IntermediaryDir is the directory where intermediary results will be saved
	IntermediaryDir string

	// Logger receives progress and diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// Reconstructor runs the experiment:
// 1. Building the projection operator
// 2. Generating the phantom
// 3. Projecting it and adding noise
// 4. Fitting Lasso and Ridge
// 5. Filtered back-projection (optional)
// 6. Calculating quality metrics
// 7. Rendering the comparison figure
type Reconstructor struct {
	params *Params
	logger *zap.Logger

	operator *projection.Operator
	phantom  *models.Image
	sinogram *models.Sinogram

	// results in rendering order: ridge, lasso, then fbp when enabled
	results []*models.Reconstruction

	metrics map[string]metrics.Report
}

// NewReconstructor creates a new reconstructor instance with the provided parameters
func NewReconstructor(params *Params) *Reconstructor {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconstructor{
		params:  params,
		logger:  logger,
		metrics: make(map[string]metrics.Report),
	}
}

// Process runs the complete pipeline. Any failing step aborts the run.
func (r *Reconstructor) Process() error {
	start := time.Now()

	if r.params.SaveIntermediaryResults {
		if err := os.MkdirAll(r.params.IntermediaryDir, 0755); err != nil {
			return fmt.Errorf("failed to create intermediary directory: %w", err)
		}
	}

	r.logger.Info("Step 1: building projection operator",
		zap.Int("size", r.params.Size), zap.Int("directions", r.params.Directions))
	op, err := projection.Build(r.params.Size, r.params.Directions)
	if err != nil {
		return fmt.Errorf("failed to build projection operator: %w", err)
	}
	r.operator = op
	r.logger.Debug("operator assembled", zap.Int("nnz", op.NNZ()))

	r.logger.Info("Step 2: generating phantom", zap.Int64("seed", r.params.Seed))
	opts := phantom.DefaultOptions()
	if r.params.Points > 0 {
		opts.Points = r.params.Points
	}
	img, err := phantom.GenerateWithOptions(r.params.Size, r.params.Seed, opts)
	if err != nil {
		return fmt.Errorf("failed to generate phantom: %w", err)
	}
	r.phantom = img
	r.saveIntermediaryResult("01_phantom", img, 0)

	r.logger.Info("Step 3: projecting phantom", zap.Float64("noise", r.params.NoiseSigma))
	clean, err := projection.Project(op, img)
	if err != nil {
		return fmt.Errorf("failed to project phantom: %w", err)
	}
	noisy, err := projection.AddNoise(clean, r.params.NoiseSigma, r.params.Seed)
	if err != nil {
		return fmt.Errorf("failed to add noise: %w", err)
	}
	r.sinogram = noisy
	r.saveIntermediaryResult("02_sinogram", noisy, 0)

	r.logger.Info("Step 4: fitting regularized reconstructions")
	results, err := r.fitAll(r.regressors())
	if err != nil {
		return fmt.Errorf("failed to reconstruct: %w", err)
	}
	r.results = results

	if r.params.FBP {
		r.logger.Info("Step 5: filtered back-projection", zap.String("filter", string(r.params.FBPFilter)))
		fbp, err := backprojection.Reconstruct(op, noisy, r.params.FBPFilter)
		if err != nil {
			return fmt.Errorf("failed to back-project: %w", err)
		}
		r.results = append(r.results, &models.Reconstruction{Method: MethodFBP, Image: fbp, Converged: true})
	}

	for i, res := range r.results {
		r.saveIntermediaryResult("03_reconstructions", res.Image, i)
	}

	r.logger.Info("Step 6: calculating validation metrics")
	for _, res := range r.results {
		report, err := metrics.Compare(img, res.Image)
		if err != nil {
			return fmt.Errorf("failed to score %s: %w", res.Method, err)
		}
		r.metrics[res.Method] = report
		r.logger.Info("reconstruction quality",
			zap.String("method", res.Method),
			zap.Float64("rmse", report.RMSE),
			zap.Float64("ssim", report.SSIM),
			zap.Int("pixelErrors", report.PixelErrors))
	}

	if r.params.OutputFile != "" {
		r.logger.Info("Step 7: rendering figure", zap.String("output", r.params.OutputFile))
		if err := r.renderFigure(); err != nil {
			return fmt.Errorf("failed to render figure: %w", err)
		}
	}

	r.logger.Info("pipeline finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// regressors returns the configured solvers in rendering order
func (r *Reconstructor) regressors() []regression.Regressor {
	lasso := regression.NewLasso(r.params.LassoAlpha)
	if r.params.LassoMaxIter > 0 {
		lasso.MaxIter = r.params.LassoMaxIter
	}
	if r.params.LassoTol > 0 {
		lasso.Tol = r.params.LassoTol
	}
	lasso.Logger = r.logger.With(zap.String("method", MethodLasso))

	ridge := regression.NewRidge(r.params.RidgeAlpha)
	if r.params.RidgeSolver != "" {
		ridge.Solver = r.params.RidgeSolver
	}
	ridge.Logger = r.logger.With(zap.String("method", MethodRidge))

	return []regression.Regressor{ridge, lasso}
}

// fitAll fits every regressor on the shared operator and sinogram. With more
// than one core the fits run in their own goroutines and are collected
// through a channel; the operator and sinogram are only read.
func (r *Reconstructor) fitAll(regressors []regression.Regressor) ([]*models.Reconstruction, error) {
	results := make([]*models.Reconstruction, len(regressors))

	if r.params.NumCores <= 1 {
		for i, reg := range regressors {
			rec, err := r.fit(reg)
			if err != nil {
				return nil, err
			}
			results[i] = rec
		}
		return results, nil
	}

	type fitResult struct {
		idx int
		rec *models.Reconstruction
		err error
	}
	resultChan := make(chan fitResult, len(regressors))

	for i, reg := range regressors {
		go func(idx int, reg regression.Regressor) {
			rec, err := r.fit(reg)
			resultChan <- fitResult{idx: idx, rec: rec, err: err}
		}(i, reg)
	}

	var firstErr error
	for range regressors {
		res := <-resultChan
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		results[res.idx] = res.rec
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

func (r *Reconstructor) fit(reg regression.Regressor) (*models.Reconstruction, error) {
	start := time.Now()
	res, err := reg.Fit(r.operator, r.sinogram.Data)
	if err != nil {
		return nil, fmt.Errorf("%s fit: %w", reg.Name(), err)
	}
	r.logger.Info("fit finished",
		zap.String("method", reg.Name()),
		zap.Int("iterations", res.Iterations),
		zap.Bool("converged", res.Converged),
		zap.Duration("elapsed", time.Since(start)))

	return &models.Reconstruction{
		Method:     reg.Name(),
		Image:      res.Image(r.params.Size),
		Iterations: res.Iterations,
		Converged:  res.Converged,
	}, nil
}

// panelTitle names a reconstruction the way the figure legend shows it
func panelTitle(method string) string {
	switch method {
	case MethodLasso:
		return "L1 penalization"
	case MethodRidge:
		return "L2 penalization"
	case MethodFBP:
		return "filtered back-projection"
	}
	return method
}

func (r *Reconstructor) renderFigure() error {
	panels := []visualization.Panel{{Title: "original image", Image: r.phantom}}
	for _, res := range r.results {
		panels = append(panels, visualization.Panel{Title: panelTitle(res.Method), Image: res.Image})
	}

	fig, err := visualization.RenderFigure(panels, visualization.DefaultFigureOptions())
	if err != nil {
		return err
	}
	if err := visualization.SaveFigure(fig, r.params.OutputFile); err != nil {
		return err
	}
	return visualization.WriteLegend(panels, visualization.LegendPath(r.params.OutputFile))
}

// saveIntermediaryResult writes one artifact as a grayscale JPEG. Failures
// are logged and do not stop the pipeline.
func (r *Reconstructor) saveIntermediaryResult(stage string, data interface{}, index int) {
	if !r.params.SaveIntermediaryResults {
		return
	}

	var img image.Image
	switch v := data.(type) {
	case *models.Image:
		img = visualization.ToGray16(v)
	case *models.Sinogram:
		img = visualization.SinogramToGray16(v)
	case image.Image:
		img = v
	default:
		r.logger.Warn("unsupported intermediary result", zap.String("stage", stage), zap.String("type", fmt.Sprintf("%T", data)))
		return
	}

	filename := filepath.Join(r.params.IntermediaryDir, stage, fmt.Sprintf("%03d.jpg", index))
	if err := visualization.SaveGray(img, filename); err != nil {
		r.logger.Warn("failed to save intermediary result",
			zap.String("stage", stage), zap.Int("index", index), zap.Error(err))
	}
}

// GetMetrics returns the quality report of every reconstruction, keyed by method
func (r *Reconstructor) GetMetrics() map[string]metrics.Report {
	return r.metrics
}

// GetResults returns the reconstructions in rendering order
func (r *Reconstructor) GetResults() []*models.Reconstruction {
	return r.results
}

// GetPhantom returns the ground-truth image
func (r *Reconstructor) GetPhantom() *models.Image {
	return r.phantom
}

// GetSinogram returns the noisy projection data
func (r *Reconstructor) GetSinogram() *models.Sinogram {
	return r.sinogram
}

// GetOperator returns the projection operator
func (r *Reconstructor) GetOperator() *projection.Operator {
	return r.operator
}
