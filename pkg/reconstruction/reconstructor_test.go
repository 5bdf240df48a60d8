package reconstruction

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cstomo/pkg/projection"
	"cstomo/pkg/regression"
)

// smallParams returns the noiseless 16×16, three-direction experiment
func smallParams(t *testing.T) *Params {
	return &Params{
		Size:         16,
		Directions:   3,
		Seed:         0,
		NoiseSigma:   0,
		LassoAlpha:   0.001,
		LassoMaxIter: 10000,
		RidgeAlpha:   0.2,
		RidgeSolver:  regression.SolverAuto,
		NumCores:     1,
		Logger:       zaptest.NewLogger(t),
	}
}

// TestProcessNoiseless runs the full pipeline on the small noiseless case and
// checks that the sparse prior beats the L2 prior
func TestProcessNoiseless(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	r := NewReconstructor(smallParams(t))
	require.NoError(t, r.Process())

	rows, cols := r.GetOperator().Dims()
	assert.Equal(t, 48, rows)
	assert.Equal(t, 256, cols)
	assert.Len(t, r.GetSinogram().Data, 48)

	results := r.GetResults()
	require.Len(t, results, 2)
	assert.Equal(t, MethodRidge, results[0].Method)
	assert.Equal(t, MethodLasso, results[1].Method)
	for _, res := range results {
		assert.Equal(t, 16, res.Image.Size)
		for _, v := range res.Image.Data {
			assert.False(t, math.IsNaN(v))
		}
	}

	m := r.GetMetrics()
	require.Contains(t, m, MethodLasso)
	require.Contains(t, m, MethodRidge)
	assert.LessOrEqual(t, m[MethodLasso].PixelErrors, m[MethodRidge].PixelErrors)
	assert.Greater(t, m[MethodRidge].PixelErrors, 0)

	// Corners see the fewest rays; the L2 prior smears energy there
	assert.Greater(t, m[MethodRidge].CornerError, m[MethodLasso].CornerError)
}

// TestProcessConcurrentMatchesSequential ensures the fan-out of the fits
// does not change the results
func TestProcessConcurrentMatchesSequential(t *testing.T) {
	seq := NewReconstructor(smallParams(t))
	require.NoError(t, seq.Process())

	params := smallParams(t)
	params.NumCores = 4
	par := NewReconstructor(params)
	require.NoError(t, par.Process())

	require.Len(t, par.GetResults(), len(seq.GetResults()))
	for i := range seq.GetResults() {
		assert.Equal(t, seq.GetResults()[i].Method, par.GetResults()[i].Method)
		assert.Equal(t, seq.GetResults()[i].Image.Data, par.GetResults()[i].Image.Data)
	}
	assert.Equal(t, seq.GetMetrics(), par.GetMetrics())
}

// TestProcessArtifacts verifies the figure, legend and intermediary results
func TestProcessArtifacts(t *testing.T) {
	tmpDir := t.TempDir()

	params := smallParams(t)
	params.NoiseSigma = projection.DefaultNoiseSigma
	params.FBP = true
	params.OutputFile = filepath.Join(tmpDir, "figure.png")
	params.SaveIntermediaryResults = true
	params.IntermediaryDir = filepath.Join(tmpDir, "intermediary")

	r := NewReconstructor(params)
	require.NoError(t, r.Process())

	require.Len(t, r.GetResults(), 3)
	assert.Equal(t, MethodFBP, r.GetResults()[2].Method)
	assert.Contains(t, r.GetMetrics(), MethodFBP)

	assert.FileExists(t, params.OutputFile)
	legend, err := os.ReadFile(filepath.Join(tmpDir, "figure.txt"))
	require.NoError(t, err)
	assert.Equal(t,
		"panel 1: original image\npanel 2: L2 penalization\npanel 3: L1 penalization\npanel 4: filtered back-projection\n",
		string(legend))

	assert.FileExists(t, filepath.Join(params.IntermediaryDir, "01_phantom", "000.jpg"))
	assert.FileExists(t, filepath.Join(params.IntermediaryDir, "02_sinogram", "000.jpg"))
	for _, name := range []string{"000.jpg", "001.jpg", "002.jpg"} {
		assert.FileExists(t, filepath.Join(params.IntermediaryDir, "03_reconstructions", name))
	}
}

// TestProcessSeedReproducible checks that a fixed seed gives identical data
func TestProcessSeedReproducible(t *testing.T) {
	params := smallParams(t)
	params.NoiseSigma = 0.1

	a := NewReconstructor(params)
	require.NoError(t, a.Process())
	b := NewReconstructor(params)
	require.NoError(t, b.Process())

	assert.Equal(t, a.GetPhantom().Data, b.GetPhantom().Data)
	assert.Equal(t, a.GetSinogram().Data, b.GetSinogram().Data)
}

// TestProcessErrors covers the failure modes of each step
func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Params)
		target error
	}{
		{"zero size", func(p *Params) { p.Size = 0 }, projection.ErrInvalidDimension},
		{"zero directions", func(p *Params) { p.Directions = 0 }, projection.ErrInvalidDimension},
		{"negative noise", func(p *Params) { p.NoiseSigma = -1 }, projection.ErrInvalidNoise},
		{"negative alpha", func(p *Params) { p.LassoAlpha = -1 }, regression.ErrInvalidAlpha},
		{"negative alpha concurrent", func(p *Params) { p.RidgeAlpha = -1; p.NumCores = 2 }, regression.ErrInvalidAlpha},
		{"unknown solver", func(p *Params) { p.RidgeSolver = "lsqr" }, regression.ErrUnknownSolver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := smallParams(t)
			tt.modify(params)
			err := NewReconstructor(params).Process()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestNewReconstructorDefaultsLogger(t *testing.T) {
	r := NewReconstructor(&Params{})
	assert.NotNil(t, r.logger)
	assert.Empty(t, r.GetResults())
	assert.Nil(t, r.GetPhantom())
}
