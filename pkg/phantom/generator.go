// Package phantom generates the synthetic test objects used to exercise the
// tomography reconstruction: sparse binary images made of blob outlines
// inside a circular field of view.
package phantom

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"cstomo/internal/models"
)

// ErrInvalidSize is returned when the requested image side length is not positive
var ErrInvalidSize = errors.New("phantom: image size must be positive")

// DefaultPoints is the number of random seed points scattered on the grid
const DefaultPoints = 36

// Options controls the blob generation
type Options struct {
	// Points is the number of random seed points
	Points int

	// Sigma is the standard deviation of the smoothing filter in pixels.
	// Zero means l / Points.
	Sigma float64
}

// DefaultOptions returns the options used by Generate
func DefaultOptions() Options {
	return Options{Points: DefaultPoints}
}

// Generate produces the l×l boundary-only phantom for seed. The result is
// reproducible for a fixed (l, seed).
func Generate(l int, seed int64) (*models.Image, error) {
	return GenerateWithOptions(l, seed, DefaultOptions())
}

// GenerateWithOptions is Generate with explicit blob parameters
func GenerateWithOptions(l int, seed int64, opts Options) (*models.Image, error) {
	blobs, err := Blobs(l, seed, opts)
	if err != nil {
		return nil, err
	}
	return Boundary(blobs), nil
}

// Blobs produces the filled blob mask from which the phantom outline is taken:
// random points are rasterized, blurred, thresholded at the mean and clipped to
// the circular field of view.
func Blobs(l int, seed int64, opts Options) (*models.Image, error) {
	if l < 1 {
		return nil, fmt.Errorf("generate phantom (l=%d): %w", l, ErrInvalidSize)
	}
	if opts.Points < 1 {
		opts.Points = DefaultPoints
	}
	sigma := opts.Sigma
	if sigma <= 0 {
		sigma = float64(l) / float64(opts.Points)
	}

	rng := rand.New(rand.NewSource(seed))

	// All row coordinates first, then all column coordinates
	rowsPos := make([]float64, opts.Points)
	colsPos := make([]float64, opts.Points)
	for k := range rowsPos {
		rowsPos[k] = float64(l) * rng.Float64()
	}
	for k := range colsPos {
		colsPos[k] = float64(l) * rng.Float64()
	}

	points := models.NewImage(l)
	for k := 0; k < opts.Points; k++ {
		i := clampIndex(int(math.Floor(rowsPos[k])), l)
		j := clampIndex(int(math.Floor(colsPos[k])), l)
		points.Set(i, j, 1)
	}

	smoothed := GaussianFilter(points, sigma)
	threshold := stat.Mean(smoothed.Data, nil)
	fov := CircleMask(l)

	blobs := models.NewImage(l)
	for p, v := range smoothed.Data {
		if v > threshold && fov.Data[p] != 0 {
			blobs.Data[p] = 1
		}
	}
	return blobs, nil
}

func clampIndex(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
