package projection

import (
	"fmt"
	"math/rand"

	"cstomo/internal/models"
)

// DefaultNoiseSigma is the standard deviation of the measurement noise used by
// the demonstration pipeline
const DefaultNoiseSigma = 0.15

// Project computes the noiseless projections A·x of img
func Project(op *Operator, img *models.Image) (*models.Sinogram, error) {
	_, cols := op.Dims()
	if img.Len() != cols {
		return nil, fmt.Errorf("project %d pixels with operator of %d columns: %w",
			img.Len(), cols, ErrDimensionMismatch)
	}

	sino := models.NewSinogram(op.Directions(), op.Size())
	op.MulVec(sino.Data, img.Data)
	return sino, nil
}

// AddNoise returns a copy of s with i.i.d. Gaussian noise of mean 0 and
// standard deviation sigma added to every reading. The noise sequence is
// fully determined by seed.
func AddNoise(s *models.Sinogram, sigma float64, seed int64) (*models.Sinogram, error) {
	if sigma < 0 {
		return nil, fmt.Errorf("add noise (sigma=%g): %w", sigma, ErrInvalidNoise)
	}

	noisy := s.Clone()
	if sigma == 0 {
		return noisy, nil
	}

	rng := rand.New(rand.NewSource(seed))
	for i := range noisy.Data {
		noisy.Data[i] += sigma * rng.NormFloat64()
	}
	return noisy, nil
}
