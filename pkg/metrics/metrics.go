// Package metrics scores reconstructed images against the ground truth
package metrics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"cstomo/internal/models"
)

// ErrSizeMismatch is returned when the two images differ in size
var ErrSizeMismatch = errors.New("metrics: image sizes differ")

// BinaryThreshold is the value above which a reconstructed pixel counts as
// foreground when comparing with a binary ground truth
const BinaryThreshold = 0.5

// Report holds the quality metrics of one reconstruction
type Report struct {
	// RMSE is the root mean square error over all pixels
	RMSE float64

	// SSIM is the global structural similarity index, in [-1, 1]
	SSIM float64

	// MutualInformation is the Gaussian approximation of the mutual
	// information between truth and reconstruction
	MutualInformation float64

	// EntropyDiff is the absolute difference of the histogram entropies
	EntropyDiff float64

	// PixelErrors counts pixels whose thresholded value differs from the truth
	PixelErrors int

	// MaxAbsError is the largest absolute pixel difference
	MaxAbsError float64

	// CornerError is the mean absolute error over pixels outside the
	// inscribed circle, where ray coverage is weakest
	CornerError float64
}

// Compare computes every metric of recon against truth
func Compare(truth, recon *models.Image) (Report, error) {
	if truth.Size != recon.Size || truth.Len() != recon.Len() {
		return Report{}, fmt.Errorf("compare %dx%d with %dx%d: %w",
			truth.Size, truth.Size, recon.Size, recon.Size, ErrSizeMismatch)
	}

	return Report{
		RMSE:              RMSE(truth.Data, recon.Data),
		SSIM:              SSIM(truth.Data, recon.Data),
		MutualInformation: MutualInformation(truth.Data, recon.Data),
		EntropyDiff:       math.Abs(Entropy(truth.Data) - Entropy(recon.Data)),
		PixelErrors:       PixelErrors(truth.Data, recon.Data),
		MaxAbsError:       maxAbsError(truth.Data, recon.Data),
		CornerError:       CornerError(truth, recon),
	}, nil
}

// RMSE computes the root mean square error
func RMSE(original, reconstructed []float64) float64 {
	n := len(original)
	if n != len(reconstructed) || n == 0 {
		return 0
	}
	return floats.Distance(original, reconstructed, 2) / math.Sqrt(float64(n))
}

// SSIM computes a single-window structural similarity index over the whole
// image with a dynamic range of 1
func SSIM(original, reconstructed []float64) float64 {
	const L = 1.0
	const k1 = 0.01
	const k2 = 0.03

	c1 := (k1 * L) * (k1 * L)
	c2 := (k2 * L) * (k2 * L)

	n := len(original)
	if n != len(reconstructed) || n < 2 {
		return 0
	}

	muX := stat.Mean(original, nil)
	muY := stat.Mean(reconstructed, nil)
	sigmaX := stat.Variance(original, nil)
	sigmaY := stat.Variance(reconstructed, nil)
	sigmaXY := stat.Covariance(original, reconstructed, nil)

	num := (2*muX*muY + c1) * (2*sigmaXY + c2)
	den := (muX*muX + muY*muY + c1) * (sigmaX + sigmaY + c2)
	if den > 0 {
		return num / den
	}
	return 0
}

// MutualInformation approximates MI under a joint Gaussian assumption:
// MI = -½·log(1 - ρ²). Perfectly correlated inputs are capped at ρ² = 1-1e-12.
func MutualInformation(original, reconstructed []float64) float64 {
	n := len(original)
	if n != len(reconstructed) || n < 2 {
		return 0
	}
	if stat.Variance(original, nil) == 0 || stat.Variance(reconstructed, nil) == 0 {
		return 0
	}

	rho := stat.Correlation(original, reconstructed, nil)
	r2 := math.Min(rho*rho, 1-1e-12)
	return -0.5 * math.Log(1-r2)
}

// Entropy computes the Shannon entropy (bits) of a 256-bin histogram of data
func Entropy(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}

	lo, hi := floats.Min(data), floats.Max(data)
	if hi <= lo {
		return 0
	}

	const numBins = 256
	hist := make([]float64, numBins)
	binWidth := (hi - lo) / float64(numBins)
	for _, v := range data {
		bin := int((v - lo) / binWidth)
		if bin >= numBins {
			bin = numBins - 1
		} else if bin < 0 {
			bin = 0
		}
		hist[bin]++
	}

	entropy := 0.0
	for _, count := range hist {
		if count > 0 {
			p := count / float64(n)
			entropy -= p * math.Log2(p)
		}
	}
	return entropy
}

// PixelErrors counts pixels where reconstructed > BinaryThreshold disagrees
// with original > BinaryThreshold
func PixelErrors(original, reconstructed []float64) int {
	errs := 0
	for i := range original {
		if i >= len(reconstructed) {
			break
		}
		if (original[i] > BinaryThreshold) != (reconstructed[i] > BinaryThreshold) {
			errs++
		}
	}
	return errs
}

// CornerError returns the mean absolute error over pixels outside the circle
// inscribed in the image
func CornerError(truth, recon *models.Image) float64 {
	l := truth.Size
	c := float64(l)/2 - 0.5
	r := float64(l) / 2

	sum := 0.0
	count := 0
	for i := 0; i < l; i++ {
		for j := 0; j < l; j++ {
			di, dj := float64(i)-c, float64(j)-c
			if di*di+dj*dj < r*r {
				continue
			}
			sum += math.Abs(truth.At(i, j) - recon.At(i, j))
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func maxAbsError(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	return floats.Distance(a, b, math.Inf(1))
}
