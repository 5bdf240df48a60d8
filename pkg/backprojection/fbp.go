// Package backprojection implements filtered back-projection, the analytic
// reconstruction used as a baseline for the regularized solvers.
package backprojection

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"cstomo/internal/models"
	"cstomo/pkg/projection"
)

var (
	// ErrUnknownFilter is returned for an unsupported filter name
	ErrUnknownFilter = errors.New("backprojection: unknown filter")

	// ErrDimensionMismatch is returned when the sinogram does not match the
	// operator geometry
	ErrDimensionMismatch = errors.New("backprojection: sinogram does not match operator")
)

// Reconstruct filters every projection of sino and smears it back across the
// image with the transpose of op. The result is scaled by π/(2·directions).
func Reconstruct(op *projection.Operator, sino *models.Sinogram, filter Filter) (*models.Image, error) {
	if sino.Dirs != op.Directions() || sino.Bins != op.Size() {
		return nil, fmt.Errorf("reconstruct %dx%d sinogram with %dx%d operator: %w",
			sino.Dirs, sino.Bins, op.Directions(), op.Size(), ErrDimensionMismatch)
	}

	filtered := models.NewSinogram(sino.Dirs, sino.Bins)
	switch filter {
	case None:
		copy(filtered.Data, sino.Data)
	case Ramp, SheppLogan, "":
		if filter == "" {
			filter = Ramp
		}
		n := paddedLength(sino.Bins)
		fft := fourier.NewFFT(n)
		response := frequencyResponse(filter, n)
		for k := 0; k < sino.Dirs; k++ {
			copy(filtered.Projection(k), filterProjection(fft, response, sino.Projection(k), n))
		}
	default:
		return nil, fmt.Errorf("filter %q: %w", filter, ErrUnknownFilter)
	}

	img := models.NewImage(op.Size())
	op.MulTransVec(img.Data, filtered.Data)

	scale := math.Pi / (2 * float64(sino.Dirs))
	for i := range img.Data {
		img.Data[i] *= scale
	}
	return img, nil
}
