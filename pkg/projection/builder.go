// Package projection builds the parallel-beam projection operator used to
// simulate tomographic measurements, and applies it to images.
package projection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Build computes the sparse projection operator for an lx×lx image observed at
// nDir directions evenly spaced over [0, π).
//
// Every pixel center is rotated into the detector frame and its contribution
// is split between the two nearest detector bins with linear interpolation
// weights. Bins are one pixel wide and share a single origin, the minimum X
// coordinate of the grid, for all angles. Contributions that land outside the
// detector are dropped.
//
// The returned operator has shape (nDir*lx, lx*lx): row k*lx+b is bin b of
// direction k, column i*lx+j is pixel (i, j).
func Build(lx, nDir int) (*Operator, error) {
	if lx < 1 || nDir < 1 {
		return nil, fmt.Errorf("build operator (lx=%d, nDir=%d): %w", lx, nDir, ErrInvalidDimension)
	}

	X, Y := centerCoordinates(lx)
	orig := floats.Min(X)

	numPixels := lx * lx
	triplets := make([]Triplet, 0, 2*numPixels*nDir)
	step := math.Pi / float64(nDir)

	for k := 0; k < nDir; k++ {
		angle := float64(k) * step
		cos, sin := math.Cos(angle), math.Sin(angle)

		for p := 0; p < numPixels; p++ {
			xRot := cos*X[p] - sin*Y[p]
			bin, alpha := interpolationWeights(xRot, 1, orig)

			if bin >= 0 && bin < lx {
				triplets = append(triplets, Triplet{Row: k*lx + bin, Col: p, Weight: 1 - alpha})
			}
			if bin+1 >= 0 && bin+1 < lx {
				triplets = append(triplets, Triplet{Row: k*lx + bin + 1, Col: p, Weight: alpha})
			}
		}
	}

	op := newOperator(nDir*lx, numPixels, triplets)
	op.size = lx
	op.dirs = nDir
	return op, nil
}

// centerCoordinates returns the X and Y coordinates of every pixel center of
// an lx×lx grid centered at the origin. X follows the row index.
func centerCoordinates(lx int) (X, Y []float64) {
	center := float64(lx) / 2.0
	X = make([]float64, lx*lx)
	Y = make([]float64, lx*lx)
	for i := 0; i < lx; i++ {
		for j := 0; j < lx; j++ {
			X[i*lx+j] = float64(i) + 0.5 - center
			Y[i*lx+j] = float64(j) + 0.5 - center
		}
	}
	return X, Y
}

// interpolationWeights locates x on a grid of spacing dx starting at orig.
// x falls between bin and bin+1 with fractional offset alpha in [0, 1).
func interpolationWeights(x, dx, orig float64) (bin int, alpha float64) {
	f := math.Floor((x - orig) / dx)
	alpha = (x - orig - f*dx) / dx
	return int(f), alpha
}
