package phantom

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"cstomo/internal/models"
)

// truncate is the number of standard deviations covered by the Gaussian kernel
const truncate = 4.0

// gaussianKernel builds a normalized 1D Gaussian kernel of radius
// int(truncate*sigma + 0.5)
func gaussianKernel(sigma float64) []float64 {
	radius := int(truncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	if sigma <= 0 {
		kernel[radius] = 1
		return kernel
	}
	for x := -radius; x <= radius; x++ {
		kernel[x+radius] = math.Exp(-0.5 * float64(x*x) / (sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// reflectIndex maps p into [0, n) by half-sample symmetric reflection:
// d c b a | a b c d | d c b a
func reflectIndex(p, n int) int {
	period := 2 * n
	p %= period
	if p < 0 {
		p += period
	}
	if p >= n {
		p = period - 1 - p
	}
	return p
}

// GaussianFilter smooths img with a separable Gaussian of standard deviation
// sigma, filtering rows first and then columns. Borders are handled by
// reflection. A new image is returned.
func GaussianFilter(img *models.Image, sigma float64) *models.Image {
	n := img.Size
	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2

	// Axis 0 (down the rows)
	tmp := models.NewImage(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for k := -radius; k <= radius; k++ {
				sum += kernel[k+radius] * img.At(reflectIndex(i+k, n), j)
			}
			tmp.Set(i, j, sum)
		}
	}

	// Axis 1 (along each row)
	out := models.NewImage(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for k := -radius; k <= radius; k++ {
				sum += kernel[k+radius] * tmp.At(i, reflectIndex(j+k, n))
			}
			out.Set(i, j, sum)
		}
	}

	return out
}
