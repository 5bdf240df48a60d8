package backprojection

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Filter names the frequency window applied to each projection
type Filter string

const (
	// Ramp is the Ram-Lak filter |f|
	Ramp Filter = "ramp"

	// SheppLogan is the ramp filter attenuated by a sinc window
	SheppLogan Filter = "shepp-logan"

	// None disables filtering, giving a plain back-projection
	None Filter = "none"
)

// paddedLength returns the FFT length used to filter projections of the
// given number of bins: the next power of two not smaller than 2·bins, and
// at least 64.
func paddedLength(bins int) int {
	n := 64
	for n < 2*bins {
		n *= 2
	}
	return n
}

// frequencyResponse builds the real frequency response of filter for the
// n/2+1 non-negative frequencies of a length n real FFT.
//
// The ramp is obtained from the band-limited spatial kernel h[0] = 1/4,
// h[d] = -1/(πd)² for odd d, which avoids the zero DC term of a sampled |f|.
func frequencyResponse(filter Filter, n int) []float64 {
	fft := fourier.NewFFT(n)

	kernel := make([]float64, n)
	kernel[0] = 0.25
	for i := 1; i < n; i++ {
		d := i
		if n-i < d {
			d = n - i
		}
		if d%2 == 1 {
			kernel[i] = -1 / (math.Pi * float64(d) * math.Pi * float64(d))
		}
	}

	coeff := fft.Coefficients(nil, kernel)
	response := make([]float64, len(coeff))
	for k, c := range coeff {
		response[k] = 2 * real(c)
	}

	if filter == SheppLogan {
		for k := 1; k < len(response); k++ {
			omega := math.Pi * float64(k) / float64(n)
			response[k] *= math.Sin(omega) / omega
		}
	}

	return response
}

// filterProjection applies response to a single projection through a
// zero-padded real FFT and returns the first len(projection) samples
func filterProjection(fft *fourier.FFT, response, projection []float64, n int) []float64 {
	padded := make([]float64, n)
	copy(padded, projection)

	coeff := fft.Coefficients(nil, padded)
	for k := range coeff {
		coeff[k] *= complex(response[k], 0)
	}

	// The inverse transform is not normalized
	seq := fft.Sequence(nil, coeff)
	out := make([]float64, len(projection))
	for i := range out {
		out[i] = seq[i] / float64(n)
	}
	return out
}
