package backprojection

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cstomo/internal/models"
	"cstomo/pkg/projection"
)

// discImage returns an l×l image with a centered disc of the given radius
func discImage(l int, radius float64) *models.Image {
	img := models.NewImage(l)
	c := float64(l)/2 - 0.5
	for i := 0; i < l; i++ {
		for j := 0; j < l; j++ {
			if math.Hypot(float64(i)-c, float64(j)-c) <= radius {
				img.Set(i, j, 1)
			}
		}
	}
	return img
}

// TestReconstructDisc verifies that FBP of a centered disc is brighter inside
// the disc than in the background, for every filter
func TestReconstructDisc(t *testing.T) {
	l := 32
	op, err := projection.Build(l, 32)
	require.NoError(t, err)

	truth := discImage(l, 6)
	sino, err := projection.Project(op, truth)
	require.NoError(t, err)

	for _, filter := range []Filter{Ramp, SheppLogan, None, ""} {
		img, err := Reconstruct(op, sino, filter)
		require.NoError(t, err, "filter %q", filter)
		require.Equal(t, l, img.Size)

		var inside, outside float64
		var nIn, nOut int
		for i := 0; i < l; i++ {
			for j := 0; j < l; j++ {
				d := math.Hypot(float64(i)-15.5, float64(j)-15.5)
				switch {
				case d < 4:
					inside += img.At(i, j)
					nIn++
				case d > 9 && d < 14:
					outside += img.At(i, j)
					nOut++
				}
			}
		}
		assert.Greater(t, inside/float64(nIn), outside/float64(nOut), "filter %q", filter)
	}
}

// TestFrequencyResponse checks the ramp shape of the filters
func TestFrequencyResponse(t *testing.T) {
	n := 64
	ramp := frequencyResponse(Ramp, n)
	require.Len(t, ramp, n/2+1)

	assert.Greater(t, ramp[0], 0.0, "band-limited ramp keeps a small DC term")
	for k := 1; k < len(ramp); k++ {
		assert.Greater(t, ramp[k], ramp[k-1], "ramp must increase at k=%d", k)
	}
	assert.InDelta(t, 1.0, ramp[n/2], 0.05)

	shepp := frequencyResponse(SheppLogan, n)
	for k := 1; k < len(shepp); k++ {
		assert.Less(t, shepp[k], ramp[k])
	}
}

// TestPaddedLength checks padding sizes
func TestPaddedLength(t *testing.T) {
	assert.Equal(t, 64, paddedLength(1))
	assert.Equal(t, 64, paddedLength(32))
	assert.Equal(t, 128, paddedLength(33))
	assert.Equal(t, 256, paddedLength(128))
}

// TestReconstructErrors covers argument validation
func TestReconstructErrors(t *testing.T) {
	op, err := projection.Build(8, 4)
	require.NoError(t, err)

	_, err = Reconstruct(op, models.NewSinogram(3, 8), Ramp)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = Reconstruct(op, models.NewSinogram(4, 8), "hann")
	assert.True(t, errors.Is(err, ErrUnknownFilter))
}
