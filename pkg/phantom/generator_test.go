package phantom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cstomo/internal/models"
)

// TestGenerateDeterministic verifies that a fixed (l, seed) pair is reproducible
// and that a different seed changes the image
func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(64, 0)
	require.NoError(t, err)
	b, err := Generate(64, 0)
	require.NoError(t, err)
	c, err := Generate(64, 1)
	require.NoError(t, err)

	assert.Equal(t, a.Data, b.Data)
	assert.NotEqual(t, a.Data, c.Data)
	assert.Equal(t, 64, a.Size)
	assert.Equal(t, 64*64, a.Len())
}

// TestGenerateIsBinaryAndInsideFieldOfView checks the output value domain
func TestGenerateIsBinaryAndInsideFieldOfView(t *testing.T) {
	l := 48
	img, err := Generate(l, 7)
	require.NoError(t, err)
	fov := CircleMask(l)

	ones := 0
	for p, v := range img.Data {
		assert.True(t, v == 0 || v == 1, "pixel %d has value %f", p, v)
		if v == 1 {
			ones++
			assert.Equal(t, 1.0, fov.Data[p], "pixel %d outside field of view", p)
		}
	}
	assert.Greater(t, ones, 0, "phantom should not be empty")
}

// TestGenerateIsBoundary verifies image == blobs - erosion(blobs) and that every
// boundary pixel touches the background
func TestGenerateIsBoundary(t *testing.T) {
	l, seed := 40, int64(3)
	blobs, err := Blobs(l, seed, DefaultOptions())
	require.NoError(t, err)
	img, err := Generate(l, seed)
	require.NoError(t, err)

	eroded := Erode(blobs)
	for p := range img.Data {
		expected := 0.0
		if blobs.Data[p] == 1 && eroded.Data[p] == 0 {
			expected = 1
		}
		assert.Equal(t, expected, img.Data[p], "pixel %d", p)
	}

	for i := 0; i < l; i++ {
		for j := 0; j < l; j++ {
			if img.At(i, j) != 1 {
				continue
			}
			touches := false
			for _, d := range crossNeighbors {
				y, x := i+d[0], j+d[1]
				if y < 0 || y >= l || x < 0 || x >= l || blobs.At(y, x) == 0 {
					touches = true
				}
			}
			assert.True(t, touches, "boundary pixel (%d,%d) has no background neighbor", i, j)
		}
	}
}

// TestGenerateInvalidSize ensures a non-positive size fails fast
func TestGenerateInvalidSize(t *testing.T) {
	for _, l := range []int{0, -1} {
		img, err := Generate(l, 0)
		assert.Nil(t, img)
		assert.True(t, errors.Is(err, ErrInvalidSize))
	}
}

// TestGenerateTinyImages makes sure degenerate sizes do not panic
func TestGenerateTinyImages(t *testing.T) {
	for _, l := range []int{1, 2, 3} {
		img, err := Generate(l, 5)
		require.NoError(t, err)
		assert.Equal(t, l*l, img.Len())
	}
}

// TestErode covers the cross structuring element and the border rule
func TestErode(t *testing.T) {
	img := models.NewImage(5)
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			img.Set(i, j, 1)
		}
	}

	eroded := Erode(img)
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			expected := 0.0
			if i > 0 && i < 4 && j > 0 && j < 4 {
				expected = 1
			}
			assert.Equal(t, expected, eroded.At(i, j), "pixel (%d,%d)", i, j)
		}
	}

	// A plus shape erodes to its center only
	plus := models.NewImage(5)
	plus.Set(2, 2, 1)
	for _, d := range crossNeighbors {
		plus.Set(2+d[0], 2+d[1], 1)
	}
	eroded = Erode(plus)
	assert.Equal(t, 1.0, eroded.At(2, 2))
	total := 0.0
	for _, v := range eroded.Data {
		total += v
	}
	assert.Equal(t, 1.0, total)

	boundary := Boundary(plus)
	assert.Equal(t, 0.0, boundary.At(2, 2))
	assert.Equal(t, 1.0, boundary.At(1, 2))
}

// TestGaussianFilter checks mass preservation and symmetry of the smoothing
func TestGaussianFilter(t *testing.T) {
	img := models.NewImage(21)
	img.Set(10, 10, 1)

	smoothed := GaussianFilter(img, 1.5)
	total := 0.0
	for _, v := range smoothed.Data {
		total += v
	}
	assert.InDelta(t, 1.0, total, 1e-12)
	assert.InDelta(t, smoothed.At(9, 10), smoothed.At(11, 10), 1e-15)
	assert.InDelta(t, smoothed.At(10, 9), smoothed.At(9, 10), 1e-15)
	assert.Greater(t, smoothed.At(10, 10), smoothed.At(10, 11))

	// Reflection keeps constant images constant
	flat := models.NewImage(6)
	for i := range flat.Data {
		flat.Data[i] = 2
	}
	for _, v := range GaussianFilter(flat, 3).Data {
		assert.InDelta(t, 2.0, v, 1e-12)
	}
}

// TestReflectIndex checks half-sample symmetric reflection
func TestReflectIndex(t *testing.T) {
	n := 4
	cases := map[int]int{-1: 0, -2: 1, -4: 3, -5: 3, 0: 0, 3: 3, 4: 3, 5: 2, 8: 0, 9: 1}
	for in, want := range cases {
		assert.Equal(t, want, reflectIndex(in, n), "reflectIndex(%d, %d)", in, n)
	}
	assert.Equal(t, 0, reflectIndex(-3, 1))
}

// TestCircleMask checks the field of view geometry
func TestCircleMask(t *testing.T) {
	mask := CircleMask(10)
	assert.Equal(t, 0.0, mask.At(0, 0))
	assert.Equal(t, 0.0, mask.At(9, 9))
	assert.Equal(t, 1.0, mask.At(5, 5))
	assert.Equal(t, 1.0, mask.At(1, 5))
	assert.Equal(t, 0.0, mask.At(0, 5))
}
