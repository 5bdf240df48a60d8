package phantom

import "cstomo/internal/models"

// crossNeighbors is the 4-connected structuring element (without the center)
var crossNeighbors = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Erode computes the binary erosion of img with a 3×3 cross structuring
// element. Pixels outside the grid count as background, so foreground pixels
// on the image border are always eroded.
func Erode(img *models.Image) *models.Image {
	n := img.Size
	out := models.NewImage(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if img.At(i, j) == 0 {
				continue
			}
			keep := true
			for _, d := range crossNeighbors {
				y, x := i+d[0], j+d[1]
				if y < 0 || y >= n || x < 0 || x >= n || img.At(y, x) == 0 {
					keep = false
					break
				}
			}
			if keep {
				out.Set(i, j, 1)
			}
		}
	}
	return out
}

// Boundary returns the pixels of img that are removed by one erosion step
func Boundary(img *models.Image) *models.Image {
	eroded := Erode(img)
	out := models.NewImage(img.Size)
	for p, v := range img.Data {
		if v != 0 && eroded.Data[p] == 0 {
			out.Data[p] = 1
		}
	}
	return out
}

// CircleMask returns a binary image marking the circular field of view
// (i - l/2)² + (j - l/2)² < (l/2)²
func CircleMask(l int) *models.Image {
	mask := models.NewImage(l)
	c := float64(l) / 2.0
	for i := 0; i < l; i++ {
		for j := 0; j < l; j++ {
			di, dj := float64(i)-c, float64(j)-c
			if di*di+dj*dj < c*c {
				mask.Set(i, j, 1)
			}
		}
	}
	return mask
}
