package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"cstomo/internal/models"
)

// ToGray16 converts an image to 16-bit grayscale, stretching its value range
// to the full intensity scale
func ToGray16(img *models.Image) *image.Gray16 {
	return valuesToGray16(img.Data, img.Size, img.Size)
}

// SinogramToGray16 converts a sinogram to 16-bit grayscale with one row per
// direction and one column per detector bin
func SinogramToGray16(s *models.Sinogram) *image.Gray16 {
	return valuesToGray16(s.Data, s.Bins, s.Dirs)
}

func valuesToGray16(data []float64, width, height int) *image.Gray16 {
	gray := image.NewGray16(image.Rect(0, 0, width, height))
	if len(data) == 0 {
		return gray
	}

	lo, hi := floats.Min(data), floats.Max(data)
	span := hi - lo
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if idx >= len(data) {
				continue
			}
			v := 0.0
			if span > 0 {
				v = (data[idx] - lo) / span
			}
			value := uint16(math.Max(0, math.Min(65535, v*65535)))
			gray.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return gray
}

// SaveGray saves a grayscale picture as a JPEG image
func SaveGray(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}
