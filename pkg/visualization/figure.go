// Package visualization renders images and sinograms as heatmaps, either as
// single grayscale panels or as a side-by-side comparison figure.
package visualization

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"

	"cstomo/internal/models"
)

// ErrNoPanels is returned when a figure is requested without any panel
var ErrNoPanels = errors.New("visualization: no panels to render")

// Panel is one titled image of a figure
type Panel struct {
	Title string
	Image *models.Image
}

// FigureOptions controls the layout of a figure
type FigureOptions struct {
	// Scale is the integer upscaling factor applied to every pixel
	Scale int

	// Padding is the gap in output pixels around and between panels
	Padding int

	// Colormap maps normalized panel values to colors
	Colormap *Colormap

	// Background fills the padding
	Background color.Color
}

// DefaultFigureOptions returns a white-background grayscale layout
func DefaultFigureOptions() FigureOptions {
	return FigureOptions{
		Scale:      4,
		Padding:    8,
		Colormap:   NewGrayColormap(256),
		Background: color.White,
	}
}

// RenderFigure lays the panels out side by side. Each panel is normalized
// to its own min/max range before color mapping.
func RenderFigure(panels []Panel, opts FigureOptions) (*image.RGBA, error) {
	if len(panels) == 0 {
		return nil, ErrNoPanels
	}
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}
	if opts.Colormap == nil {
		opts.Colormap = NewGrayColormap(256)
	}
	if opts.Background == nil {
		opts.Background = color.White
	}

	maxSize := 0
	for i, p := range panels {
		if p.Image == nil || p.Image.Size < 1 {
			return nil, fmt.Errorf("panel %d (%s) has no image", i, p.Title)
		}
		if p.Image.Size > maxSize {
			maxSize = p.Image.Size
		}
	}

	cell := maxSize * opts.Scale
	width := len(panels)*cell + (len(panels)+1)*opts.Padding
	height := cell + 2*opts.Padding

	fig := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(fig, fig.Bounds(), &image.Uniform{C: opts.Background}, image.Point{}, draw.Src)

	for k, p := range panels {
		x0 := opts.Padding + k*(cell+opts.Padding)
		y0 := opts.Padding
		drawPanel(fig, p.Image, x0, y0, opts.Scale, opts.Colormap)
	}

	return fig, nil
}

// drawPanel paints img at (x0, y0) with each pixel as a scale×scale block.
// Row i of the image is drawn as row i of the panel.
func drawPanel(dst *image.RGBA, img *models.Image, x0, y0, scale int, cmap *Colormap) {
	lo, hi := floats.Min(img.Data), floats.Max(img.Data)
	span := hi - lo

	for i := 0; i < img.Size; i++ {
		for j := 0; j < img.Size; j++ {
			v := 0.0
			if span > 0 {
				v = (img.At(i, j) - lo) / span
			}
			c := cmap.At(v)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					dst.SetRGBA(x0+j*scale+dx, y0+i*scale+dy, c)
				}
			}
		}
	}
}

// SaveFigure writes img as a PNG file, creating the parent directory
func SaveFigure(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create figure directory: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// WriteLegend writes the panel titles, left to right, next to a figure
func WriteLegend(panels []Panel, filename string) error {
	var b strings.Builder
	for k, p := range panels {
		fmt.Fprintf(&b, "panel %d: %s\n", k+1, p.Title)
	}
	return os.WriteFile(filename, []byte(b.String()), 0644)
}

// LegendPath returns the legend file name for a figure file name
func LegendPath(figure string) string {
	return strings.TrimSuffix(figure, filepath.Ext(figure)) + ".txt"
}
