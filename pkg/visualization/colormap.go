package visualization

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Colormap maps normalized scalar values in [0, 1] to colors
type Colormap struct {
	colors []colorful.Color
}

// NewGrayColormap builds a color scale from the grayscale palette: black to
// white sampled at the given number of steps, blended in CIE-L*a*b* so the
// steps are perceptually even
func NewGrayColormap(steps int) *Colormap {
	return NewColormap([]colorful.Color{
		{R: 0, G: 0, B: 0},
		{R: 1, G: 1, B: 1},
	}, steps)
}

// NewColormap samples a piecewise Lab blend through the given stops.
// At least two stops and two steps are used.
func NewColormap(stops []colorful.Color, steps int) *Colormap {
	if len(stops) == 0 {
		stops = []colorful.Color{{R: 0, G: 0, B: 0}, {R: 1, G: 1, B: 1}}
	}
	if len(stops) == 1 {
		stops = append(stops, stops[0])
	}
	if steps < 2 {
		steps = 2
	}

	colors := make([]colorful.Color, steps)
	segments := float64(len(stops) - 1)
	for s := 0; s < steps; s++ {
		pos := float64(s) / float64(steps-1) * segments
		seg := int(math.Floor(pos))
		if seg >= len(stops)-1 {
			seg = len(stops) - 2
		}
		t := pos - float64(seg)
		colors[s] = stops[seg].BlendLab(stops[seg+1], t).Clamped()
	}
	return &Colormap{colors: colors}
}

// Len returns the number of discrete colors in the scale
func (c *Colormap) Len() int {
	return len(c.colors)
}

// At returns the color for v, clamped to [0, 1]
func (c *Colormap) At(v float64) color.RGBA {
	if math.IsNaN(v) || v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	idx := int(math.Round(v * float64(len(c.colors)-1)))
	r, g, b := c.colors[idx].RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
