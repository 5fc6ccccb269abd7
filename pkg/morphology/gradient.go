// Package morphology provides the raster operators the waterpixel pipeline consumes: the
// morphological and Sobel gradients, the seeded flood watershed, and connected-component
// labeling.
package morphology

import (
	"fmt"
	"math"

	"waterpixels/internal/models"
	"waterpixels/internal/parallel"
)

// Connectivity is a pixel neighborhood. Used as a structuring element it also includes the
// origin pixel.
type Connectivity int

const (
	// Conn4 is the 4-neighborhood
	Conn4 Connectivity = 4
	// Conn8 is the 8-neighborhood
	Conn8 Connectivity = 8

	// Plus is the plus-shaped 3x3 structuring element
	Plus = Conn4
	// Square is the full 3x3 structuring element
	Square = Conn8
)

var (
	offsets4 = []models.Point{{X: 0, Y: -1}, {X: -1, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	offsets8 = []models.Point{
		{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
		{X: -1, Y: 0}, {X: 1, Y: 0},
		{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
	}
)

// Offsets returns the neighbor offsets of the connectivity
func (c Connectivity) Offsets() []models.Point {
	if c == Conn8 {
		return offsets8
	}
	return offsets4
}

func (c Connectivity) valid() bool {
	return c == Conn4 || c == Conn8
}

// GradientKind selects the gradient operator applied to the intensity image
type GradientKind int

const (
	// Morphological is dilation minus erosion over the plus element
	Morphological GradientKind = iota
	// SobelKind is the 3x3 Sobel magnitude
	SobelKind
)

func (k GradientKind) String() string {
	if k == SobelKind {
		return "sobel"
	}
	return "morphological"
}

// ParseGradient converts a configuration name into a GradientKind
func ParseGradient(name string) (GradientKind, error) {
	switch name {
	case "", "morphological", "morpho":
		return Morphological, nil
	case "sobel":
		return SobelKind, nil
	}
	return Morphological, fmt.Errorf("%w: unknown gradient %q", models.ErrInvalidConfiguration, name)
}

// Compute applies the selected gradient operator using at most `workers` goroutines
func (k GradientKind) Compute(f *models.Field, workers int) (*models.Field, error) {
	switch k {
	case Morphological:
		return Gradient(f, Plus, workers), nil
	case SobelKind:
		return Sobel(f, workers), nil
	}
	return nil, fmt.Errorf("%w: unknown gradient %d", models.ErrInvalidConfiguration, k)
}

// Gradient returns the morphological gradient of f, the dilation minus the erosion under the
// structuring element se. Neighbors outside the image are ignored. Rows are split over at most
// `workers` goroutines (<= 0 means all CPUs).
func Gradient(f *models.Field, se Connectivity, workers int) *models.Field {
	out := models.NewField(f.Width, f.Height)
	offs := se.Offsets()

	parallel.Rows(f.Height, workers, func(b parallel.Band) {
		for y := b.Start; y < b.End; y++ {
			for x := 0; x < f.Width; x++ {
				lo, hi := f.At(x, y), f.At(x, y)
				for _, d := range offs {
					nx, ny := x+d.X, y+d.Y
					if !f.InBounds(nx, ny) {
						continue
					}
					v := f.At(nx, ny)
					lo = math.Min(lo, v)
					hi = math.Max(hi, v)
				}
				out.Set(x, y, hi-lo)
			}
		}
	})
	return out
}

// LabelGradient is the morphological gradient of a label image: for each pixel, the largest
// minus the smallest label under se
func LabelGradient(labels *models.LabelImage, se Connectivity, workers int) *models.LabelImage {
	out := models.NewLabelImage(labels.Width, labels.Height)
	offs := se.Offsets()

	parallel.Rows(labels.Height, workers, func(b parallel.Band) {
		for y := b.Start; y < b.End; y++ {
			for x := 0; x < labels.Width; x++ {
				lo, hi := labels.At(x, y), labels.At(x, y)
				for _, d := range offs {
					nx, ny := x+d.X, y+d.Y
					if !labels.InBounds(nx, ny) {
						continue
					}
					v := labels.At(nx, ny)
					lo = min(lo, v)
					hi = max(hi, v)
				}
				out.Set(x, y, hi-lo)
			}
		}
	})
	return out
}

// Binarize maps every non-zero value to 1
func Binarize(img *models.LabelImage) *models.LabelImage {
	out := models.NewLabelImage(img.Width, img.Height)
	for i, v := range img.Pix {
		if v != 0 {
			out.Pix[i] = 1
		}
	}
	return out
}

// Boundaries returns the binary boundary map of a segmentation under the plus element
func Boundaries(labels *models.LabelImage, workers int) *models.LabelImage {
	return Binarize(LabelGradient(labels, Plus, workers))
}
