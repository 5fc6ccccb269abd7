// Package intensity projects color images onto the scalar field the segmentation runs on.
package intensity

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"waterpixels/internal/models"
	"waterpixels/internal/parallel"
)

// Mode selects the RGB to intensity conversion
type Mode int

const (
	// ModeCIELab is the CIE L* lightness computed with a fixed RGB to XYZ matrix
	ModeCIELab Mode = iota
	// ModeColorful is the CIE L* lightness of go-colorful (sRGB, D65)
	ModeColorful
)

func (m Mode) String() string {
	if m == ModeColorful {
		return "colorful"
	}
	return "cielab"
}

// ParseMode converts a configuration name into a Mode
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "cielab", "lab":
		return ModeCIELab, nil
	case "colorful":
		return ModeColorful, nil
	}
	return ModeCIELab, fmt.Errorf("%w: unknown intensity mode %q", models.ErrInvalidConfiguration, name)
}

// Luminance coefficients of the Y row of the RGB to XYZ matrix. They sum to one, so the
// reference white has Y = 255.
const (
	yr = 0.299
	yg = 0.587
	yb = 0.114
)

// Lightness returns the CIE L* of an 8-bit RGB triple scaled from [0,100] to [0,MaxValue]
func Lightness(r, g, b uint8) float64 {
	t := (yr*float64(r) + yg*float64(g) + yb*float64(b)) / 255

	var l float64
	if t > 0.008856 {
		l = 116*math.Cbrt(t) - 16
	} else {
		l = 903.3 * t
	}
	return clamp(l / 100 * models.MaxValue)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(models.MaxValue, v))
}

// FromImage converts img into an intensity field. The field origin is the top-left corner of
// the image bounds. Rows are converted by at most `workers` goroutines (<= 0 means all CPUs).
func FromImage(img image.Image, mode Mode, workers int) (*models.Field, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", models.ErrEmptyImage, b.Dx(), b.Dy())
	}
	if mode != ModeCIELab && mode != ModeColorful {
		return nil, fmt.Errorf("%w: unknown intensity mode %d", models.ErrInvalidConfiguration, mode)
	}

	// imaging works on NRGBA, which also gives un-premultiplied 8-bit samples
	src := imaging.Clone(img)
	f := models.NewField(b.Dx(), b.Dy())

	parallel.Rows(f.Height, workers, func(band parallel.Band) {
		for y := band.Start; y < band.End; y++ {
			for x := 0; x < f.Width; x++ {
				i := src.PixOffset(x, y)
				r, g, bl := src.Pix[i], src.Pix[i+1], src.Pix[i+2]

				switch mode {
				case ModeColorful:
					c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(bl) / 255}
					l, _, _ := c.Lab()
					f.Set(x, y, clamp(l*models.MaxValue))
				default:
					f.Set(x, y, Lightness(r, g, bl))
				}
			}
		}
	})
	return f, nil
}

// Prepare blurs img with a Gaussian of the given sigma (skipped when blur <= 0) and converts
// the result into an intensity field
func Prepare(img image.Image, blur float64, mode Mode, workers int) (*models.Field, error) {
	if math.IsNaN(blur) || blur < 0 {
		return nil, fmt.Errorf("%w: blur must be non-negative, got %v", models.ErrInvalidConfiguration, blur)
	}
	if blur > 0 {
		img = imaging.Blur(img, blur)
	}
	return FromImage(img, mode, workers)
}
