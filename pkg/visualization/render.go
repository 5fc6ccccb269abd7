// Package visualization renders segmentation results and intermediate rasters as images.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"waterpixels/internal/models"
	"waterpixels/pkg/voronoi"
	"waterpixels/pkg/waterpixel"
)

// BoundaryColor is the default overlay color
var BoundaryColor = color.NRGBA{R: 255, G: 0, B: 0, A: 255}

// FieldImage converts a scalar field into a grayscale image, clamping values to [0, 255]
func FieldImage(f *models.Field) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	for i, v := range f.Pix {
		img.Pix[i] = uint8(math.Round(math.Max(0, math.Min(models.MaxValue, v))))
	}
	return img
}

// BoundaryImage converts a binary boundary map into a black image with white borders
func BoundaryImage(b *models.LabelImage) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for i, v := range b.Pix {
		if v != 0 {
			img.Pix[i] = 255
		}
	}
	return img
}

// Overlay paints the boundary pixels over src with color c
func Overlay(src image.Image, b *models.LabelImage, c color.Color) (*image.NRGBA, error) {
	bounds := src.Bounds()
	if bounds.Dx() != b.Width || bounds.Dy() != b.Height {
		return nil, fmt.Errorf("%w: image is %dx%d but boundaries are %dx%d",
			models.ErrInvalidConfiguration, bounds.Dx(), bounds.Dy(), b.Width, b.Height)
	}

	out := imaging.Clone(src)
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.At(x, y) != 0 {
				out.SetNRGBA(x, y, nc)
			}
		}
	}
	return out, nil
}

// LabelColor returns a stable, well separated color for a label. Hues step by the golden
// angle so neighboring labels differ strongly.
func LabelColor(label int32) color.NRGBA {
	if label == 0 {
		return color.NRGBA{A: 255}
	}
	hue := math.Mod(float64(label)*137.50776405, 360)
	r, g, b := colorful.Hsv(hue, 0.65, 0.95).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// LabelColors paints every label with its LabelColor; label 0 stays black
func LabelColors(labels *models.LabelImage) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, labels.Width, labels.Height))
	for y := 0; y < labels.Height; y++ {
		for x := 0; x < labels.Width; x++ {
			img.SetNRGBA(x, y, LabelColor(labels.At(x, y)))
		}
	}
	return img
}

// PartitionDebug draws the cell borders of a partition in green and the in-image centers
// in red on a black background
func PartitionDebug(p *voronoi.Partition) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.Width(), p.Height()))
	black := color.NRGBA{A: 255}
	green := color.NRGBA{G: 255, A: 255}
	red := color.NRGBA{R: 255, A: 255}

	for y := 0; y < p.Height(); y++ {
		for x := 0; x < p.Width(); x++ {
			c := black
			o := p.Owner(x, y)
			if (x+1 < p.Width() && p.Owner(x+1, y) != o) || (y+1 < p.Height() && p.Owner(x, y+1) != o) {
				c = green
			}
			img.SetNRGBA(x, y, c)
		}
	}
	for _, cell := range p.Cells() {
		if cell.Center.X >= 0 && cell.Center.Y >= 0 && cell.Center.X < p.Width() && cell.Center.Y < p.Height() {
			img.SetNRGBA(cell.Center.X, cell.Center.Y, red)
		}
	}
	return img
}

// SaveImage writes img to filename, creating the parent directory. The format follows the
// file extension.
func SaveImage(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := imaging.Save(img, filename); err != nil {
		return fmt.Errorf("failed to save %s: %w", filename, err)
	}
	return nil
}

// Stage file names written by SaveIntermediaryResults, in pipeline order
var Stages = []string{
	"01_intensity.png",
	"02_gradient.png",
	"03_partition.png",
	"04_regularized.png",
	"05_markers.png",
	"06_labels.png",
	"07_boundaries.png",
}

// SaveIntermediaryResults writes one image per pipeline stage into outputDir
func SaveIntermediaryResults(outputDir string, intensity *models.Field, res *waterpixel.Result) error {
	images := []image.Image{
		FieldImage(intensity),
		FieldImage(res.Gradient),
		PartitionDebug(res.Partition),
		FieldImage(res.Regularized),
		LabelColors(res.Seeds),
		LabelColors(res.Labels),
		BoundaryImage(res.Boundaries),
	}

	for i, img := range images {
		if err := SaveImage(img, filepath.Join(outputDir, Stages[i])); err != nil {
			return err
		}
	}
	return nil
}
