package waterpixel

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"waterpixels/internal/models"
	"waterpixels/pkg/markers"
	"waterpixels/pkg/morphology"
)

// Metrics summarizes the regularity of a segmentation
type Metrics struct {
	// Superpixels is the number of distinct non-zero labels
	Superpixels int

	// Fragments is the number of 4-connected regions; equal to Superpixels when every
	// superpixel is a single piece
	Fragments int

	// MeanArea and AreaStdDev describe the superpixel areas in pixels
	MeanArea   float64
	AreaStdDev float64

	// AreaCV is the coefficient of variation of the areas (0 for perfectly even sizes)
	AreaCV float64

	MinArea float64
	MaxArea float64

	// BoundaryFraction is the share of pixels on a region border
	BoundaryFraction float64

	// FallbackMarkers counts the cells seeded by the degenerate fallback
	FallbackMarkers int
}

// ComputeMetrics measures a segmentation. boundaries and ms may be nil.
func ComputeMetrics(labels, boundaries *models.LabelImage, ms []markers.Marker) (Metrics, error) {
	var m Metrics
	if len(labels.Pix) == 0 {
		return m, fmt.Errorf("%w: empty label image", models.ErrEmptyImage)
	}

	var maxLabel int32
	for _, l := range labels.Pix {
		if l < 0 {
			return m, fmt.Errorf("%w: negative label %d", models.ErrInvalidConfiguration, l)
		}
		maxLabel = max(maxLabel, l)
	}
	counts := make([]int, maxLabel+1)
	for _, l := range labels.Pix {
		counts[l]++
	}

	// Areas in label order, background excluded
	var areas []float64
	for _, n := range counts[1:] {
		if n > 0 {
			areas = append(areas, float64(n))
		}
	}
	m.Superpixels = len(areas)

	if m.Superpixels > 0 {
		m.MeanArea, m.AreaStdDev = stat.MeanStdDev(areas, nil)
		if m.Superpixels == 1 {
			m.AreaStdDev = 0
		}
		if m.MeanArea > 0 {
			m.AreaCV = m.AreaStdDev / m.MeanArea
		}
		m.MinArea = floats.Min(areas)
		m.MaxArea = floats.Max(areas)
	}

	_, fragments, err := morphology.LabelComponents(labels, morphology.Conn4)
	if err != nil {
		return m, err
	}
	m.Fragments = fragments

	if boundaries != nil {
		border := 0
		for _, b := range boundaries.Pix {
			if b != 0 {
				border++
			}
		}
		m.BoundaryFraction = float64(border) / float64(len(boundaries.Pix))
	}

	m.FallbackMarkers = countFallbacks(ms)
	return m, nil
}
