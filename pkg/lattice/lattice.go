// Package lattice generates the regular grid of cell centers that seeds a waterpixel segmentation.
package lattice

import (
	"fmt"
	"math"

	"waterpixels/internal/models"
)

// Spacing returns the number of lattice columns and rows for an image of the given size.
//
// Each axis holds max(1, ceil((n-1)/sigma)) centers: the lattice covers every full cell and
// extends by one center whenever a partial trailing cell remains, so the last pixel of each
// axis is strictly closer to a center of its own cell than to the previous one.
func Spacing(width, height int, sigma float64) (cols, rows int, err error) {
	if err := validate(width, height, sigma); err != nil {
		return 0, 0, err
	}
	return axisCount(width, sigma), axisCount(height, sigma), nil
}

// Generate produces the ordered cell centers of a rectangular lattice spaced sigma apart and
// offset by sigma/2 from the origin. Centers are ordered column by column (x outer, y inner);
// a center's index in the returned slice is its identity.
//
// Generation is deterministic. It fails with ErrInvalidConfiguration when sigma <= 0 and with
// ErrEmptyImage when the image has zero area.
func Generate(width, height int, sigma float64) ([]models.Point, error) {
	cols, rows, err := Spacing(width, height, sigma)
	if err != nil {
		return nil, err
	}

	centers := make([]models.Point, 0, cols*rows)
	for i := 0; i < cols; i++ {
		x := int(sigma/2 + float64(i)*sigma)
		for j := 0; j < rows; j++ {
			y := int(sigma/2 + float64(j)*sigma)
			centers = append(centers, models.Point{X: x, Y: y})
		}
	}
	return centers, nil
}

func axisCount(n int, sigma float64) int {
	return max(1, int(math.Ceil(float64(n-1)/sigma)))
}

func validate(width, height int, sigma float64) error {
	if math.IsNaN(sigma) || math.IsInf(sigma, 0) || sigma <= 0 {
		return fmt.Errorf("%w: sigma must be a positive finite number, got %v", models.ErrInvalidConfiguration, sigma)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", models.ErrEmptyImage, width, height)
	}
	return nil
}
