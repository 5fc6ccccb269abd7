package morphology

import (
	"fmt"

	"waterpixels/internal/models"
)

// LabelComponents assigns a fresh label to every connected region of equal non-zero labels.
// Regions are numbered from 1 in row-major order of their first pixel; zero stays background.
// It returns the relabeled image and the number of regions.
func LabelComponents(labels *models.LabelImage, conn Connectivity) (*models.LabelImage, int, error) {
	if !conn.valid() {
		return nil, 0, fmt.Errorf("%w: unsupported connectivity %d", models.ErrInvalidConfiguration, conn)
	}

	width, height := labels.Width, labels.Height
	out := models.NewLabelImage(width, height)
	offs := conn.Offsets()

	var next int32
	var stack []int
	for start, l := range labels.Pix {
		if l == 0 || out.Pix[start] != 0 {
			continue
		}
		next++
		out.Pix[start] = next
		stack = append(stack[:0], start)

		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%width, i/width

			for _, d := range offs {
				nx, ny := x+d.X, y+d.Y
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				n := ny*width + nx
				if out.Pix[n] == 0 && labels.Pix[n] == l {
					out.Pix[n] = next
					stack = append(stack, n)
				}
			}
		}
	}
	return out, int(next), nil
}
