package morphology

import (
	"math"

	"waterpixels/internal/models"
	"waterpixels/internal/parallel"
)

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// Sobel returns the gradient magnitude of f under the 3x3 Sobel kernels, clamped to
// [0, MaxValue]. Pixels outside the image count as zero.
func Sobel(f *models.Field, workers int) *models.Field {
	out := models.NewField(f.Width, f.Height)

	parallel.Rows(f.Height, workers, func(b parallel.Band) {
		for y := b.Start; y < b.End; y++ {
			for x := 0; x < f.Width; x++ {
				var gx, gy float64
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						if !f.InBounds(x+kx, y+ky) {
							continue
						}
						v := f.At(x+kx, y+ky)
						gx += sobelX[ky+1][kx+1] * v
						gy += sobelY[ky+1][kx+1] * v
					}
				}
				out.Set(x, y, math.Min(models.MaxValue, math.Hypot(gx, gy)))
			}
		}
	})
	return out
}
