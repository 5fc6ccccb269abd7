// Package regularization biases a gradient field by the distance of each pixel to the center of
// its Voronoi cell, so that watershed basins follow the cell layout instead of wandering.
package regularization

import (
	"fmt"
	"math"

	"waterpixels/internal/models"
	"waterpixels/internal/parallel"
	"waterpixels/pkg/voronoi"
)

// Metric is the distance used between a pixel and its cell center
type Metric int

const (
	// Euclidean is the L2 distance
	Euclidean Metric = iota
	// Chebyshev is the L-infinity distance, max(|dx|, |dy|)
	Chebyshev
)

func (m Metric) String() string {
	switch m {
	case Chebyshev:
		return "chebyshev"
	default:
		return "euclidean"
	}
}

// ParseMetric converts a configuration name into a Metric
func ParseMetric(name string) (Metric, error) {
	switch name {
	case "", "euclidean", "l2":
		return Euclidean, nil
	case "chebyshev", "linf":
		return Chebyshev, nil
	}
	return Euclidean, fmt.Errorf("%w: unknown distance metric %q", models.ErrInvalidConfiguration, name)
}

// Distance returns the distance between p and c under the metric
func (m Metric) Distance(p, c models.Point) float64 {
	dx := math.Abs(float64(p.X - c.X))
	dy := math.Abs(float64(p.Y - c.Y))
	if m == Chebyshev {
		return math.Max(dx, dy)
	}
	return math.Sqrt(dx*dx + dy*dy)
}

// Regularizer holds the parameters of the spatial regularization
type Regularizer struct {
	// Sigma is the lattice spacing used to normalize distances
	Sigma float64

	// K is the regularization strength; 0 leaves the field unchanged
	K float64

	// Metric selects the pixel-to-center distance
	Metric Metric

	// Workers bounds the goroutines used (<= 0 means all CPUs)
	Workers int
}

// Apply is a convenience wrapper around Regularizer.Apply
func Apply(grad *models.Field, p *voronoi.Partition, sigma, k float64, metric Metric) (*models.Field, error) {
	r := Regularizer{Sigma: sigma, K: k, Metric: metric}
	return r.Apply(grad, p)
}

// Validate checks the parameters
func (r Regularizer) Validate() error {
	if math.IsNaN(r.Sigma) || r.Sigma <= 0 {
		return fmt.Errorf("%w: sigma must be positive, got %v", models.ErrInvalidConfiguration, r.Sigma)
	}
	if math.IsNaN(r.K) || math.IsInf(r.K, 0) || r.K < 0 {
		return fmt.Errorf("%w: k must be a non-negative number, got %v", models.ErrInvalidConfiguration, r.K)
	}
	if r.Metric != Euclidean && r.Metric != Chebyshev {
		return fmt.Errorf("%w: unknown distance metric %d", models.ErrInvalidConfiguration, r.Metric)
	}
	return nil
}

// Apply returns clamp(grad + K*(2d/Sigma), 0, MaxValue) where d is the distance from each
// pixel to the center of its cell. The input field is not modified.
func (r Regularizer) Apply(grad *models.Field, p *voronoi.Partition) (*models.Field, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if grad.Width != p.Width() || grad.Height != p.Height() {
		return nil, fmt.Errorf("%w: gradient is %dx%d but partition is %dx%d",
			models.ErrInvalidConfiguration, grad.Width, grad.Height, p.Width(), p.Height())
	}

	out := models.NewField(grad.Width, grad.Height)
	scale := r.K * 2 / r.Sigma

	err := parallel.ForEachBand(grad.Height, r.Workers, func(b parallel.Band) error {
		for y := b.Start; y < b.End; y++ {
			for x := 0; x < grad.Width; x++ {
				center := p.Center(p.Owner(x, y))
				d := r.Metric.Distance(models.Point{X: x, Y: y}, center)
				v := grad.At(x, y) + scale*d
				out.Set(x, y, math.Max(0, math.Min(models.MaxValue, v)))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
