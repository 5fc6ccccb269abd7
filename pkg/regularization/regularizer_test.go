package regularization

import (
	"errors"
	"math"
	"sort"
	"testing"

	"gonum.org/v1/gonum/floats"

	"waterpixels/internal/models"
	"waterpixels/pkg/lattice"
	"waterpixels/pkg/voronoi"
)

// buildPartition creates a lattice partition for tests
func buildPartition(t *testing.T, width, height int, sigma float64) *voronoi.Partition {
	t.Helper()
	centers, err := lattice.Generate(width, height, sigma)
	if err != nil {
		t.Fatalf("Failed to generate lattice: %v", err)
	}
	p, err := voronoi.Build(width, height, centers)
	if err != nil {
		t.Fatalf("Failed to build partition: %v", err)
	}
	return p
}

// constantField returns a field filled with v
func constantField(width, height int, v float64) *models.Field {
	f := models.NewField(width, height)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

// TestApplyIdentity verifies that k=0 leaves the gradient unchanged
func TestApplyIdentity(t *testing.T) {
	p := buildPartition(t, 40, 30, 10)
	grad := models.NewField(40, 30)
	for i := range grad.Pix {
		grad.Pix[i] = float64((i * 37) % 256)
	}

	for _, m := range []Metric{Euclidean, Chebyshev} {
		out, err := Apply(grad, p, 10, 0, m)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if !floats.Equal(out.Pix, grad.Pix) {
			t.Errorf("%v: k=0 should be the identity", m)
		}
	}
}

// TestApplyMonotonic verifies that the cost grows with the distance to the center
// and equals the raw gradient at the center itself
func TestApplyMonotonic(t *testing.T) {
	const sigma = 20.0
	p := buildPartition(t, 60, 60, sigma)
	grad := constantField(60, 60, 30)

	for _, m := range []Metric{Euclidean, Chebyshev} {
		out, err := Apply(grad, p, sigma, 5, m)
		if err != nil {
			t.Fatalf("Apply failed: %v", err)
		}

		for i, cell := range p.Cells() {
			c := cell.Center
			if out.At(c.X, c.Y) != grad.At(c.X, c.Y) {
				t.Errorf("%v cell %d: value at center %.3f, expected %.3f", m, i, out.At(c.X, c.Y), grad.At(c.X, c.Y))
			}

			// Sort member pixels by distance and check the values never decrease
			type sample struct{ d, v float64 }
			samples := make([]sample, len(cell.Pixels))
			for j, px := range cell.Pixels {
				samples[j] = sample{d: m.Distance(px, c), v: out.At(px.X, px.Y)}
			}
			sort.Slice(samples, func(a, b int) bool { return samples[a].d < samples[b].d })
			for j := 1; j < len(samples); j++ {
				if samples[j].v < samples[j-1].v {
					t.Fatalf("%v cell %d: value decreases from %.3f to %.3f as d goes %.3f -> %.3f",
						m, i, samples[j-1].v, samples[j].v, samples[j-1].d, samples[j].d)
				}
			}
		}
	}
}

// TestApplyFormula checks exact values for both metrics
func TestApplyFormula(t *testing.T) {
	p := buildPartition(t, 20, 20, 20) // one cell centered on (10,10)
	grad := constantField(20, 20, 100)

	eu, err := Apply(grad, p, 20, 4, Euclidean)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	ch, err := Apply(grad, p, 20, 4, Chebyshev)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Pixel (13,14): dx=3, dy=4
	if got, want := eu.At(13, 14), 100+4*(2*5.0/20); math.Abs(got-want) > 1e-9 {
		t.Errorf("euclidean: expected %.4f, got %.4f", want, got)
	}
	if got, want := ch.At(13, 14), 100+4*(2*4.0/20); math.Abs(got-want) > 1e-9 {
		t.Errorf("chebyshev: expected %.4f, got %.4f", want, got)
	}
}

// TestApplyClamps verifies the [0, MaxValue] clamp
func TestApplyClamps(t *testing.T) {
	p := buildPartition(t, 30, 30, 30)
	grad := constantField(30, 30, 250)

	out, err := Apply(grad, p, 30, 100, Euclidean)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if hi := floats.Max(out.Pix); hi > models.MaxValue {
		t.Errorf("expected values <= %v, got %v", models.MaxValue, hi)
	}
	if out.At(0, 0) != models.MaxValue {
		t.Errorf("corner should saturate, got %v", out.At(0, 0))
	}
}

// TestApplyInvalid verifies the configuration errors
func TestApplyInvalid(t *testing.T) {
	p := buildPartition(t, 10, 10, 5)
	grad := models.NewField(10, 10)

	testCases := []struct {
		name     string
		sigma, k float64
		grad     *models.Field
	}{
		{"zero sigma", 0, 1, grad},
		{"negative k", 5, -1, grad},
		{"nan k", 5, math.NaN(), grad},
		{"size mismatch", 5, 1, models.NewField(11, 10)},
	}
	for _, tc := range testCases {
		if _, err := Apply(tc.grad, p, tc.sigma, tc.k, Euclidean); !errors.Is(err, models.ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration, got %v", tc.name, err)
		}
	}

	if _, err := ParseMetric("manhattan"); !errors.Is(err, models.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for unknown metric, got %v", err)
	}
	if m, err := ParseMetric("chebyshev"); err != nil || m != Chebyshev {
		t.Errorf("ParseMetric(chebyshev) = %v, %v", m, err)
	}
}
