package waterpixel

import (
	"math"
	"testing"

	"waterpixels/internal/models"
	"waterpixels/pkg/markers"
	"waterpixels/pkg/morphology"
)

func TestComputeMetrics(t *testing.T) {
	labels := models.NewLabelImage(4, 2)
	copy(labels.Pix, []int32{1, 1, 2, 2, 1, 1, 2, 2})

	m, err := ComputeMetrics(labels, morphology.Boundaries(labels, 1), []markers.Marker{{Fallback: true}, {}})
	if err != nil {
		t.Fatalf("ComputeMetrics failed: %v", err)
	}
	if m.Superpixels != 2 || m.Fragments != 2 {
		t.Errorf("expected 2 superpixels in 2 fragments, got %d and %d", m.Superpixels, m.Fragments)
	}
	if m.MeanArea != 4 || m.AreaStdDev != 0 || m.AreaCV != 0 {
		t.Errorf("unexpected area statistics %+v", m)
	}
	if m.BoundaryFraction != 0.5 {
		t.Errorf("expected boundary fraction 0.5, got %v", m.BoundaryFraction)
	}
	if m.FallbackMarkers != 1 {
		t.Errorf("expected 1 fallback marker, got %d", m.FallbackMarkers)
	}
}

func TestComputeMetricsFragments(t *testing.T) {
	labels := models.NewLabelImage(3, 1)
	copy(labels.Pix, []int32{1, 2, 1})

	m, err := ComputeMetrics(labels, nil, nil)
	if err != nil {
		t.Fatalf("ComputeMetrics failed: %v", err)
	}
	if m.Superpixels != 2 || m.Fragments != 3 {
		t.Errorf("expected 2 superpixels in 3 fragments, got %d and %d", m.Superpixels, m.Fragments)
	}
	// Areas 2 and 1: mean 1.5, sample standard deviation sqrt(0.5)
	if m.MeanArea != 1.5 || math.Abs(m.AreaStdDev-math.Sqrt(0.5)) > 1e-12 {
		t.Errorf("unexpected area statistics %+v", m)
	}
	if m.MinArea != 1 || m.MaxArea != 2 {
		t.Errorf("unexpected area range %v..%v", m.MinArea, m.MaxArea)
	}
}
