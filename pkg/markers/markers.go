// Package markers synthesizes one watershed seed per Voronoi cell.
//
// For every cell the member pixels are shrunk toward the center by a homothety, the minimum of
// the gradient is searched over the shrunk set, the minimal pixels are grouped into 4-connected
// components and one canonical component becomes the cell's marker. Cells are independent and
// processed in parallel; each produces its own Marker, and Merge assembles them into a seed image.
package markers

import (
	"fmt"
	"math"

	"waterpixels/internal/models"
	"waterpixels/internal/parallel"
	"waterpixels/pkg/voronoi"
)

// Epsilon is the tolerance used when collecting pixels equal to the minimum gradient value
const Epsilon = 1e-4

// Selection is the policy choosing the canonical component of a cell
type Selection int

const (
	// ClosestToCenter picks the component containing the pixel nearest the cell center
	ClosestToCenter Selection = iota
	// Largest picks the component with the most pixels
	Largest
)

func (s Selection) String() string {
	switch s {
	case Largest:
		return "largest"
	default:
		return "closest"
	}
}

// ParseSelection converts a configuration name into a Selection
func ParseSelection(name string) (Selection, error) {
	switch name {
	case "", "closest", "closest-to-center":
		return ClosestToCenter, nil
	case "largest":
		return Largest, nil
	}
	return ClosestToCenter, fmt.Errorf("%w: unknown marker selection %q", models.ErrInvalidConfiguration, name)
}

// Marker is the seed of one cell
type Marker struct {
	// Label is the seed label, cell index + 1
	Label int32

	// Cell is the index of the cell the marker belongs to
	Cell int

	// Pixels is the connected pixel set of the marker
	Pixels []models.Point

	// Fallback is true when the cell was degenerate and the marker is a single
	// pixel placed at (or next to) the center
	Fallback bool
}

// Synthesizer holds the marker synthesis parameters
type Synthesizer struct {
	// Sigma is the lattice spacing
	Sigma float64

	// CellScale is the homothety ratio in (0, 1]
	CellScale float64

	// Selection is the canonical component policy
	Selection Selection

	// Epsilon is the minimum tolerance; 0 selects the package default
	Epsilon float64

	// Workers bounds the goroutines used (<= 0 means all CPUs)
	Workers int
}

// Option configures Synthesize
type Option func(*Synthesizer)

// WithSelection sets the canonical component policy
func WithSelection(s Selection) Option {
	return func(syn *Synthesizer) { syn.Selection = s }
}

// WithWorkers bounds the number of goroutines
func WithWorkers(n int) Option {
	return func(syn *Synthesizer) { syn.Workers = n }
}

// WithEpsilon overrides the minimum tolerance
func WithEpsilon(eps float64) Option {
	return func(syn *Synthesizer) { syn.Epsilon = eps }
}

// Synthesize computes one marker per cell of the partition, in cell order
func Synthesize(grad *models.Field, p *voronoi.Partition, sigma, cellScale float64, opts ...Option) ([]Marker, error) {
	s := Synthesizer{Sigma: sigma, CellScale: cellScale}
	for _, opt := range opts {
		opt(&s)
	}
	return s.Synthesize(grad, p)
}

// Validate checks the parameters
func (s Synthesizer) Validate() error {
	if math.IsNaN(s.Sigma) || s.Sigma <= 0 {
		return fmt.Errorf("%w: sigma must be positive, got %v", models.ErrInvalidConfiguration, s.Sigma)
	}
	if math.IsNaN(s.CellScale) || s.CellScale <= 0 || s.CellScale > 1 {
		return fmt.Errorf("%w: cellScale must be in (0,1], got %v", models.ErrInvalidConfiguration, s.CellScale)
	}
	if s.Selection != ClosestToCenter && s.Selection != Largest {
		return fmt.Errorf("%w: unknown marker selection %d", models.ErrInvalidConfiguration, s.Selection)
	}
	if s.Epsilon < 0 {
		return fmt.Errorf("%w: epsilon must be non-negative, got %v", models.ErrInvalidConfiguration, s.Epsilon)
	}
	return nil
}

// Synthesize computes one marker per cell of the partition, in cell order
func (s Synthesizer) Synthesize(grad *models.Field, p *voronoi.Partition) ([]Marker, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if grad.Width != p.Width() || grad.Height != p.Height() {
		return nil, fmt.Errorf("%w: gradient is %dx%d but partition is %dx%d",
			models.ErrInvalidConfiguration, grad.Width, grad.Height, p.Width(), p.Height())
	}
	if s.Epsilon == 0 {
		s.Epsilon = Epsilon
	}

	out := make([]Marker, p.Len())
	err := parallel.ForEach(p.Len(), s.Workers, func(i int) error {
		out[i] = s.cellMarker(grad, p, i)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// cellMarker runs shrink, minimum extraction, component extraction and selection on one cell
func (s Synthesizer) cellMarker(grad *models.Field, p *voronoi.Partition, i int) Marker {
	cell := p.Cell(i)
	m := Marker{Label: int32(i + 1), Cell: i}

	shrunk := shrink(cell, i, p, s.CellScale)
	if len(shrunk) == 0 {
		m.Pixels = []models.Point{fallbackPixel(cell, i, p)}
		m.Fallback = true
		return m
	}

	// Minimum of the gradient over the shrunk set
	minValue := math.Inf(1)
	for _, pt := range shrunk {
		minValue = math.Min(minValue, grad.At(pt.X, pt.Y))
	}

	candidates := make([]models.Point, 0, len(shrunk))
	for _, pt := range shrunk {
		if math.Abs(grad.At(pt.X, pt.Y)-minValue) < s.Epsilon {
			candidates = append(candidates, pt)
		}
	}

	comps := components(candidates)
	if len(comps) == 0 {
		m.Pixels = []models.Point{fallbackPixel(cell, i, p)}
		m.Fallback = true
		return m
	}

	m.Pixels = comps[s.choose(comps, cell.Center)]
	return m
}

// choose returns the index of the canonical component. Ties keep the first component found.
func (s Synthesizer) choose(comps [][]models.Point, center models.Point) int {
	best := 0
	switch s.Selection {
	case Largest:
		for i, c := range comps {
			if len(c) > len(comps[best]) {
				best = i
			}
		}
	default:
		bestDist := int64(math.MaxInt64)
		for i, c := range comps {
			for _, pt := range c {
				if d := pt.DistSq(center); d < bestDist {
					bestDist = d
					best = i
				}
			}
		}
	}
	return best
}

// shrink maps every member pixel p to center + round(-v*scale) with v = p - center, the
// homothety of ratio -scale around the center. Duplicates are removed (first occurrence kept)
// and positions outside the image or owned by another cell are dropped, which keeps markers of
// different cells disjoint.
func shrink(cell voronoi.Cell, i int, p *voronoi.Partition, scale float64) []models.Point {
	if len(cell.Pixels) == 0 {
		return nil
	}

	c := cell.Center
	seen := make(map[models.Point]struct{}, len(cell.Pixels))
	out := make([]models.Point, 0, len(cell.Pixels))
	for _, px := range cell.Pixels {
		v := px.Sub(c)
		q := models.Point{
			X: c.X + int(math.Round(-float64(v.X)*scale)),
			Y: c.Y + int(math.Round(-float64(v.Y)*scale)),
		}

		if !p.Contains(i, q) {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

// fallbackPixel returns the single-pixel marker of a degenerate cell: the bounds-clamped center
// when the cell owns it, otherwise the member pixel nearest the center. Cells without members
// keep the clamped center; Merge reports it if another cell already claimed that pixel.
func fallbackPixel(cell voronoi.Cell, i int, p *voronoi.Partition) models.Point {
	clamped := models.Point{
		X: min(max(cell.Center.X, 0), p.Width()-1),
		Y: min(max(cell.Center.Y, 0), p.Height()-1),
	}
	if len(cell.Pixels) == 0 || p.Contains(i, clamped) {
		return clamped
	}

	best := cell.Pixels[0]
	bestDist := best.DistSq(cell.Center)
	for _, px := range cell.Pixels[1:] {
		if d := px.DistSq(cell.Center); d < bestDist {
			best, bestDist = px, d
		}
	}
	return best
}

// Merge writes the markers into a seed label image. Markers must be non-empty, inside the
// image and pairwise disjoint; a violation means a degenerate cell could not be seeded.
func Merge(width, height int, markers []Marker) (*models.LabelImage, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", models.ErrEmptyImage, width, height)
	}

	seeds := models.NewLabelImage(width, height)
	for _, m := range markers {
		if len(m.Pixels) == 0 {
			return nil, fmt.Errorf("%w: cell %d has an empty marker", models.ErrDegenerateCell, m.Cell)
		}
		for _, px := range m.Pixels {
			if !seeds.InBounds(px.X, px.Y) {
				return nil, fmt.Errorf("%w: cell %d marker pixel %v is outside the image", models.ErrDegenerateCell, m.Cell, px)
			}
			if prev := seeds.At(px.X, px.Y); prev != 0 {
				return nil, fmt.Errorf("%w: cell %d marker pixel %v already seeded by label %d",
					models.ErrDegenerateCell, m.Cell, px, prev)
			}
			seeds.Set(px.X, px.Y, m.Label)
		}
	}
	return seeds, nil
}
