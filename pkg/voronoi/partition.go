// Package voronoi assigns every pixel of an image to its nearest cell center.
//
// The default strategy uses a coarse acceleration grid sized to the average center spacing,
// so each pixel only scans the few centers registered near it. A brute-force scan over all
// centers and a k-d tree search are provided as interchangeable strategies; all three produce
// identical partitions, including the tie rule (the center with the lower index wins).
package voronoi

import (
	"fmt"

	"waterpixels/internal/models"
	"waterpixels/internal/parallel"
)

// Strategy selects how the nearest center of a pixel is found
type Strategy int

const (
	// Grid scans the centers registered in the pixel's acceleration bucket
	Grid Strategy = iota
	// BruteForce scans every center for every pixel
	BruteForce
	// KDTree queries a gonum k-d tree built over the centers
	KDTree
)

func (s Strategy) String() string {
	switch s {
	case BruteForce:
		return "bruteforce"
	case KDTree:
		return "kdtree"
	default:
		return "grid"
	}
}

// ParseStrategy converts a configuration name into a Strategy
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "grid":
		return Grid, nil
	case "bruteforce", "brute-force":
		return BruteForce, nil
	case "kdtree", "kd-tree":
		return KDTree, nil
	}
	return Grid, fmt.Errorf("%w: unknown partition strategy %q", models.ErrInvalidConfiguration, name)
}

// ProgressCallback reports partition progress. It is purely informational.
type ProgressCallback func(completed, total int, message string)

// Cell is one Voronoi cell: a center and the pixels closest to it, in row-major order
type Cell struct {
	Center models.Point
	Pixels []models.Point
}

// Partition is an immutable assignment of every pixel of a width x height image to a cell
type Partition struct {
	width  int
	height int
	cells  []Cell

	// owner maps each pixel (row-major) to the index of its cell
	owner []int32
}

// Option configures Build
type Option func(*buildOptions)

type buildOptions struct {
	strategy Strategy
	workers  int
	progress ProgressCallback
}

// WithStrategy selects the nearest-center search strategy
func WithStrategy(s Strategy) Option {
	return func(o *buildOptions) { o.strategy = s }
}

// WithWorkers bounds the number of goroutines used (<= 0 means runtime.NumCPU())
func WithWorkers(n int) Option {
	return func(o *buildOptions) { o.workers = n }
}

// WithProgress installs a progress callback invoked once per completed row band
func WithProgress(cb ProgressCallback) Option {
	return func(o *buildOptions) { o.progress = cb }
}

// nearestFunc returns the index of the center closest to p
type nearestFunc func(p models.Point) int

// Build partitions a width x height image into Voronoi cells around centers.
//
// Rows are split into bands processed in parallel. Each band writes its own rows of the owner
// map and collects private per-cell pixel lists; the lists are then merged serially in band
// order, so the result is deterministic and no cell container is shared between goroutines.
func Build(width, height int, centers []models.Point, opts ...Option) (*Partition, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", models.ErrEmptyImage, width, height)
	}
	if len(centers) == 0 {
		return nil, fmt.Errorf("%w: center list is empty", models.ErrInvalidConfiguration)
	}

	o := buildOptions{strategy: Grid}
	for _, opt := range opts {
		opt(&o)
	}

	var nearest nearestFunc
	switch o.strategy {
	case Grid:
		nearest = newAccelerationGrid(width, height, centers).nearest
	case BruteForce:
		nearest = func(p models.Point) int { return NearestBruteForce(p, centers) }
	case KDTree:
		nearest = newCenterTree(centers).nearest
	default:
		return nil, fmt.Errorf("%w: unknown partition strategy %d", models.ErrInvalidConfiguration, o.strategy)
	}

	p := &Partition{
		width:  width,
		height: height,
		cells:  make([]Cell, len(centers)),
		owner:  make([]int32, width*height),
	}
	for i, c := range centers {
		p.cells[i].Center = c
	}

	bands := parallel.Bands(height, o.workers)
	partials := make([][][]models.Point, len(bands))

	completed := 0
	progress := make(chan int, len(bands))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range progress {
			completed++
			if o.progress != nil {
				o.progress(completed, len(bands), "")
			}
		}
	}()

	err := parallel.ForEachBand(height, o.workers, func(b parallel.Band) error {
		local := make([][]models.Point, len(centers))
		for y := b.Start; y < b.End; y++ {
			for x := 0; x < width; x++ {
				pt := models.Point{X: x, Y: y}
				idx := nearest(pt)
				p.owner[y*width+x] = int32(idx)
				local[idx] = append(local[idx], pt)
			}
		}
		partials[b.Index] = local
		progress <- b.Index
		return nil
	})
	close(progress)
	<-done
	if err != nil {
		return nil, fmt.Errorf("failed to assign pixels: %w", err)
	}

	// Merge band results in row order
	for i := range p.cells {
		n := 0
		for _, local := range partials {
			n += len(local[i])
		}
		pixels := make([]models.Point, 0, n)
		for _, local := range partials {
			pixels = append(pixels, local[i]...)
		}
		p.cells[i].Pixels = pixels
	}

	return p, nil
}

// Width returns the image width
func (p *Partition) Width() int { return p.width }

// Height returns the image height
func (p *Partition) Height() int { return p.height }

// Len returns the number of cells
func (p *Partition) Len() int { return len(p.cells) }

// Cells returns the cells in center order. The slice must not be modified.
func (p *Partition) Cells() []Cell { return p.cells }

// Cell returns the i-th cell
func (p *Partition) Cell(i int) Cell { return p.cells[i] }

// Center returns the center of the i-th cell
func (p *Partition) Center(i int) models.Point { return p.cells[i].Center }

// Owner returns the index of the cell containing pixel (x, y)
func (p *Partition) Owner(x, y int) int {
	return int(p.owner[y*p.width+x])
}

// Contains reports whether pixel pt is inside the image and belongs to cell i
func (p *Partition) Contains(i int, pt models.Point) bool {
	if pt.X < 0 || pt.Y < 0 || pt.X >= p.width || pt.Y >= p.height {
		return false
	}
	return int(p.owner[pt.Y*p.width+pt.X]) == i
}

// OwnerImage returns the owner map as a label image with labels cell index + 1
func (p *Partition) OwnerImage() *models.LabelImage {
	img := models.NewLabelImage(p.width, p.height)
	for i, o := range p.owner {
		img.Pix[i] = o + 1
	}
	return img
}

// Validate checks that the cells form a true partition of the image: every pixel appears in
// exactly one cell and agrees with the owner map.
func (p *Partition) Validate() error {
	seen := make([]bool, p.width*p.height)
	total := 0
	for i, c := range p.cells {
		for _, pt := range c.Pixels {
			if pt.X < 0 || pt.Y < 0 || pt.X >= p.width || pt.Y >= p.height {
				return fmt.Errorf("cell %d contains out-of-bounds pixel %v", i, pt)
			}
			idx := pt.Y*p.width + pt.X
			if seen[idx] {
				return fmt.Errorf("pixel %v belongs to more than one cell", pt)
			}
			if int(p.owner[idx]) != i {
				return fmt.Errorf("pixel %v listed in cell %d but owned by cell %d", pt, i, p.owner[idx])
			}
			seen[idx] = true
			total++
		}
	}
	if total != len(seen) {
		return fmt.Errorf("partition covers %d of %d pixels", total, len(seen))
	}
	return nil
}
