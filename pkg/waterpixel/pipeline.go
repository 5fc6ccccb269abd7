// Package waterpixel runs the complete waterpixel segmentation.
//
// The pipeline consists of six steps:
// 1. Computing the gradient of the intensity image
// 2. Partitioning the image into Voronoi cells around a regular lattice of centers
// 3. Regularizing the gradient by the distance of each pixel to its cell center
// 4. Synthesizing one marker per cell from the raw gradient
// 5. Flooding the regularized gradient from the markers
// 6. Extracting the binary boundaries of the resulting regions
package waterpixel

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"waterpixels/internal/models"
	"waterpixels/pkg/lattice"
	"waterpixels/pkg/markers"
	"waterpixels/pkg/morphology"
	"waterpixels/pkg/regularization"
	"waterpixels/pkg/voronoi"
)

// ProgressCallback reports the completion of pipeline steps. It is purely informational.
type ProgressCallback func(completed, total int, message string)

// Params holds the segmentation parameters
type Params struct {
	// Sigma is the lattice spacing, roughly the superpixel diameter in pixels
	Sigma float64

	// K is the spatial regularization strength. 0 disables regularization.
	K float64

	// CellScale is the homothety ratio applied to each cell before the marker search
	CellScale float64

	// Selection picks the canonical marker component of each cell
	Selection markers.Selection

	// Metric is the pixel-to-center distance used by the regularization
	Metric regularization.Metric

	// Gradient selects the gradient operator applied to the intensity
	Gradient morphology.GradientKind

	// Strategy selects the nearest-center lookup of the partition
	Strategy voronoi.Strategy

	// Epsilon is the tolerance of the marker minimum search (0 means markers.Epsilon)
	Epsilon float64

	// Centers overrides the lattice when non-nil
	Centers []models.Point

	// NumCores bounds the worker goroutines (<= 0 means all CPUs)
	NumCores int

	// Verify runs the partition and segmentation consistency checks
	Verify bool

	// RelabelSeeds renumbers the seeds through connected-component labeling before the flood
	RelabelSeeds bool

	// Logger receives stage timings; nil disables logging
	Logger *zap.Logger

	// Progress is called after every step
	Progress ProgressCallback
}

// DefaultParams returns the default segmentation parameters
func DefaultParams() Params {
	return Params{
		Sigma:     20,
		K:         8,
		CellScale: 0.7,
		Selection: markers.ClosestToCenter,
		Metric:    regularization.Euclidean,
		Gradient:  morphology.Morphological,
		Strategy:  voronoi.Grid,
	}
}

// Validate checks the parameters. It never looks at pixel data.
func (p *Params) Validate() error {
	if math.IsNaN(p.Sigma) || math.IsInf(p.Sigma, 0) || p.Sigma <= 0 {
		return fmt.Errorf("%w: sigma must be positive, got %v", models.ErrInvalidConfiguration, p.Sigma)
	}
	if math.IsNaN(p.K) || math.IsInf(p.K, 0) || p.K < 0 {
		return fmt.Errorf("%w: k must be non-negative, got %v", models.ErrInvalidConfiguration, p.K)
	}
	if math.IsNaN(p.CellScale) || p.CellScale <= 0 || p.CellScale > 1 {
		return fmt.Errorf("%w: cellScale must be in (0,1], got %v", models.ErrInvalidConfiguration, p.CellScale)
	}
	if p.Centers != nil && len(p.Centers) == 0 {
		return fmt.Errorf("%w: empty center list", models.ErrInvalidConfiguration)
	}
	if p.Epsilon < 0 || math.IsNaN(p.Epsilon) {
		return fmt.Errorf("%w: epsilon must be non-negative, got %v", models.ErrInvalidConfiguration, p.Epsilon)
	}
	return nil
}

// StageTiming is the wall time spent in one step
type StageTiming struct {
	Stage   string
	Elapsed time.Duration
}

// Result holds every intermediate product of a run
type Result struct {
	Centers     []models.Point
	Gradient    *models.Field
	Partition   *voronoi.Partition
	Regularized *models.Field
	Markers     []markers.Marker
	Seeds       *models.LabelImage
	Labels      *models.LabelImage

	// Boundaries is 1 on region borders and 0 elsewhere
	Boundaries *models.LabelImage

	Metrics Metrics
	Timings []StageTiming
}

// Pipeline runs the waterpixel segmentation with a fixed set of parameters
type Pipeline struct {
	params Params
	logger *zap.Logger
}

// NewPipeline creates a new pipeline with the provided parameters
func NewPipeline(params Params) *Pipeline {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{params: params, logger: logger}
}

// Params returns the pipeline parameters
func (p *Pipeline) Params() Params { return p.params }

const totalSteps = 6

// Process runs the complete segmentation on an intensity field
func (p *Pipeline) Process(intensity *models.Field) (*Result, error) {
	if err := p.params.Validate(); err != nil {
		return nil, err
	}
	if intensity == nil || intensity.Width <= 0 || intensity.Height <= 0 {
		return nil, fmt.Errorf("%w: intensity field is empty", models.ErrEmptyImage)
	}

	width, height := intensity.Width, intensity.Height
	res := &Result{}
	start := time.Now()
	p.logger.Info("starting segmentation",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Float64("sigma", p.params.Sigma),
		zap.Float64("k", p.params.K),
		zap.Float64("cellScale", p.params.CellScale))

	// Step 1: Gradient
	err := p.stage(res, 1, "gradient", func() ([]zap.Field, error) {
		g, err := p.params.Gradient.Compute(intensity, p.params.NumCores)
		if err != nil {
			return nil, err
		}
		res.Gradient = g
		return []zap.Field{zap.Stringer("operator", p.params.Gradient)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute gradient: %w", err)
	}

	// Step 2: Voronoi partition
	err = p.stage(res, 2, "partition", func() ([]zap.Field, error) {
		centers := p.params.Centers
		if centers == nil {
			var err error
			if centers, err = lattice.Generate(width, height, p.params.Sigma); err != nil {
				return nil, err
			}
		}
		res.Centers = centers

		part, err := voronoi.Build(width, height, centers,
			voronoi.WithStrategy(p.params.Strategy),
			voronoi.WithWorkers(p.params.NumCores))
		if err != nil {
			return nil, err
		}
		if p.params.Verify {
			if err := part.Validate(); err != nil {
				return nil, err
			}
		}
		res.Partition = part
		return []zap.Field{zap.Int("cells", part.Len()), zap.Stringer("strategy", p.params.Strategy)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build partition: %w", err)
	}

	// Step 3: Spatial regularization
	err = p.stage(res, 3, "regularization", func() ([]zap.Field, error) {
		r := regularization.Regularizer{
			Sigma:   p.params.Sigma,
			K:       p.params.K,
			Metric:  p.params.Metric,
			Workers: p.params.NumCores,
		}
		reg, err := r.Apply(res.Gradient, res.Partition)
		if err != nil {
			return nil, err
		}
		res.Regularized = reg
		return []zap.Field{zap.Stringer("metric", p.params.Metric)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to regularize gradient: %w", err)
	}

	// Step 4: Markers, computed on the raw gradient
	err = p.stage(res, 4, "markers", func() ([]zap.Field, error) {
		syn := markers.Synthesizer{
			Sigma:     p.params.Sigma,
			CellScale: p.params.CellScale,
			Selection: p.params.Selection,
			Epsilon:   p.params.Epsilon,
			Workers:   p.params.NumCores,
		}
		ms, err := syn.Synthesize(res.Gradient, res.Partition)
		if err != nil {
			return nil, err
		}
		seeds, err := markers.Merge(width, height, ms)
		if err != nil {
			return nil, err
		}
		if p.params.RelabelSeeds {
			if seeds, _, err = morphology.LabelComponents(seeds, morphology.Conn4); err != nil {
				return nil, err
			}
		}
		res.Markers = ms
		res.Seeds = seeds
		return []zap.Field{zap.Int("markers", len(ms)), zap.Int("fallback", countFallbacks(ms))}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize markers: %w", err)
	}

	// Step 5: Flood
	err = p.stage(res, 5, "watershed", func() ([]zap.Field, error) {
		labels, err := morphology.FloodWatershed(res.Regularized, res.Seeds, morphology.Conn4)
		if err != nil {
			return nil, err
		}
		if p.params.Verify {
			for i, l := range labels.Pix {
				if l == 0 {
					return nil, fmt.Errorf("%w: pixel %d left unlabeled", models.ErrDegenerateCell, i)
				}
			}
		}
		res.Labels = labels
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to flood: %w", err)
	}

	// Step 6: Boundaries and metrics
	err = p.stage(res, 6, "boundaries", func() ([]zap.Field, error) {
		res.Boundaries = morphology.Boundaries(res.Labels, p.params.NumCores)
		m, err := ComputeMetrics(res.Labels, res.Boundaries, res.Markers)
		if err != nil {
			return nil, err
		}
		res.Metrics = m
		return []zap.Field{zap.Int("superpixels", m.Superpixels), zap.Float64("boundaryFraction", m.BoundaryFraction)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract boundaries: %w", err)
	}

	p.logger.Info("segmentation complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("superpixels", res.Metrics.Superpixels),
		zap.Int("fragments", res.Metrics.Fragments),
		zap.Float64("meanArea", res.Metrics.MeanArea),
		zap.Int("fallbackMarkers", res.Metrics.FallbackMarkers))
	return res, nil
}

// stage runs one step, records its duration and reports progress
func (p *Pipeline) stage(res *Result, step int, name string, fn func() ([]zap.Field, error)) error {
	start := time.Now()
	fields, err := fn()
	elapsed := time.Since(start)
	if err != nil {
		p.logger.Debug("stage failed", zap.String("stage", name), zap.Error(err))
		return err
	}

	res.Timings = append(res.Timings, StageTiming{Stage: name, Elapsed: elapsed})
	p.logger.Debug("stage done", append([]zap.Field{zap.String("stage", name), zap.Duration("elapsed", elapsed)}, fields...)...)
	if p.params.Progress != nil {
		p.params.Progress(step, totalSteps, name)
	}
	return nil
}

func countFallbacks(ms []markers.Marker) int {
	n := 0
	for _, m := range ms {
		if m.Fallback {
			n++
		}
	}
	return n
}

// Waterpixel segments an intensity field around the given centers with default options and
// returns the binary boundary image
func Waterpixel(intensity *models.Field, centers []models.Point, sigma, k, cellScale float64) (*models.LabelImage, error) {
	if len(centers) == 0 {
		return nil, fmt.Errorf("%w: empty center list", models.ErrInvalidConfiguration)
	}

	params := DefaultParams()
	params.Sigma = sigma
	params.K = k
	params.CellScale = cellScale
	params.Centers = centers

	res, err := NewPipeline(params).Process(intensity)
	if err != nil {
		return nil, err
	}
	return res.Boundaries, nil
}
