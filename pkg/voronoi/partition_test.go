package voronoi

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterpixels/internal/models"
	"waterpixels/pkg/lattice"
)

// randomCenters draws n centers, some of them outside the image, with a fixed seed
func randomCenters(rng *rand.Rand, n, width, height int) []models.Point {
	centers := make([]models.Point, n)
	for i := range centers {
		centers[i] = models.Point{
			X: rng.Intn(width+20) - 10,
			Y: rng.Intn(height+20) - 10,
		}
	}
	return centers
}

// TestBuildLatticeScenario verifies the four cells of a 100x100 image with sigma 50
func TestBuildLatticeScenario(t *testing.T) {
	centers, err := lattice.Generate(100, 100, 50)
	require.NoError(t, err)

	p, err := Build(100, 100, centers, WithWorkers(3))
	require.NoError(t, err)
	require.NoError(t, p.Validate())
	require.Equal(t, 4, p.Len())

	// Pixels on the x=50 and y=50 lines tie and go to the lower index
	sizes := []int{51 * 51, 51 * 49, 49 * 51, 49 * 49}
	for i, c := range p.Cells() {
		assert.Len(t, c.Pixels, sizes[i], "cell %d", i)
		assert.Equal(t, i, p.Owner(c.Center.X, c.Center.Y), "center of cell %d", i)
	}

	assert.Equal(t, 0, p.Owner(49, 49))
	assert.Equal(t, 0, p.Owner(50, 50))
	assert.Equal(t, 1, p.Owner(50, 51))
	assert.Equal(t, 2, p.Owner(51, 50))
	assert.Equal(t, 3, p.Owner(51, 51))
}

// TestPartitionCompleteness verifies that every pixel belongs to exactly one cell
func TestPartitionCompleteness(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		width := 5 + rng.Intn(60)
		height := 5 + rng.Intn(60)
		centers := randomCenters(rng, 1+rng.Intn(40), width, height)

		for _, s := range []Strategy{Grid, BruteForce, KDTree} {
			p, err := Build(width, height, centers, WithStrategy(s), WithWorkers(4))
			require.NoError(t, err)
			require.NoError(t, p.Validate(), "trial %d strategy %v", trial, s)

			counts := make([]int, width*height)
			for _, c := range p.Cells() {
				for _, pt := range c.Pixels {
					counts[pt.Y*width+pt.X]++
				}
			}
			for i, n := range counts {
				require.Equal(t, 1, n, "pixel %d covered %d times", i, n)
			}
		}
	}
}

// TestOracleEquivalence verifies that the accelerated strategies match brute force pixel for pixel
func TestOracleEquivalence(t *testing.T) {
	trials := 40
	if testing.Short() {
		trials = 8
	}

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < trials; trial++ {
		width := 1 + rng.Intn(80)
		height := 1 + rng.Intn(80)
		centers := randomCenters(rng, 1+rng.Intn(60), width, height)

		// Duplicate a center now and then to exercise exact ties
		if len(centers) > 2 && trial%3 == 0 {
			centers[len(centers)-1] = centers[0]
		}

		grid, err := Build(width, height, centers, WithStrategy(Grid))
		require.NoError(t, err)
		tree, err := Build(width, height, centers, WithStrategy(KDTree))
		require.NoError(t, err)

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				want := NearestBruteForce(models.Point{X: x, Y: y}, centers)
				require.Equal(t, want, grid.Owner(x, y), "grid: trial %d pixel (%d,%d)", trial, x, y)
				require.Equal(t, want, tree.Owner(x, y), "kdtree: trial %d pixel (%d,%d)", trial, x, y)
			}
		}
	}

	// Centers far from the image must neither grow the grid nor change the answer
	farSets := [][]models.Point{
		{{X: 5, Y: 5}, {X: 100000000, Y: 100000000}},
		{{X: -50000000, Y: 3}, {X: 2, Y: 8}, {X: 9, Y: -70000000}},
		{{X: -30, Y: 5}, {X: 40, Y: 5}, {X: 5, Y: -25}, {X: 5, Y: 35}},
		{{X: 300000000, Y: -300000000}},
	}
	for n, centers := range farSets {
		for _, s := range []Strategy{Grid, KDTree} {
			p, err := Build(10, 10, centers, WithStrategy(s))
			require.NoError(t, err, "set %d strategy %v", n, s)
			require.NoError(t, p.Validate())
			for y := 0; y < 10; y++ {
				for x := 0; x < 10; x++ {
					want := NearestBruteForce(models.Point{X: x, Y: y}, centers)
					require.Equal(t, want, p.Owner(x, y), "set %d strategy %v pixel (%d,%d)", n, s, x, y)
				}
			}
		}
	}

	grid := newAccelerationGrid(10, 10, farSets[0])
	assert.LessOrEqual(t, len(grid.buckets), 100)
}

// TestOracleEquivalenceLattice checks the grid strategy on regular lattices of many sizes
func TestOracleEquivalenceLattice(t *testing.T) {
	for _, sigma := range []float64{2, 5, 9.5, 17, 40} {
		width, height := 83, 57
		centers, err := lattice.Generate(width, height, sigma)
		require.NoError(t, err)

		p, err := Build(width, height, centers)
		require.NoError(t, err)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				require.Equal(t, NearestBruteForce(models.Point{X: x, Y: y}, centers), p.Owner(x, y))
			}
		}

		// Lattices never produce empty cells
		for i, c := range p.Cells() {
			assert.NotEmpty(t, c.Pixels, "sigma %v cell %d", sigma, i)
		}
	}
}

// TestBuildDeterministic verifies that the worker count does not change the result
func TestBuildDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	centers := randomCenters(rng, 25, 70, 50)

	ref, err := Build(70, 50, centers, WithWorkers(1))
	require.NoError(t, err)
	for _, workers := range []int{2, 5, 16} {
		p, err := Build(70, 50, centers, WithWorkers(workers))
		require.NoError(t, err)
		for i := range centers {
			assert.Equal(t, ref.Cell(i).Pixels, p.Cell(i).Pixels, "workers %d cell %d", workers, i)
		}
	}
}

// TestBuildProgress verifies that progress is reported once per band
func TestBuildProgress(t *testing.T) {
	centers, err := lattice.Generate(40, 40, 10)
	require.NoError(t, err)

	var calls, lastTotal, lastCompleted int
	_, err = Build(40, 40, centers, WithWorkers(4), WithProgress(func(completed, total int, _ string) {
		calls++
		lastCompleted = completed
		lastTotal = total
	}))
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, lastTotal)
	assert.Equal(t, 4, lastCompleted)
}

// TestBuildErrors verifies the configuration errors
func TestBuildErrors(t *testing.T) {
	_, err := Build(10, 10, nil)
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration), "got %v", err)

	_, err = Build(0, 10, []models.Point{{X: 1, Y: 1}})
	assert.True(t, errors.Is(err, models.ErrEmptyImage), "got %v", err)

	_, err = ParseStrategy("voronoi-magic")
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration), "got %v", err)

	for _, name := range []string{"grid", "bruteforce", "kdtree"} {
		s, err := ParseStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.String())
	}
}

// TestOwnerImage verifies the owner map export
func TestOwnerImage(t *testing.T) {
	centers := []models.Point{{X: 2, Y: 2}, {X: 7, Y: 2}}
	p, err := Build(10, 4, centers)
	require.NoError(t, err)

	img := p.OwnerImage()
	assert.Equal(t, int32(1), img.At(0, 0))
	assert.Equal(t, int32(2), img.At(9, 3))
	assert.True(t, p.Contains(1, models.Point{X: 8, Y: 1}))
	assert.False(t, p.Contains(1, models.Point{X: 1, Y: 1}))
	assert.False(t, p.Contains(0, models.Point{X: -1, Y: 1}))
}
