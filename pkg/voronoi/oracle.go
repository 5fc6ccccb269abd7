package voronoi

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"waterpixels/internal/models"
)

// NearestBruteForce returns the index of the center closest to p by scanning every center.
// On an exact tie the center with the lower index wins. This is the baseline the accelerated
// strategies are checked against.
func NearestBruteForce(p models.Point, centers []models.Point) int {
	best := int64(math.MaxInt64)
	bestIdx := 0
	for i, c := range centers {
		if d := p.DistSq(c); d < best {
			best = d
			bestIdx = i
		}
	}
	return bestIdx
}

// centerPoint is a cell center stored in the k-d tree together with its index
type centerPoint struct {
	X, Y  float64
	Index int
}

// Compare implements the kdtree.Comparable interface
func (p centerPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(centerPoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p centerPoint) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between two points
func (p centerPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(centerPoint)
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// centerPoints is a collection of centerPoint that satisfies kdtree.Interface
type centerPoints []centerPoint

func (p centerPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p centerPoints) Len() int                              { return len(p) }
func (p centerPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p centerPoints) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(centerPlane{centerPoints: p, Dim: d}, kdtree.MedianOfMedians(centerPlane{centerPoints: p, Dim: d}))
}

// centerPlane implements sort.Interface and kdtree.SortSlicer for centerPoints
type centerPlane struct {
	centerPoints
	kdtree.Dim
}

func (p centerPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.centerPoints[i].X < p.centerPoints[j].X
	case 1:
		return p.centerPoints[i].Y < p.centerPoints[j].Y
	default:
		panic("illegal dimension")
	}
}

func (p centerPlane) Slice(start, end int) kdtree.SortSlicer {
	return centerPlane{centerPoints: p.centerPoints[start:end], Dim: p.Dim}
}

func (p centerPlane) Swap(i, j int) {
	p.centerPoints[i], p.centerPoints[j] = p.centerPoints[j], p.centerPoints[i]
}

// centerTree answers nearest-center queries with a gonum k-d tree
type centerTree struct {
	tree *kdtree.Tree
}

func newCenterTree(centers []models.Point) *centerTree {
	points := make(centerPoints, len(centers))
	for i, c := range centers {
		points[i] = centerPoint{X: float64(c.X), Y: float64(c.Y), Index: i}
	}
	return &centerTree{tree: kdtree.New(points, false)}
}

// nearest finds the closest center, then collects every center at that same distance so the
// lowest index can win the tie as it does in the other strategies.
func (t *centerTree) nearest(p models.Point) int {
	q := centerPoint{X: float64(p.X), Y: float64(p.Y)}
	_, dist := t.tree.Nearest(q)

	keeper := kdtree.NewDistKeeper(dist)
	t.tree.NearestSet(keeper, q)

	bestIdx := math.MaxInt
	for _, cd := range keeper.Heap {
		if cd.Comparable == nil {
			continue
		}
		if idx := cd.Comparable.(centerPoint).Index; cd.Dist == dist && idx < bestIdx {
			bestIdx = idx
		}
	}
	return bestIdx
}
