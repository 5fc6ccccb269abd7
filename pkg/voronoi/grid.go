package voronoi

import (
	"math"

	"waterpixels/internal/models"
)

// accelerationGrid buckets centers on a coarse grid over the image rectangle whose bucket size
// is the estimated average spacing between centers. Each center is registered in the 3x3 block
// of buckets around its own, so a pixel only scans the centers of its bucket. Centers outside
// the image are clamped onto the border buckets; the grid size depends only on the image.
type accelerationGrid struct {
	centers []models.Point
	size    float64
	resX    int
	resY    int

	// buckets[bx + by*(resX+1)] lists center indices in increasing order
	buckets [][]int32
}

func newAccelerationGrid(width, height int, centers []models.Point) *accelerationGrid {
	// Estimate center average spacing
	approxSigma := math.Sqrt(float64(width) * float64(height) / float64(len(centers)))
	if approxSigma < 1 {
		approxSigma = 1
	}

	g := &accelerationGrid{
		centers: centers,
		size:    approxSigma,
		resX:    int(float64(width-1) / approxSigma),
		resY:    int(float64(height-1) / approxSigma),
	}
	g.buckets = make([][]int32, (g.resX+1)*(g.resY+1))

	// Register every center within a one-bucket radius
	const radius = 1
	for i, c := range centers {
		bx, by := g.bucketOf(c)
		for y := by - radius; y <= by+radius; y++ {
			for x := bx - radius; x <= bx+radius; x++ {
				if x < 0 || y < 0 || x > g.resX || y > g.resY {
					continue
				}
				b := x + y*(g.resX+1)
				g.buckets[b] = append(g.buckets[b], int32(i))
			}
		}
	}
	return g
}

// bucketOf returns the bucket containing p, clamped into the grid. Clamping happens before the
// integer conversion so far-away centers cannot overflow.
func (g *accelerationGrid) bucketOf(p models.Point) (int, int) {
	return clampBucket(float64(p.X)/g.size, g.resX), clampBucket(float64(p.Y)/g.size, g.resY)
}

// clearance returns a lower bound on the distance from p to any center that is NOT
// registered in bucket (bx, by), i.e. any center outside the 3x3 block around it.
// Clamping is monotonic, so such a center also lies beyond the block in image coordinates.
func (g *accelerationGrid) clearance(p models.Point, bx, by int) float64 {
	gap := math.Inf(1)
	px := float64(p.X)
	py := float64(p.Y)

	// Centers left of the block have bucket index <= bx-2
	if bx-2 >= 0 {
		gap = math.Min(gap, px-float64(bx-1)*g.size)
	}
	if bx+2 <= g.resX {
		gap = math.Min(gap, float64(bx+2)*g.size-px)
	}
	if by-2 >= 0 {
		gap = math.Min(gap, py-float64(by-1)*g.size)
	}
	if by+2 <= g.resY {
		gap = math.Min(gap, float64(by+2)*g.size-py)
	}
	return gap
}

// nearest scans the pixel's bucket; when an unregistered center could still be as close as
// the best candidate, it falls back to a full scan so the answer always matches brute force.
func (g *accelerationGrid) nearest(p models.Point) int {
	bx, by := g.bucketOf(p)

	best := int64(math.MaxInt64)
	bestIdx := -1
	for _, i := range g.buckets[bx+by*(g.resX+1)] {
		if d := p.DistSq(g.centers[i]); d < best {
			best = d
			bestIdx = int(i)
		}
	}

	gap := g.clearance(p, bx, by)
	if bestIdx >= 0 && (math.IsInf(gap, 1) || float64(best) < gap*gap) {
		return bestIdx
	}
	return NearestBruteForce(p, g.centers)
}

func clampBucket(v float64, hi int) int {
	v = math.Floor(v)
	if v <= 0 {
		return 0
	}
	if v >= float64(hi) {
		return hi
	}
	return int(v)
}
