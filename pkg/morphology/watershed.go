package morphology

import (
	"container/heap"
	"fmt"
	"math"

	"waterpixels/internal/models"
)

// floodItem is a queued pixel. seq orders pixels pushed at the same level first in, first out.
type floodItem struct {
	idx  int
	prio float64
	seq  uint64
}

type floodQueue []floodItem

func (q floodQueue) Len() int { return len(q) }

func (q floodQueue) Less(i, j int) bool {
	if q[i].prio != q[j].prio {
		return q[i].prio < q[j].prio
	}
	return q[i].seq < q[j].seq
}

func (q floodQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *floodQueue) Push(x any) { *q = append(*q, x.(floodItem)) }

func (q *floodQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// FloodWatershed grows the non-zero seeds over the cost surface until every pixel reachable
// from a seed carries a label. Pixels are flooded lowest cost first and in arrival order among
// equal costs; a pixel's level never drops below the level it was reached from. Each pixel is
// labeled by the first region to reach it.
func FloodWatershed(cost *models.Field, seeds *models.LabelImage, conn Connectivity) (*models.LabelImage, error) {
	if cost.Width != seeds.Width || cost.Height != seeds.Height {
		return nil, fmt.Errorf("%w: cost is %dx%d but seeds are %dx%d",
			models.ErrInvalidConfiguration, cost.Width, cost.Height, seeds.Width, seeds.Height)
	}
	if !conn.valid() {
		return nil, fmt.Errorf("%w: unsupported connectivity %d", models.ErrInvalidConfiguration, conn)
	}

	labels := seeds.Clone()
	width, height := labels.Width, labels.Height
	offs := conn.Offsets()

	q := make(floodQueue, 0, width*height/4+1)
	var seq uint64
	for i, l := range labels.Pix {
		if l != 0 {
			q = append(q, floodItem{idx: i, prio: cost.Pix[i], seq: seq})
			seq++
		}
	}
	if len(q) == 0 {
		return nil, fmt.Errorf("%w: watershed needs at least one seed", models.ErrInvalidConfiguration)
	}
	heap.Init(&q)

	for q.Len() > 0 {
		it := heap.Pop(&q).(floodItem)
		x, y := it.idx%width, it.idx/width
		label := labels.Pix[it.idx]

		for _, d := range offs {
			nx, ny := x+d.X, y+d.Y
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				continue
			}
			n := ny*width + nx
			if labels.Pix[n] != 0 {
				continue
			}
			labels.Pix[n] = label
			heap.Push(&q, floodItem{idx: n, prio: math.Max(cost.Pix[n], it.prio), seq: seq})
			seq++
		}
	}
	return labels, nil
}
