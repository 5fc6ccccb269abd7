package markers

import "waterpixels/internal/models"

var neighbours4 = [4]models.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}

// components groups the candidate pixels into 4-connected components. Components are discovered
// in the order of their first pixel in candidates; the flood fill uses an explicit stack over a
// mask sized to the candidates' bounding box.
func components(candidates []models.Point) [][]models.Point {
	if len(candidates) == 0 {
		return nil
	}

	minX, minY := candidates[0].X, candidates[0].Y
	maxX, maxY := minX, minY
	for _, pt := range candidates[1:] {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}
	w := maxX - minX + 1
	h := maxY - minY + 1

	// 0: not a candidate, 1: unvisited candidate, 2: visited
	mask := make([]uint8, w*h)
	for _, pt := range candidates {
		mask[(pt.Y-minY)*w+(pt.X-minX)] = 1
	}

	var comps [][]models.Point
	stack := make([]models.Point, 0, len(candidates))
	for _, start := range candidates {
		if mask[(start.Y-minY)*w+(start.X-minX)] != 1 {
			continue
		}
		mask[(start.Y-minY)*w+(start.X-minX)] = 2

		var comp []models.Point
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			pt := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, pt)

			for _, d := range neighbours4 {
				nx, ny := pt.X+d.X-minX, pt.Y+d.Y-minY
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				if mask[ny*w+nx] == 1 {
					mask[ny*w+nx] = 2
					stack = append(stack, models.Point{X: nx + minX, Y: ny + minY})
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}
