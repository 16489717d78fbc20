package routing

import (
	"math"

	"fleet-route-service/internal/domain"
)

// nearestNeighbor builds a visiting sequence with a greedy nearest-neighbor
// walk from the depot.
//
// Each step picks the unvisited order whose destination is closest to the
// current location. Ties go to the lower order id so the sequence is
// deterministic. It does not attempt global optimization; the genetic
// search uses it as one well-formed seed.
func nearestNeighbor(graph Graph, orders []domain.Order) []domain.Order {
	remaining := make([]domain.Order, len(orders))
	copy(remaining, orders)

	route := make([]domain.Order, 0, len(orders))
	curr := graph.Depot()

	for len(remaining) > 0 {
		best := -1
		bestDist := math.Inf(1)
		for i, o := range remaining {
			d := graph.Distance(curr, o.Destination)
			if d < bestDist || (d == bestDist && (best == -1 || o.ID < remaining[best].ID)) {
				bestDist = d
				best = i
			}
		}

		next := remaining[best]
		route = append(route, next)
		remaining = append(remaining[:best], remaining[best+1:]...)
		curr = next.Destination
	}

	return route
}
