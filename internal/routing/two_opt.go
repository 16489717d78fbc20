package routing

import "fleet-route-service/internal/domain"

// Improvements smaller than this are treated as ties.
const improvementEpsilon = 1e-9

// twoOpt repeatedly reverses the first sub-segment whose reversal shortens
// the depot round trip, until no reversal improves it. The distance model
// is symmetric, so only the two edges around the segment change.
func twoOpt(graph Graph, route []domain.Order) []domain.Order {
	best := make([]domain.Order, len(route))
	copy(best, route)

	n := len(best)
	if n < 3 {
		return best
	}

	depot := graph.Depot()
	at := func(i int) string {
		if i < 0 || i >= n {
			return depot
		}
		return best[i].Destination
	}

	for improved := true; improved; {
		improved = false
		for i := 0; i < n-1 && !improved; i++ {
			for j := i + 2; j <= n; j++ {
				// Reverse best[i:j].
				before := graph.Distance(at(i-1), at(i)) + graph.Distance(at(j-1), at(j))
				after := graph.Distance(at(i-1), at(j-1)) + graph.Distance(at(i), at(j))
				if after < before-improvementEpsilon {
					reverse(best[i:j])
					improved = true
					break
				}
			}
		}
	}

	return best
}

func reverse(s []domain.Order) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
