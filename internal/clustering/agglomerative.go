package clustering

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Agglomerative is bottom-up hierarchical clustering with Ward linkage:
// every point starts alone and the pair of groups whose merge increases
// within-group variance the least is merged until k groups remain.
// It is deterministic and ignores the random source.
type Agglomerative struct{}

func (Agglomerative) Name() string { return "Hierarchical (Agglomerative)" }

func (Agglomerative) Description() string {
	return "Progressively merges nearby orders to form groups"
}

type wardGroup struct {
	members  []int
	centroid []float64
}

func (Agglomerative) Partition(data *mat.Dense, k int, _ *rand.Rand) []int {
	n, dims := data.Dims()
	k = clampK(k, n)

	groups := make([]*wardGroup, n)
	for i := range n {
		groups[i] = &wardGroup{members: []int{i}, centroid: cloneRow(data, i)}
	}

	for len(groups) > k {
		bi, bj := 0, 1
		best := math.Inf(1)
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				if c := wardCost(groups[i], groups[j]); c < best {
					best = c
					bi, bj = i, j
				}
			}
		}

		a, b := groups[bi], groups[bj]
		na, nb := float64(len(a.members)), float64(len(b.members))
		centroid := make([]float64, dims)
		floats.AddScaled(centroid, na/(na+nb), a.centroid)
		floats.AddScaled(centroid, nb/(na+nb), b.centroid)

		a.members = append(a.members, b.members...)
		a.centroid = centroid
		groups = append(groups[:bj], groups[bj+1:]...)
	}

	// Groups keep the position of their lowest member, so labels are stable.
	labels := make([]int, n)
	for label, g := range groups {
		for _, m := range g.members {
			labels[m] = label
		}
	}
	return labels
}

// wardCost is the increase in total within-group sum of squares caused by
// merging a and b.
func wardCost(a, b *wardGroup) float64 {
	na, nb := float64(len(a.members)), float64(len(b.members))
	return na * nb / (na + nb) * sqDist(a.centroid, b.centroid)
}
