package clustering

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KMeans partitions points around k centroids (Lloyd's algorithm with
// k-means++ seeding). The run with the lowest inertia out of Restarts
// seedings wins.
type KMeans struct {
	Restarts  int
	MaxIter   int
	Tolerance float64
}

func NewKMeans() KMeans {
	return KMeans{Restarts: 10, MaxIter: 300, Tolerance: 1e-4}
}

func (KMeans) Name() string { return "K-Means" }

func (KMeans) Description() string {
	return "Groups orders by assigning them to the nearest centroid (vehicle)"
}

func (km KMeans) Partition(data *mat.Dense, k int, rng *rand.Rand) []int {
	n, _ := data.Dims()
	k = clampK(k, n)

	restarts := max(km.Restarts, 1)
	maxIter := max(km.MaxIter, 1)

	var best []int
	bestInertia := math.Inf(1)

	for range restarts {
		centers := seedPlusPlus(data, k, rng)
		labels, inertia := lloyd(data, centers, maxIter, km.Tolerance)
		if inertia < bestInertia {
			bestInertia = inertia
			best = labels
		}
	}

	return best
}

// seedPlusPlus picks k initial centroids, each new one sampled with
// probability proportional to its squared distance from the closest
// centroid chosen so far.
func seedPlusPlus(data *mat.Dense, k int, rng *rand.Rand) [][]float64 {
	n, _ := data.Dims()
	centers := make([][]float64, 0, k)
	centers = append(centers, cloneRow(data, rng.Intn(n)))

	d2 := make([]float64, n)
	for i := range n {
		d2[i] = sqDist(data.RawRowView(i), centers[0])
	}

	for len(centers) < k {
		total := floats.Sum(d2)

		next := rng.Intn(n)
		if total > 0 {
			r := rng.Float64() * total
			acc := 0.0
			for i, d := range d2 {
				acc += d
				if acc >= r {
					next = i
					break
				}
			}
		}

		c := cloneRow(data, next)
		centers = append(centers, c)
		for i := range n {
			d2[i] = math.Min(d2[i], sqDist(data.RawRowView(i), c))
		}
	}

	return centers
}

func lloyd(data *mat.Dense, centers [][]float64, maxIter int, tol float64) ([]int, float64) {
	n, dims := data.Dims()
	k := len(centers)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dims)
	}
	counts := make([]int, k)

	for range maxIter {
		changed := false
		for i := range n {
			c := nearest(data.RawRowView(i), centers)
			if c != labels[i] {
				labels[i] = c
				changed = true
			}
		}

		for c := range k {
			clear(sums[c])
			counts[c] = 0
		}
		for i := range n {
			floats.Add(sums[labels[i]], data.RawRowView(i))
			counts[labels[i]]++
		}

		if reseedEmpty(data, labels, centers, sums, counts) {
			changed = true
		}

		shift := 0.0
		for c := range k {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			shift = math.Max(shift, sqDist(sums[c], centers[c]))
			copy(centers[c], sums[c])
		}

		if !changed || shift <= tol*tol {
			break
		}
	}

	inertia := 0.0
	for i := range n {
		labels[i] = nearest(data.RawRowView(i), centers)
		inertia += sqDist(data.RawRowView(i), centers[labels[i]])
	}

	return labels, inertia
}

// nearest returns the index of the closest centroid; ties go to the lower index.
func nearest(p []float64, centers [][]float64) int {
	best := 0
	bestD := math.Inf(1)
	for c, center := range centers {
		if d := sqDist(p, center); d < bestD {
			bestD = d
			best = c
		}
	}
	return best
}

// reseedEmpty moves into every empty cluster the point farthest from its
// centroid, taken only from clusters that keep at least one member, and
// keeps sums and counts in step. It reports whether any point moved.
func reseedEmpty(data *mat.Dense, labels []int, centers, sums [][]float64, counts []int) bool {
	moved := false
	for c := range counts {
		if counts[c] != 0 {
			continue
		}
		far := farthest(data, labels, centers, counts)
		if far < 0 {
			continue
		}
		row := data.RawRowView(far)
		donor := labels[far]
		floats.Sub(sums[donor], row)
		counts[donor]--

		labels[far] = c
		copy(sums[c], row)
		counts[c] = 1
		moved = true
	}
	return moved
}

// farthest returns the point farthest from its centroid among clusters
// with more than one member, or -1 when there is none.
func farthest(data *mat.Dense, labels []int, centers [][]float64, counts []int) int {
	n, _ := data.Dims()
	best := -1
	bestD := -1.0
	for i := range n {
		if counts[labels[i]] < 2 {
			continue
		}
		if d := sqDist(data.RawRowView(i), centers[labels[i]]); d > bestD {
			bestD = d
			best = i
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func cloneRow(data *mat.Dense, i int) []float64 {
	row := data.RawRowView(i)
	out := make([]float64, len(row))
	copy(out, row)
	return out
}

func clampK(k, n int) int {
	if k < 1 {
		return 1
	}
	if k > n {
		return n
	}
	return k
}
