// Package clustering groups orders into vehicle-sized clusters using a
// geography and urgency feature space, then rebalances clusters that
// exceed a vehicle's capacity.
package clustering

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"strings"

	"fleet-route-service/internal/domain"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// CoordinateLookup resolves a destination name to its coordinates.
type CoordinateLookup interface {
	Lookup(city string) (domain.Coordinates, bool)
}

// Partitioner splits standardized feature rows into at most k groups and
// returns one group label in [0, k) per row.
type Partitioner interface {
	Partition(data *mat.Dense, k int, rng *rand.Rand) []int
	Name() string
	Description() string
}

var ErrUnknownPartitioner = errors.New("unknown clustering method")

// PartitionerByName resolves a user-facing clustering name.
func PartitionerByName(name string) (Partitioner, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "kmeans", "k-means":
		return NewKMeans(), nil
	case "agglomerative", "hierarchical", "ward":
		return Agglomerative{}, nil
	default:
		return nil, fmt.Errorf("clustering: %w: %q", ErrUnknownPartitioner, name)
	}
}

// Outcome of one clustering run.
type Result struct {
	// Clusters maps cluster id to its orders. Ids 0..vehicleCount-1 are
	// always present (possibly empty); overflow resolution may add more.
	Clusters map[int][]domain.Order

	// Orders dropped because their destination has no coordinates.
	Unclustered []domain.Order

	// Cluster ids left over capacity because they hold a single order
	// heavier than a vehicle can carry.
	Unresolvable []int

	Redistributions int
	Spawned         int
}

// IDs returns the cluster ids in ascending order.
func (r Result) IDs() []int {
	ids := make([]int, 0, len(r.Clusters))
	for id := range r.Clusters {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Assigner partitions orders into vehicle groups.
type Assigner struct {
	Partitioner Partitioner
	Coords      CoordinateLookup
	Seed        int64
}

func NewAssigner(p Partitioner, coords CoordinateLookup, seed int64) *Assigner {
	if p == nil {
		p = NewKMeans()
	}
	return &Assigner{Partitioner: p, Coords: coords, Seed: seed}
}

// Assign groups orders into vehicleCount clusters and rebalances them so
// that no cluster's weight exceeds capacity, spawning extra clusters only
// when redistribution cannot fix an overload.
func (a *Assigner) Assign(orders []domain.Order, vehicleCount int, unitWeight, capacity float64) Result {
	vehicleCount = max(vehicleCount, 1)

	points, missing := enrich(orders, a.Coords)
	res := Result{
		Clusters:    make(map[int][]domain.Order, vehicleCount),
		Unclustered: missing,
	}

	if len(missing) > 0 {
		log.WithField("orders", len(missing)).Warn("[clustering] orders without coordinates excluded")
	}
	if len(points) == 0 {
		return res
	}

	for id := range vehicleCount {
		res.Clusters[id] = nil
	}

	rng := rand.New(rand.NewSource(a.Seed))
	labels := a.Partitioner.Partition(standardize(points), vehicleCount, rng)
	for i, label := range labels {
		res.Clusters[label] = append(res.Clusters[label], points[i].order)
	}

	b := newBalancer(res.Clusters, unitWeight, capacity)
	res.Redistributions = b.rebalance()
	res.Spawned = b.resolveOverflow()
	res.Unresolvable = b.overloaded()

	if len(res.Unresolvable) > 0 {
		log.WithField("clusters", res.Unresolvable).Warn("[clustering] single orders exceed vehicle capacity")
	}
	log.WithFields(log.Fields{
		"partitioner":     a.Partitioner.Name(),
		"orders":          len(points),
		"clusters":        len(res.Clusters),
		"redistributions": res.Redistributions,
		"spawned":         res.Spawned,
	}).Debug("[clustering] assignment complete")

	return res
}
