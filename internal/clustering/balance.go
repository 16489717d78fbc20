package clustering

import (
	"slices"

	"fleet-route-service/internal/domain"
)

const (
	maxBalancePasses = 5
	maxMovesPerPass  = 10
)

// balancer moves orders between clusters to respect vehicle capacity.
// Every selection breaks ties on the lowest order id or cluster id so a
// run is reproducible.
type balancer struct {
	clusters   map[int][]domain.Order
	unitWeight float64
	capacity   float64
}

func newBalancer(clusters map[int][]domain.Order, unitWeight, capacity float64) *balancer {
	return &balancer{clusters: clusters, unitWeight: unitWeight, capacity: capacity}
}

func (b *balancer) weight(id int) float64 {
	return domain.TotalWeight(b.clusters[id], b.unitWeight)
}

func (b *balancer) ids() []int {
	ids := make([]int, 0, len(b.clusters))
	for id := range b.clusters {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (b *balancer) overloaded() []int {
	var out []int
	for _, id := range b.ids() {
		if b.weight(id) > b.capacity {
			out = append(out, id)
		}
	}
	return out
}

// takeHeaviest removes and returns the heaviest order of a cluster.
func (b *balancer) takeHeaviest(id int) domain.Order {
	orders := b.clusters[id]
	best := 0
	for i, o := range orders {
		w, bw := o.Weight(b.unitWeight), orders[best].Weight(b.unitWeight)
		if w > bw || (w == bw && o.ID < orders[best].ID) {
			best = i
		}
	}

	o := orders[best]
	b.clusters[id] = slices.Delete(slices.Clone(orders), best, best+1)
	return o
}

func (b *balancer) heaviest(id int) domain.Order {
	orders := b.clusters[id]
	best := orders[0]
	for _, o := range orders[1:] {
		w, bw := o.Weight(b.unitWeight), best.Weight(b.unitWeight)
		if w > bw || (w == bw && o.ID < best.ID) {
			best = o
		}
	}
	return best
}

// oversized reports whether a cluster holds a single order heavier than a
// vehicle. No move can fix such a cluster.
func (b *balancer) oversized(id int) bool {
	orders := b.clusters[id]
	return len(orders) == 1 && orders[0].Weight(b.unitWeight) > b.capacity
}

// emptyCluster returns the lowest empty cluster id other than exclude.
func (b *balancer) emptyCluster(exclude int) (int, bool) {
	for _, id := range b.ids() {
		if id != exclude && len(b.clusters[id]) == 0 {
			return id, true
		}
	}
	return 0, false
}

// leastLoaded returns the lightest cluster other than exclude, optionally
// restricted to clusters that can still take extra weight. Oversized
// clusters never receive orders.
func (b *balancer) leastLoaded(exclude int, extra float64, mustFit bool) (int, bool) {
	found := false
	best, bestW := 0, 0.0
	for _, id := range b.ids() {
		if id == exclude || b.oversized(id) {
			continue
		}
		w := b.weight(id)
		if mustFit && w+extra > b.capacity {
			continue
		}
		if !found || w < bestW {
			best, bestW, found = id, w, true
		}
	}
	return best, found
}

// rebalance runs bounded passes that move the heaviest order out of every
// overloaded cluster into the emptiest cluster that can fit it, or into the
// globally least loaded cluster when none can. An order heavier than a
// vehicle only moves into an empty cluster. It returns the number of
// orders moved.
func (b *balancer) rebalance() int {
	moved := 0

	for pass := 0; pass < maxBalancePasses; pass++ {
		over := b.overloaded()
		if len(over) == 0 {
			break
		}

		moves := 0
		for _, id := range over {
			if moves >= maxMovesPerPass {
				break
			}
			if len(b.clusters[id]) == 0 || b.weight(id) <= b.capacity || b.oversized(id) {
				continue
			}

			var dest int
			var ok bool
			if w := b.heaviest(id).Weight(b.unitWeight); w > b.capacity {
				if dest, ok = b.emptyCluster(id); !ok {
					continue
				}
			} else {
				dest, ok = b.leastLoaded(id, w, true)
				if !ok {
					dest, ok = b.leastLoaded(id, w, false)
				}
				if !ok {
					continue
				}
			}

			o := b.takeHeaviest(id)
			b.clusters[dest] = append(b.clusters[dest], o)
			moves++
			moved++
		}
	}

	return moved
}

// firstFit returns the lowest cluster other than exclude that can take
// an order of weight w. An order heavier than a vehicle only fits an empty
// cluster.
func (b *balancer) firstFit(exclude int, w float64) (int, bool) {
	if w > b.capacity {
		return b.emptyCluster(exclude)
	}
	for _, k := range b.ids() {
		if k != exclude && !b.oversized(k) && b.weight(k)+w <= b.capacity {
			return k, true
		}
	}
	return 0, false
}

// resolveOverflow peels the heaviest orders off clusters still over
// capacity, one at a time, into the first cluster that fits or into a new
// cluster. An order heavier than a vehicle goes to an empty cluster when
// one exists. A cluster reduced to a single order heavier than capacity is
// left as is. It returns the number of clusters created.
func (b *balancer) resolveOverflow() int {
	over := b.overloaded()
	if len(over) == 0 {
		return 0
	}

	ids := b.ids()
	next := ids[len(ids)-1] + 1
	spawned := 0

	for _, id := range over {
		for b.weight(id) > b.capacity {
			if len(b.clusters[id]) == 0 || b.oversized(id) {
				break
			}

			o := b.takeHeaviest(id)
			if k, ok := b.firstFit(id, o.Weight(b.unitWeight)); ok {
				b.clusters[k] = append(b.clusters[k], o)
				continue
			}
			b.clusters[next] = []domain.Order{o}
			next++
			spawned++
		}
	}

	return spawned
}
