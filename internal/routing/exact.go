package routing

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"fleet-route-service/internal/domain"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultExactTimeLimit = 2 * time.Second

	// Arc costs are integer metres.
	arcScale = 1000.0

	// Nodes expanded between two deadline checks.
	checkEvery = 1024
)

// Exact solves the single-vehicle tour over the distinct destinations of a
// cluster with depth-first branch and bound. It starts from the
// path-cheapest-arc tour and keeps the best complete tour found before the
// time limit.
type Exact struct {
	graph     Graph
	eval      *Evaluator
	TimeLimit time.Duration
}

func NewExact(graph Graph, eval *Evaluator) *Exact {
	return &Exact{graph: graph, eval: eval, TimeLimit: DefaultExactTimeLimit}
}

func (e *Exact) Name() string { return StrategyExact }

// stop is one distinct destination and the orders delivered there.
type stop struct {
	destination string
	orders      []domain.Order
}

func groupStops(orders []domain.Order) []stop {
	index := make(map[string]int)
	var stops []stop
	for _, o := range orders {
		i, ok := index[o.Destination]
		if !ok {
			i = len(stops)
			index[o.Destination] = i
			stops = append(stops, stop{destination: o.Destination})
		}
		stops[i].orders = append(stops[i].orders, o)
	}
	return stops
}

func (e *Exact) Optimize(ctx context.Context, orders []domain.Order) (*domain.RouteResult, error) {
	if len(orders) == 0 {
		return nil, nil
	}

	limit := e.TimeLimit
	if limit <= 0 {
		limit = DefaultExactTimeLimit
	}
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	stops := groupStops(orders)

	names := make([]string, len(stops)+1)
	names[0] = e.graph.Depot()
	for i, s := range stops {
		names[i+1] = s.destination
	}

	bb := newBranchAndBound(ctx, e.graph, names)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("exact route of %d orders: %w: %v", len(orders), ErrNoSolution, err)
	}

	bb.greedy()
	complete := bb.solve()

	if bb.best == nil {
		return nil, fmt.Errorf("exact route of %d orders: %w", len(orders), ErrNoSolution)
	}

	seq := make([]domain.Order, 0, len(orders))
	for _, node := range bb.best {
		seq = append(seq, stops[node-1].orders...)
	}

	out := e.eval.Build(seq, StrategyExact)
	if !complete {
		log.WithFields(log.Fields{
			"orders":     len(orders),
			"stops":      len(stops),
			"time_limit": limit,
			"expanded":   bb.expanded,
		}).Warn("[routing] exact search hit time limit, using best tour found")
		if out.Valid {
			out.Message = fmt.Sprintf("Best found within time limit (%s)", StrategyExact)
		}
	}

	return out, nil
}

// branchAndBound searches tours over nodes 1..n-1 starting and ending at
// node 0.
type branchAndBound struct {
	ctx    context.Context
	n      int
	cost   [][]int64
	minOut []int64

	best     []int
	bestCost int64

	path     []int
	visited  []bool
	expanded int
	stopped  bool
}

func newBranchAndBound(ctx context.Context, graph Graph, names []string) *branchAndBound {
	n := len(names)
	cost := make([][]int64, n)
	minOut := make([]int64, n)
	for i := range n {
		cost[i] = make([]int64, n)
		minOut[i] = math.MaxInt64
		for j := range n {
			if i == j {
				continue
			}
			c := int64(math.Round(graph.Distance(names[i], names[j]) * arcScale))
			cost[i][j] = c
			minOut[i] = min(minOut[i], c)
		}
		if n == 1 {
			minOut[i] = 0
		}
	}

	return &branchAndBound{
		ctx:      ctx,
		n:        n,
		cost:     cost,
		minOut:   minOut,
		bestCost: math.MaxInt64,
		visited:  make([]bool, n),
	}
}

// greedy installs the path-cheapest-arc tour as the first incumbent.
func (b *branchAndBound) greedy() {
	visited := make([]bool, b.n)
	tour := make([]int, 0, b.n-1)
	var total int64
	curr := 0
	for len(tour) < b.n-1 {
		next := -1
		for j := 1; j < b.n; j++ {
			if visited[j] {
				continue
			}
			if next == -1 || b.cost[curr][j] < b.cost[curr][next] {
				next = j
			}
		}
		visited[next] = true
		total += b.cost[curr][next]
		tour = append(tour, next)
		curr = next
	}
	total += b.cost[curr][0]

	b.best = tour
	b.bestCost = total
}

// solve reports whether the search space was exhausted before the deadline.
func (b *branchAndBound) solve() bool {
	b.path = make([]int, 0, b.n-1)
	b.visited[0] = true

	var rest int64
	for i := 1; i < b.n; i++ {
		rest += b.minOut[i]
	}
	b.dfs(0, 0, rest)

	return !b.stopped
}

// dfs extends the partial path ending at curr. rest is the sum of the
// cheapest outgoing arcs of all unvisited nodes.
func (b *branchAndBound) dfs(curr int, cost, rest int64) {
	if b.stopped {
		return
	}
	b.expanded++
	if b.expanded%checkEvery == 0 && b.ctx.Err() != nil {
		b.stopped = true
		return
	}

	if len(b.path) == b.n-1 {
		total := cost + b.cost[curr][0]
		if total < b.bestCost {
			b.bestCost = total
			b.best = append(b.best[:0:0], b.path...)
		}
		return
	}

	if cost+b.minOut[curr]+rest >= b.bestCost {
		return
	}

	for _, next := range b.children(curr) {
		c := cost + b.cost[curr][next]
		if c >= b.bestCost {
			// Children are sorted by arc cost.
			break
		}
		b.visited[next] = true
		b.path = append(b.path, next)

		b.dfs(next, c, rest-b.minOut[next])

		b.path = b.path[:len(b.path)-1]
		b.visited[next] = false
		if b.stopped {
			return
		}
	}
}

// children lists unvisited nodes by ascending arc cost from curr, ties to
// the lower node.
func (b *branchAndBound) children(curr int) []int {
	out := make([]int, 0, b.n)
	for j := 1; j < b.n; j++ {
		if !b.visited[j] {
			out = append(out, j)
		}
	}
	row := b.cost[curr]
	slices.SortStableFunc(out, func(x, y int) int {
		return cmp.Compare(row[x], row[y])
	})
	return out
}
