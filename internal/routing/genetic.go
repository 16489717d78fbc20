package routing

import (
	"cmp"
	"context"
	"math"
	"math/rand"
	"slices"

	"fleet-route-service/internal/domain"

	log "github.com/sirupsen/logrus"
)

// GeneticParams tunes the memetic search.
type GeneticParams struct {
	Generations    int     `yaml:"generations" json:"generations"`
	PopulationSize int     `yaml:"population_size" json:"population_size"`
	EliteFraction  float64 `yaml:"elite_fraction" json:"elite_fraction"`
	MutationRate   float64 `yaml:"mutation_rate" json:"mutation_rate"`
	MaxStagnant    int     `yaml:"max_stagnant" json:"max_stagnant"`

	// Clusters with fewer orders than SmallThreshold use the small budget.
	SmallThreshold   int `yaml:"small_threshold" json:"small_threshold"`
	SmallGenerations int `yaml:"small_generations" json:"small_generations"`
	SmallPopulation  int `yaml:"small_population" json:"small_population"`
}

func DefaultGeneticParams() GeneticParams {
	return GeneticParams{
		Generations:      500,
		PopulationSize:   200,
		EliteFraction:    0.3,
		MutationRate:     0.3,
		MaxStagnant:      40,
		SmallThreshold:   10,
		SmallGenerations: 100,
		SmallPopulation:  50,
	}
}

// Genetic is a memetic genetic algorithm: a population of visiting
// sequences evolves by truncation selection, order crossover and inversion
// mutation under the fast round-trip fitness, and the winner is polished
// with 2-opt before the full cost simulation.
type Genetic struct {
	graph  Graph
	eval   *Evaluator
	params GeneticParams
	seed   int64

	// OnGeneration, when set, observes every generation's population
	// before selection.
	OnGeneration func(generation int, population [][]domain.Order)
}

func NewGenetic(graph Graph, eval *Evaluator, seed int64) *Genetic {
	return &Genetic{graph: graph, eval: eval, params: DefaultGeneticParams(), seed: seed}
}

func (g *Genetic) WithParams(p GeneticParams) *Genetic {
	g.params = p
	return g
}

func (g *Genetic) Name() string { return StrategyGenetic }

// Optimize searches for a short visiting sequence of orders. Cancelling ctx
// stops the search early and keeps the best sequence found so far.
func (g *Genetic) Optimize(ctx context.Context, orders []domain.Order) (*domain.RouteResult, error) {
	if len(orders) == 0 {
		return nil, nil
	}
	if len(orders) <= 2 {
		return g.eval.Build(orders, StrategyGenetic), nil
	}

	p := g.params
	if len(orders) < p.SmallThreshold {
		p.Generations = p.SmallGenerations
		p.PopulationSize = p.SmallPopulation
	}
	popSize := max(p.PopulationSize, 2)

	s := newSearch(g.graph, orders, rand.New(rand.NewSource(g.seed)))

	population := make([][]int, 0, popSize)
	population = append(population, s.genome(nearestNeighbor(g.graph, orders)))
	for len(population) < popSize {
		population = append(population, s.rng.Perm(s.n))
	}

	var best []int
	bestScore := math.Inf(1)
	stagnant := 0
	generation := 0

	type scored struct {
		score  float64
		genome []int
	}
	ranked := make([]scored, popSize)

	for generation = 0; generation < p.Generations; generation++ {
		if ctx.Err() != nil {
			break
		}
		if g.OnGeneration != nil {
			g.OnGeneration(generation, s.decodeAll(population))
		}

		improved := false
		for i, genome := range population {
			score := s.roundTrip(genome)
			if score < bestScore {
				bestScore = score
				best = slices.Clone(genome)
				improved = true
			}
			ranked[i] = scored{score: score, genome: genome}
		}

		if improved {
			stagnant = 0
		} else {
			stagnant++
		}
		if stagnant >= p.MaxStagnant {
			break
		}

		slices.SortStableFunc(ranked, func(a, b scored) int {
			return cmp.Compare(a.score, b.score)
		})

		keep := max(int(float64(popSize)*p.EliteFraction), 1)
		survivors := make([][]int, keep)
		for i := range keep {
			survivors[i] = ranked[i].genome
		}

		next := make([][]int, 0, popSize)
		next = append(next, slices.Clone(survivors[0]))
		for len(next) < popSize {
			p1 := survivors[s.rng.Intn(keep)]
			p2 := survivors[s.rng.Intn(keep)]

			child := s.crossover(p1, p2)
			if s.rng.Float64() < p.MutationRate {
				s.mutate(child)
			}
			next = append(next, child)
		}
		population = next
	}

	if best == nil {
		best = population[0]
	}

	route := twoOpt(g.graph, s.decode(best))

	log.WithFields(log.Fields{
		"orders":      len(orders),
		"generations": generation,
		"search_km":   domain.Round2(bestScore),
		"final_km":    domain.Round2(g.eval.RoundTripKm(route)),
	}).Debug("[routing] genetic search finished")

	return g.eval.Build(route, StrategyGenetic), nil
}

// search holds the per-call state of one genetic run: genomes are
// permutations of indices into orders, and dist caches the depot (row 0)
// and order destinations (rows 1..n).
type search struct {
	orders []domain.Order
	n      int
	dist   [][]float64
	rng    *rand.Rand
}

func newSearch(graph Graph, orders []domain.Order, rng *rand.Rand) *search {
	n := len(orders)
	names := make([]string, n+1)
	names[0] = graph.Depot()
	for i, o := range orders {
		names[i+1] = o.Destination
	}

	dist := make([][]float64, n+1)
	for i := range dist {
		dist[i] = make([]float64, n+1)
		for j := range dist[i] {
			dist[i][j] = graph.Distance(names[i], names[j])
		}
	}

	return &search{orders: orders, n: n, dist: dist, rng: rng}
}

func (s *search) roundTrip(genome []int) float64 {
	d := 0.0
	prev := 0
	for _, gi := range genome {
		d += s.dist[prev][gi+1]
		prev = gi + 1
	}
	return d + s.dist[prev][0]
}

// genome maps an order sequence back to indices; orders are matched by
// position in the input so duplicate ids cannot collapse.
func (s *search) genome(seq []domain.Order) []int {
	used := make([]bool, s.n)
	out := make([]int, 0, s.n)
	for _, o := range seq {
		for i, candidate := range s.orders {
			if !used[i] && candidate.ID == o.ID && candidate.Destination == o.Destination {
				used[i] = true
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func (s *search) decode(genome []int) []domain.Order {
	out := make([]domain.Order, len(genome))
	for i, gi := range genome {
		out[i] = s.orders[gi]
	}
	return out
}

func (s *search) decodeAll(population [][]int) [][]domain.Order {
	out := make([][]domain.Order, len(population))
	for i, genome := range population {
		out[i] = s.decode(genome)
	}
	return out
}

// twoPoints returns two distinct sorted positions.
func (s *search) twoPoints() (int, int) {
	a := s.rng.Intn(s.n)
	b := s.rng.Intn(s.n - 1)
	if b >= a {
		b++
	}
	if a > b {
		a, b = b, a
	}
	return a, b
}

// crossover is order crossover (OX): the child copies p1[a:b] in place and
// fills the remaining positions, starting after the slice and wrapping
// around, with the genes of p2 in their relative order.
func (s *search) crossover(p1, p2 []int) []int {
	a, b := s.twoPoints()

	child := make([]int, s.n)
	inSlice := make([]bool, s.n)
	for i := a; i < b; i++ {
		child[i] = p1[i]
		inSlice[p1[i]] = true
	}

	pos := b
	for _, gene := range p2 {
		if inSlice[gene] {
			continue
		}
		if pos >= s.n {
			pos = 0
		}
		child[pos] = gene
		pos++
	}

	return child
}

// mutate reverses a random segment in place.
func (s *search) mutate(genome []int) {
	i, j := s.twoPoints()
	for ; i < j; i, j = i+1, j-1 {
		genome[i], genome[j] = genome[j], genome[i]
	}
}
