// Package services runs the fleet optimization pipeline: consolidation,
// reachability filtering, capacity-aware clustering and per-vehicle
// routing.
package services

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"time"

	"fleet-route-service/internal/clustering"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/metrics"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/routing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownStrategy = routing.ErrUnknownStrategy

// DefaultUnroutableDestinations lists destinations that cannot be reached
// by road from the mainland: the Balearic and Canary islands and the North
// African enclaves.
var DefaultUnroutableDestinations = []string{
	"las palmas",
	"santa cruz de tenerife",
	"islas baleares",
	"palma de mallorca",
	"ibiza",
	"menorca",
	"formentera",
	"tenerife",
	"gran canaria",
	"lanzarote",
	"fuerteventura",
	"la palma",
	"la gomera",
	"el hierro",
	"ceuta",
	"melilla",
}

// Graph is the distance model shared by clustering and routing.
type Graph interface {
	routing.Graph
}

type OptimizeRequest struct {
	Orders []domain.Order

	// Strategy is a routing strategy name; empty selects the genetic one.
	Strategy string

	// Clustering optionally overrides the orchestrator's partitioner.
	Clustering string
}

type Orchestrator struct {
	cfg         domain.FleetVehicleConfig
	graph       Graph
	partitioner clustering.Partitioner
	unroutable  []string
	seed        int64
	workers     int

	geneticParams  *routing.GeneticParams
	exactTimeLimit time.Duration
}

type Option func(*Orchestrator)

func WithPartitioner(p clustering.Partitioner) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.partitioner = p
		}
	}
}

// WithUnroutable replaces the set of destination fragments that mark an
// order as not reachable by road.
func WithUnroutable(fragments []string) Option {
	return func(o *Orchestrator) {
		o.unroutable = normalizeFragments(fragments)
	}
}

func WithSeed(seed int64) Option {
	return func(o *Orchestrator) { o.seed = seed }
}

func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithGeneticParams(p routing.GeneticParams) Option {
	return func(o *Orchestrator) { o.geneticParams = &p }
}

func WithExactTimeLimit(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.exactTimeLimit = d
		}
	}
}

func NewOrchestrator(cfg domain.FleetVehicleConfig, graph Graph, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new orchestrator: %w", err)
	}
	if graph == nil {
		return nil, fmt.Errorf("new orchestrator: distance graph must not be nil")
	}

	o := &Orchestrator{
		cfg:         cfg,
		graph:       graph,
		partitioner: clustering.NewKMeans(),
		unroutable:  normalizeFragments(DefaultUnroutableDestinations),
		seed:        42,
		workers:     runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func (o *Orchestrator) Config() domain.FleetVehicleConfig { return o.cfg }

// OptimizeGrouped consolidates multi-line orders before optimizing them.
func (o *Orchestrator) OptimizeGrouped(ctx context.Context, groups [][]domain.Order, strategy string) (*domain.OptimizationResult, error) {
	return o.Optimize(ctx, OptimizeRequest{Orders: domain.Consolidate(groups), Strategy: strategy})
}

// Optimize assigns req.Orders to vehicles and routes every vehicle.
//
// Failures are localized: an unreachable order lands in Unroutable, an
// order without coordinates in Unclustered, and a cluster whose routing
// fails gets a nil route. Only an unknown strategy or partitioner name
// and context cancellation fail the whole run.
func (o *Orchestrator) Optimize(ctx context.Context, req OptimizeRequest) (res *domain.OptimizationResult, err error) {
	strategy, err := routing.NormalizeStrategy(req.Strategy)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	partitioner := o.partitioner
	if req.Clustering != "" {
		partitioner, err = clustering.PartitionerByName(req.Clustering)
		if err != nil {
			return nil, fmt.Errorf("optimize: %w", err)
		}
	}

	runID := uuid.NewString()
	ctx = obs.WithRunID(ctx, runID)
	defer obs.Time(ctx, "optimize")(&err)

	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.OptimizerRuns.WithLabelValues(strategy, outcome).Inc()
		metrics.OptimizerDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	}()

	res = &domain.OptimizationResult{
		RunID:      runID,
		Strategy:   strategy,
		Clustering: partitioner.Name(),
		Routes:     map[int]*domain.RouteResult{},
	}

	routable, unroutable := o.splitRoutable(req.Orders)
	res.Unroutable = unroutable
	metrics.OrdersProcessed.WithLabelValues("unroutable").Add(float64(len(unroutable)))

	logger := log.WithFields(obs.Fields(ctx))
	if len(unroutable) > 0 {
		logger.WithField("orders", domain.OrderIDs(unroutable)).Warn("[services] destinations not reachable by road excluded")
	}
	if len(routable) == 0 {
		res.Summary = Summarize(res.Routes, o.cfg)
		return res, nil
	}

	fleet := FleetSize(routable, o.cfg)

	assigner := clustering.NewAssigner(partitioner, o.graph, o.seed)
	clusters := assigner.Assign(routable, fleet, o.cfg.UnitWeight, o.cfg.Capacity)
	res.Unclustered = clusters.Unclustered
	res.Unresolvable = clusters.Unresolvable
	metrics.OrdersProcessed.WithLabelValues("unclustered").Add(float64(len(clusters.Unclustered)))

	logger.WithFields(log.Fields{
		"orders":     len(routable),
		"fleet_size": fleet,
		"clusters":   len(clusters.Clusters),
		"strategy":   strategy,
	}).Info("[services] routing clusters")

	routes, err := o.routeClusters(ctx, strategy, clusters)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	res.Routes = routes
	res.Summary = Summarize(routes, o.cfg)
	metrics.OrdersProcessed.WithLabelValues("delivered").Add(float64(res.Summary.OrdersDelivered))

	logger.WithFields(log.Fields{
		"vehicles":  res.Summary.VehiclesUsed,
		"delivered": res.Summary.OrdersDelivered,
		"km":        res.Summary.TotalDistanceKm,
		"cost":      res.Summary.TotalCost,
		"occupancy": res.Summary.GlobalOccupancyPct,
	}).Info("[services] optimization finished")

	return res, nil
}

// routeClusters routes every cluster concurrently. Each cluster gets its
// own strategy instance seeded with seed+clusterID.
func (o *Orchestrator) routeClusters(ctx context.Context, strategy string, clusters clustering.Result) (map[int]*domain.RouteResult, error) {
	eval := routing.NewEvaluator(o.graph, o.cfg)
	unresolvable := make(map[int]bool, len(clusters.Unresolvable))
	for _, id := range clusters.Unresolvable {
		unresolvable[id] = true
	}

	ids := clusters.IDs()
	routes := make(map[int]*domain.RouteResult, len(ids))
	for _, cid := range ids {
		routes[cid] = nil
	}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(o.workers)

	for _, cid := range ids {
		orders := clusters.Clusters[cid]
		if len(orders) == 0 {
			continue
		}

		g.Go(func() error {
			route := o.routeCluster(ctx, strategy, eval, cid, orders)
			if route != nil && unresolvable[cid] {
				route.Valid = false
				route.Message = fmt.Sprintf("Unresolvable (%s): load %.2f exceeds vehicle capacity %.2f",
					strategy, route.Load(o.cfg.UnitWeight), o.cfg.Capacity)
			}

			mu.Lock()
			routes[cid] = route
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return routes, nil
}

func (o *Orchestrator) routeCluster(ctx context.Context, strategy string, eval *routing.Evaluator, cid int, orders []domain.Order) *domain.RouteResult {
	start := time.Now()
	defer func() {
		metrics.RouteDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	}()

	s, err := o.strategy(strategy, eval, o.seed+int64(cid))
	if err == nil {
		var route *domain.RouteResult
		route, err = s.Optimize(ctx, orders)
		if err == nil && route != nil {
			route.VehicleID = cid + 1
			return route
		}
	}

	log.WithFields(obs.Fields(ctx)).WithFields(log.Fields{
		"cluster": cid,
		"orders":  len(orders),
	}).WithError(err).Warn("[services] cluster routing failed")
	return nil
}

func (o *Orchestrator) strategy(name string, eval *routing.Evaluator, seed int64) (routing.Strategy, error) {
	s, err := routing.New(name, o.graph, eval, seed)
	if err != nil {
		return nil, err
	}
	switch s := s.(type) {
	case *routing.Genetic:
		if o.geneticParams != nil {
			s.WithParams(*o.geneticParams)
		}
	case *routing.Exact:
		if o.exactTimeLimit > 0 {
			s.TimeLimit = o.exactTimeLimit
		}
	}
	return s, nil
}

// splitRoutable separates orders whose destination contains one of the
// unroutable fragments, compared case-insensitively.
func (o *Orchestrator) splitRoutable(orders []domain.Order) (routable, unroutable []domain.Order) {
	for _, ord := range orders {
		if o.isUnroutable(ord.Destination) {
			unroutable = append(unroutable, ord)
			continue
		}
		routable = append(routable, ord)
	}
	return routable, unroutable
}

func (o *Orchestrator) isUnroutable(destination string) bool {
	d := strings.ToLower(destination)
	for _, frag := range o.unroutable {
		if strings.Contains(d, frag) {
			return true
		}
	}
	return false
}

func normalizeFragments(fragments []string) []string {
	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// FleetSize is the number of vehicles needed to carry orders by weight
// alone, at least one.
func FleetSize(orders []domain.Order, cfg domain.FleetVehicleConfig) int {
	total := domain.TotalWeight(orders, cfg.UnitWeight)
	return max(1, int(math.Ceil(total/cfg.Capacity)))
}
