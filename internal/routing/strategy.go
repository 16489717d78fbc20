// Package routing sequences the orders of one vehicle into a costed route.
package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fleet-route-service/internal/domain"
)

const (
	StrategyGenetic = "genetic"
	StrategyExact   = "exact"
)

var (
	ErrNoSolution      = errors.New("no route found")
	ErrUnknownStrategy = errors.New("unknown routing strategy")
)

// Graph is the read-only distance model a strategy routes over.
type Graph interface {
	Distance(a, b string) float64
	Lookup(city string) (domain.Coordinates, bool)
	Depot() string
}

// Strategy sequences one cluster of orders into a route starting and
// ending at the depot. Optimize returns nil and no error for an empty
// cluster.
type Strategy interface {
	Name() string
	Optimize(ctx context.Context, orders []domain.Order) (*domain.RouteResult, error)
}

// NormalizeStrategy maps user-facing names (and the "ortools" alias of
// the exact solver) to a canonical strategy name.
func NormalizeStrategy(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyGenetic, "ga":
		return StrategyGenetic, nil
	case StrategyExact, "ortools", "solver":
		return StrategyExact, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// New builds the named strategy over graph and evaluator. seed drives the
// random choices of stochastic strategies.
func New(name string, graph Graph, eval *Evaluator, seed int64) (Strategy, error) {
	canonical, err := NormalizeStrategy(name)
	if err != nil {
		return nil, err
	}

	switch canonical {
	case StrategyExact:
		return NewExact(graph, eval), nil
	default:
		return NewGenetic(graph, eval, seed), nil
	}
}
