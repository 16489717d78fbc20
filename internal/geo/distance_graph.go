// Package geo holds the great-circle distance model used by the optimizer.
package geo

import (
	"errors"
	"fmt"
	"slices"

	"fleet-route-service/internal/domain"

	"github.com/golang/geo/s2"
	"gonum.org/v1/gonum/mat"
)

const (
	// Mean Earth radius used by the haversine model.
	EarthRadiusKm = 6371.0

	// Distance reported when either endpoint has no known coordinates.
	PenaltyDistanceKm = 10000.0
)

var ErrUnknownDepot = errors.New("depot has no coordinates")

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b domain.Coordinates) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lon)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// DistanceGraph is a symmetric distance matrix over every known destination
// plus the depot. It is built once per run and is read-only afterwards, so
// it can be shared across concurrent routing workers without locking.
type DistanceGraph struct {
	depot  string
	names  []string
	index  map[string]int
	coords []domain.Coordinates
	dist   *mat.SymDense
}

// Build computes pairwise haversine distances for all coordinates.
// The depot must be one of the known locations.
func Build(coords map[string]domain.Coordinates, depot string) (*DistanceGraph, error) {
	if _, ok := coords[depot]; !ok {
		return nil, fmt.Errorf("build distance graph: %w: %q", ErrUnknownDepot, depot)
	}

	names := make([]string, 0, len(coords))
	for name := range coords {
		names = append(names, name)
	}
	// Sorted so the matrix layout does not depend on map iteration order.
	slices.Sort(names)

	g := &DistanceGraph{
		depot:  depot,
		names:  names,
		index:  make(map[string]int, len(names)),
		coords: make([]domain.Coordinates, len(names)),
		dist:   mat.NewSymDense(len(names), nil),
	}

	for i, name := range names {
		g.index[name] = i
		g.coords[i] = coords[name]
	}

	for i := range names {
		for j := i + 1; j < len(names); j++ {
			g.dist.SetSym(i, j, Haversine(g.coords[i], g.coords[j]))
		}
	}

	return g, nil
}

// Lookup returns the coordinates of city.
func (g *DistanceGraph) Lookup(city string) (domain.Coordinates, bool) {
	i, ok := g.index[city]
	if !ok {
		return domain.Coordinates{}, false
	}
	return g.coords[i], true
}

// Distance between a and b in kilometres, or PenaltyDistanceKm when either
// endpoint is unknown.
func (g *DistanceGraph) Distance(a, b string) float64 {
	i, ok := g.index[a]
	if !ok {
		return PenaltyDistanceKm
	}
	j, ok := g.index[b]
	if !ok {
		return PenaltyDistanceKm
	}
	return g.dist.At(i, j)
}

func (g *DistanceGraph) Depot() string { return g.depot }

// Nodes returns the sorted location names, depot included.
func (g *DistanceGraph) Nodes() []string { return slices.Clone(g.names) }

func (g *DistanceGraph) Len() int { return len(g.names) }
