package services

import (
	"context"
	"fmt"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/geo"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"

	log "github.com/sirupsen/logrus"
)

// CoordinateResolver assembles the coordinates an optimization run needs
// from a cache, falling back to an optional geocoder for cache misses.
type CoordinateResolver struct {
	Cache    ports.CoordinateCache
	Geocoder ports.Geocoder
}

func NewCoordinateResolver(cache ports.CoordinateCache, geocoder ports.Geocoder) *CoordinateResolver {
	return &CoordinateResolver{Cache: cache, Geocoder: geocoder}
}

// Resolve returns the coordinates known for the depot and every order
// destination. Names that cannot be resolved are left out; their orders
// end up unclustered.
func (r *CoordinateResolver) Resolve(ctx context.Context, depot string, orders []domain.Order) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "coordinates.Resolve")(&err)

	names := make([]string, 0, len(orders)+1)
	names = append(names, depot)
	for _, o := range orders {
		names = append(names, o.Destination)
	}

	coords, err := r.Cache.GetMany(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("resolve coordinates: %w", err)
	}
	if r.Geocoder == nil {
		return coords, nil
	}

	var missing []string
	seen := make(map[string]bool)
	for _, n := range names {
		if _, ok := coords[n]; !ok && !seen[n] {
			seen[n] = true
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return coords, nil
	}

	found, gerr := r.Geocoder.Geocode(ctx, missing)
	if gerr != nil {
		log.WithFields(obs.Fields(ctx)).WithError(gerr).Warn("[services] geocoding incomplete")
	}
	if len(found) == 0 {
		return coords, nil
	}

	if err := r.Cache.PutMany(ctx, found); err != nil {
		log.WithFields(obs.Fields(ctx)).WithError(err).Warn("[services] caching geocoded coordinates failed")
	}
	for n, c := range found {
		coords[n] = c
	}
	return coords, nil
}

// Graph resolves coordinates and builds the distance graph rooted at depot.
func (r *CoordinateResolver) Graph(ctx context.Context, depot string, orders []domain.Order) (*geo.DistanceGraph, error) {
	coords, err := r.Resolve(ctx, depot, orders)
	if err != nil {
		return nil, err
	}
	g, err := geo.Build(coords, depot)
	if err != nil {
		return nil, fmt.Errorf("resolve graph: %w", err)
	}
	return g, nil
}
