package ports

import (
	"context"

	"fleet-route-service/internal/domain"
)

// Contract for a persistent destination -> coordinates mapping.
type CoordinateCache interface {
	// Return the cached coordinates of the given names. Names that are not
	// cached are absent from the result.
	GetMany(ctx context.Context, names []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, coords map[string]domain.Coordinates) error
}

// Contract for resolving place names to coordinates through an external
// service.
type Geocoder interface {
	Geocode(ctx context.Context, names []string) (map[string]domain.Coordinates, error)
}
