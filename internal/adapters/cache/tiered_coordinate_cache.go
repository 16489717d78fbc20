package cache

import (
	"context"
	"fmt"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/metrics"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"

	log "github.com/sirupsen/logrus"
)

// Tiered reads through a fast Front cache (Redis) to a durable Back cache
// (SQL). Hits found only in Back are copied into Front.
type Tiered struct {
	Front ports.CoordinateCache
	Back  ports.CoordinateCache
}

func NewTiered(front, back ports.CoordinateCache) *Tiered {
	return &Tiered{Front: front, Back: back}
}

func (t *Tiered) GetMany(ctx context.Context, names []string) (map[string]domain.Coordinates, error) {
	uniq := uniqueNames(names)

	out, err := t.Front.GetMany(ctx, uniq)
	if err != nil {
		// Fall through to the back tier.
		log.WithFields(obs.Fields(ctx)).WithError(err).Warn("[cache] front tier unavailable, reading back tier")
		out = map[string]domain.Coordinates{}
	}

	var missing []string
	for _, n := range uniq {
		if _, ok := out[n]; !ok {
			missing = append(missing, n)
		}
	}
	metrics.GeocodeCacheLookups.WithLabelValues("tiered", "front_hit").Add(float64(len(out)))
	if len(missing) == 0 {
		return out, nil
	}

	back, err := t.Back.GetMany(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("tiered coordinate cache: %w", err)
	}
	metrics.GeocodeCacheLookups.WithLabelValues("tiered", "back_hit").Add(float64(len(back)))

	for n, c := range back {
		out[n] = c
	}
	if len(back) > 0 {
		if err := t.Front.PutMany(ctx, back); err != nil {
			log.WithFields(obs.Fields(ctx)).WithError(err).Warn("[cache] front tier backfill failed")
		}
	}

	return out, nil
}

// PutMany writes the durable tier first.
func (t *Tiered) PutMany(ctx context.Context, coords map[string]domain.Coordinates) error {
	if err := t.Back.PutMany(ctx, coords); err != nil {
		return fmt.Errorf("tiered coordinate cache: %w", err)
	}
	if err := t.Front.PutMany(ctx, coords); err != nil {
		log.WithFields(obs.Fields(ctx)).WithError(err).Warn("[cache] front tier write failed")
	}
	return nil
}
