package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/metrics"
	"fleet-route-service/internal/platform/obs"

	redis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const defaultRedisPrefix = "geocode:"

// RedisCoordinateCache stores one JSON encoded coordinate pair per key.
// Entries expire after TTL when it is positive.
type RedisCoordinateCache struct {
	rdb    redis.UniversalClient
	prefix string
	TTL    time.Duration
}

func NewRedisCoordinateCache(rdb redis.UniversalClient, ttl time.Duration) *RedisCoordinateCache {
	return &RedisCoordinateCache{rdb: rdb, prefix: defaultRedisPrefix, TTL: ttl}
}

// NewRedisCoordinateCacheFromURL connects using a redis:// URL.
func NewRedisCoordinateCacheFromURL(url string, ttl time.Duration) (*RedisCoordinateCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis coordinate cache: parse url: %w", err)
	}
	return NewRedisCoordinateCache(redis.NewClient(opt), ttl), nil
}

func (r *RedisCoordinateCache) key(name string) string { return r.prefix + name }

func (r *RedisCoordinateCache) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisCoordinateCache) GetMany(
	ctx context.Context,
	names []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "coordinates.redis.GetMany")(&err)

	if r.rdb == nil {
		return nil, errors.New("coordinate cache: redis client is nil")
	}

	uniq := uniqueNames(names)
	out := make(map[string]domain.Coordinates, len(uniq))
	if len(uniq) == 0 {
		return out, nil
	}

	keys := make([]string, len(uniq))
	for i, n := range uniq {
		keys[i] = r.key(n)
	}

	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get coordinate cache: redis mget: %w", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var c domain.Coordinates
		if err := json.Unmarshal([]byte(s), &c); err != nil {
			// A corrupt entry behaves like a miss and is overwritten on the
			// next PutMany.
			log.WithFields(obs.Fields(ctx)).WithField("key", keys[i]).WithError(err).Warn("[cache] undecodable redis entry")
			continue
		}
		out[uniq[i]] = c
	}

	metrics.GeocodeCacheLookups.WithLabelValues("redis", "hit").Add(float64(len(out)))
	metrics.GeocodeCacheLookups.WithLabelValues("redis", "miss").Add(float64(len(uniq) - len(out)))

	return out, nil
}

func (r *RedisCoordinateCache) PutMany(ctx context.Context, coords map[string]domain.Coordinates) error {
	if r.rdb == nil {
		return errors.New("coordinate cache: redis client is nil")
	}
	if len(coords) == 0 {
		return nil
	}

	pipe := r.rdb.TxPipeline()
	for name, c := range coords {
		name = strings.TrimSpace(name)
		if name == "" {
			return errors.New("insert coordinate cache: empty name key")
		}
		if !c.Valid() {
			return fmt.Errorf("insert coordinate cache: name=%q: coordinates out of range: %+v", name, c)
		}

		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("insert coordinate cache name=%q: encode: %w", name, err)
		}
		pipe.Set(ctx, r.key(name), data, r.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert coordinate cache: redis exec: %w", err)
	}
	return nil
}
