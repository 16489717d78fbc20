package cache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"fleet-route-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

var girona = domain.Coordinates{Lat: 41.9794, Lon: 2.8214}
var vic = domain.Coordinates{Lat: 41.9301, Lon: 2.2549}

func newSqliteCache(t *testing.T) *SqliteCoordinateCache {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE geocode_cache (name TEXT PRIMARY KEY, lat REAL NOT NULL, lon REAL NOT NULL);`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return NewSqliteCoordinateCache(db)
}

func newRedisCache(t *testing.T) (*RedisCoordinateCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisCoordinateCache(rdb, time.Hour), mr
}

func TestSqliteCoordinateCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newSqliteCache(t)

	if err := c.PutMany(ctx, map[string]domain.Coordinates{"Girona": girona, "Vic": vic}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.PutMany(ctx, map[string]domain.Coordinates{"Vic": {Lat: 1, Lon: 2}}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := c.GetMany(ctx, []string{" Girona", "Vic", "Vic", "", "Olot"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 hits, got %v", got)
	}
	if got["Girona"] != girona {
		t.Fatalf("Girona = %+v", got["Girona"])
	}
	if got["Vic"] != (domain.Coordinates{Lat: 1, Lon: 2}) {
		t.Fatalf("Vic was not replaced: %+v", got["Vic"])
	}
}

func TestSqliteCoordinateCacheRejectsInvalid(t *testing.T) {
	c := newSqliteCache(t)

	if err := c.PutMany(context.Background(), map[string]domain.Coordinates{"Nowhere": {Lat: 120}}); err == nil {
		t.Fatalf("expected out of range error")
	}
	if err := c.PutMany(context.Background(), map[string]domain.Coordinates{" ": girona}); err == nil {
		t.Fatalf("expected empty key error")
	}
}

func TestRedisCoordinateCache(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	if err := c.PutMany(ctx, map[string]domain.Coordinates{"Girona": girona}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if ttl := mr.TTL("geocode:Girona"); ttl != time.Hour {
		t.Fatalf("ttl = %v, want 1h", ttl)
	}

	mr.Set("geocode:Broken", "{not json")

	got, err := c.GetMany(ctx, []string{"Girona", "Vic", "Broken"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got["Girona"] != girona {
		t.Fatalf("got %v, want only Girona", got)
	}

	mr.FastForward(2 * time.Hour)
	got, err = c.GetMany(ctx, []string{"Girona"})
	if err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected expired entry, got %v", got)
	}
}

func TestTieredBackfillsFront(t *testing.T) {
	ctx := context.Background()
	front, mr := newRedisCache(t)
	back := newSqliteCache(t)

	if err := back.PutMany(ctx, map[string]domain.Coordinates{"Vic": vic}); err != nil {
		t.Fatalf("seed back: %v", err)
	}

	tiered := NewTiered(front, back)
	if err := tiered.PutMany(ctx, map[string]domain.Coordinates{"Girona": girona}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := tiered.GetMany(ctx, []string{"Girona", "Vic", "Olot"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 || got["Vic"] != vic || got["Girona"] != girona {
		t.Fatalf("got %v", got)
	}
	if !mr.Exists("geocode:Vic") {
		t.Fatalf("back tier hit was not copied to the front tier")
	}
}

func TestTieredSurvivesFrontOutage(t *testing.T) {
	ctx := context.Background()
	// Nothing listens on port 1.
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	front := NewRedisCoordinateCache(rdb, 0)
	back := newSqliteCache(t)

	if err := back.PutMany(ctx, map[string]domain.Coordinates{"Vic": vic}); err != nil {
		t.Fatalf("seed back: %v", err)
	}

	got, err := NewTiered(front, back).GetMany(ctx, []string{"Vic"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["Vic"] != vic {
		t.Fatalf("got %v", got)
	}
}
