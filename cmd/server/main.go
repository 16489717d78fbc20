package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet-route-service/internal/adapters/cache"
	"fleet-route-service/internal/adapters/geocoding"
	"fleet-route-service/internal/adapters/repositories"
	"fleet-route-service/internal/api"
	"fleet-route-service/internal/config"
	"fleet-route-service/internal/platform/db"
	"fleet-route-service/internal/platform/metrics"
	"fleet-route-service/internal/ports"
	"fleet-route-service/internal/services"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, ORS) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found (using environment variables)")
	}
	config.SetupLogging()
	metrics.Register()

	dsn := config.Get("DATABASE_URL", config.Get("DB_PATH", "data/app.db"))
	seedPath := config.Get("SEED_PATH", "")
	port := config.Get("PORT", "8080")

	fleet, err := config.LoadFleet(config.Get("FLEET_CONFIG", ""))
	if err != nil {
		log.Fatal(err)
	}
	fleet.Depot = config.Get("DEPOT", fleet.Depot)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	dialect := repositories.DialectFor(dsn)
	if err := initAndSeed(ctx, conn, dialect, seedPath); err != nil {
		log.Fatal(err)
	}

	coordCache, err := coordinateCache(ctx, conn, dialect)
	if err != nil {
		log.Fatal(err)
	}

	var geocoder ports.Geocoder
	if key := config.Get("ORS_API_KEY", ""); key != "" {
		g, err := geocoding.NewORSGeocoder(key, config.Get("GEOCODE_COUNTRY", "ES"))
		if err != nil {
			log.Fatal(err)
		}
		geocoder = g
	}

	repo := repositories.NewSQLOrderRepository(conn)
	router := api.NewRouter(repo, services.NewCoordinateResolver(coordCache, geocoder), fleet)

	// Timeouts allow for the exact solver budget and cold geocoding.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      config.GetDuration("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(log.Fields{"addr": srv.Addr, "depot": fleet.Depot, "driver": db.Driver(dsn)}).Info("Server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// coordinateCache puts Redis in front of the SQL cache when REDIS_URL is set.
func coordinateCache(ctx context.Context, conn *sql.DB, dialect repositories.Dialect) (ports.CoordinateCache, error) {
	durable := repositories.CoordinateCacheFor(conn, dialect)

	url := config.Get("REDIS_URL", "")
	if url == "" {
		return durable, nil
	}

	front, err := cache.NewRedisCoordinateCacheFromURL(url, config.GetDuration("REDIS_TTL", 24*time.Hour))
	if err != nil {
		return nil, err
	}
	if err := front.Ping(ctx); err != nil {
		log.WithError(err).Warn("Redis unreachable, using SQL coordinate cache only")
		return durable, nil
	}
	return cache.NewTiered(front, durable), nil
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect repositories.Dialect, seedPath string) error {
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	if seedPath == "" {
		return nil
	}
	if err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}
	return nil
}
