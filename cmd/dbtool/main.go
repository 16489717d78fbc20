package main

import (
	"context"
	"database/sql"
	"time"

	"fleet-route-service/internal/adapters/repositories"
	"fleet-route-service/internal/config"
	"fleet-route-service/internal/platform/db"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found (using environment variables)")
	}
	config.SetupLogging()

	dsn := config.Get("DATABASE_URL", config.Get("DB_PATH", ""))
	if dsn == "" {
		log.Fatal("DATABASE_URL or DB_PATH is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.GetDuration("DBTOOL_TIMEOUT", time.Minute))
	defer cancel()

	conn, err := db.Open(ctx, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/orders.json")
	if err := initAndSeed(ctx, conn, repositories.DialectFor(dsn), seedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect repositories.Dialect, seedPath string) error {
	log.WithField("dialect", dialect).Info("Initializing database schema...")
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		return err
	}
	log.Info("Schema ready.")

	log.WithField("path", seedPath).Info("Seeding database...")
	if err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath); err != nil {
		return err
	}
	log.Info("Seeding complete.")

	return nil
}
