package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/obs"
)

// PostgresCoordinateCache is the Postgres (pgx stdlib driver) variant of
// the coordinate cache.
type PostgresCoordinateCache struct {
	DB *sql.DB
}

func NewPostgresCoordinateCache(db *sql.DB) *PostgresCoordinateCache {
	return &PostgresCoordinateCache{DB: db}
}

func (s *PostgresCoordinateCache) GetMany(
	ctx context.Context,
	names []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "coordinates.postgres.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("coordinate cache: db is nil")
	}

	uniq := uniqueNames(names)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	q := `
	SELECT name, lat, lon
	FROM geocode_cache
	WHERE name = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
	if err != nil {
		return nil, fmt.Errorf("get coordinate cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(uniq))
	for rows.Next() {
		var name string
		var c domain.Coordinates
		if err := rows.Scan(&name, &c.Lat, &c.Lon); err != nil {
			return nil, fmt.Errorf("get coordinate cache: scan rows: %w", err)
		}
		out[name] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get coordinate cache: row iteration: %w", err)
	}

	return out, nil
}

func (s *PostgresCoordinateCache) PutMany(ctx context.Context, coords map[string]domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("coordinate cache: db is nil")
	}
	if len(coords) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert coordinate cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO geocode_cache (name, lat, lon)
	VALUES ($1, $2, $3)
	ON CONFLICT (name) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon;
	`)
	if err != nil {
		return fmt.Errorf("insert coordinate cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for name, c := range coords {
		name = strings.TrimSpace(name)
		if name == "" {
			return errors.New("insert coordinate cache: empty name key")
		}
		if !c.Valid() {
			return fmt.Errorf("insert coordinate cache: name=%q: coordinates out of range: %+v", name, c)
		}
		if _, err := stmt.ExecContext(ctx, name, c.Lat, c.Lon); err != nil {
			return fmt.Errorf("insert coordinate cache name=%q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert coordinate cache commit: %w", err)
	}

	return nil
}
