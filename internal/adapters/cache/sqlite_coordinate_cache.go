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

// SQLite backed cache mapping destination names to coordinates. Name keys
// are trimmed; callers are expected to use consistent spelling.
type SqliteCoordinateCache struct {
	DB *sql.DB
}

func NewSqliteCoordinateCache(db *sql.DB) *SqliteCoordinateCache {
	return &SqliteCoordinateCache{DB: db}
}

// Fetch cached coordinates for the given names.
func (s *SqliteCoordinateCache) GetMany(
	ctx context.Context,
	names []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "coordinates.sqlite.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("coordinate cache: db is nil")
	}

	uniq := uniqueNames(names)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	ph := make([]string, len(uniq))
	args := make([]any, len(uniq))
	for i, n := range uniq {
		ph[i] = "?"
		args[i] = n
	}

	// SQLite cannot bind a slice to IN (...); only the placeholder list is
	// interpolated.
	q := fmt.Sprintf(`
	SELECT
		name,
		lat,
		lon
	FROM geocode_cache
	WHERE name IN (%s);
	`, strings.Join(ph, ","))

	rows, err := s.DB.QueryContext(ctx, q, args...)
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

// Store name -> coordinate mappings, replacing existing entries.
func (s *SqliteCoordinateCache) PutMany(ctx context.Context, coords map[string]domain.Coordinates) error {
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
	INSERT OR REPLACE INTO geocode_cache (
		name,
		lat,
		lon
	)
	VALUES (?, ?, ?);
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
