package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"fleet-route-service/internal/adapters/cache"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/ports"
)

// OrderLineSeed is one order line of a seed file. Lines sharing an
// order_id form one multi-line order.
type OrderLineSeed struct {
	OrderID        int     `json:"order_id"`
	OrderDate      string  `json:"order_date"`
	Product        string  `json:"product"`
	Destination    string  `json:"destination"`
	Quantity       int     `json:"quantity"`
	Revenue        float64 `json:"revenue"`
	LeadTimeHours  int     `json:"lead_time_hours"`
	ShelfLifeDays  int     `json:"shelf_life_days"`
	DistanceHintKm float64 `json:"distance_hint_km"`
	CustomerEmail  string  `json:"customer_email"`
}

// Seed is the layout of a seed file.
type Seed struct {
	OrderLines  []OrderLineSeed               `json:"order_lines"`
	Coordinates map[string]domain.Coordinates `json:"coordinates"`
}

// ReadSeed parses and validates a seed file.
func ReadSeed(path string) (*Seed, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: read %q: %w", path, err)
	}

	var seed Seed
	if err := json.Unmarshal(bytes, &seed); err != nil {
		return nil, fmt.Errorf("read seed: parse json: %w", err)
	}

	for i, l := range seed.OrderLines {
		if l.OrderID <= 0 {
			return nil, fmt.Errorf("read seed: invalid order_id at index %d: %d", i+1, l.OrderID)
		}
		if strings.TrimSpace(l.Destination) == "" {
			return nil, fmt.Errorf("read seed: line at index %d: destination cannot be empty", i+1)
		}
		if _, err := time.Parse(time.DateOnly, l.OrderDate); err != nil {
			return nil, fmt.Errorf("read seed: line at index %d: order_date: %w", i+1, err)
		}
	}

	return &seed, nil
}

// Orders converts the seed lines to domain order lines.
func (s *Seed) Orders() ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(s.OrderLines))
	for _, l := range s.OrderLines {
		date, err := time.Parse(time.DateOnly, l.OrderDate)
		if err != nil {
			return nil, fmt.Errorf("seed orders: order_id=%d: %w", l.OrderID, err)
		}
		o, err := domain.NewOrder(domain.Order{
			ID:             l.OrderID,
			OrderDate:      date,
			Product:        l.Product,
			Destination:    l.Destination,
			Quantity:       l.Quantity,
			Revenue:        l.Revenue,
			LeadTimeHours:  l.LeadTimeHours,
			ShelfLifeDays:  l.ShelfLifeDays,
			DistanceHintKm: l.DistanceHintKm,
			CustomerEmail:  l.CustomerEmail,
		})
		if err != nil {
			return nil, fmt.Errorf("seed orders: %w", err)
		}
		out = append(out, o)
	}
	return out, nil
}

// CoordinateCacheFor returns the coordinate cache adapter matching d.
func CoordinateCacheFor(db *sql.DB, d Dialect) ports.CoordinateCache {
	if d == Postgres {
		return cache.NewPostgresCoordinateCache(db)
	}
	return cache.NewSqliteCoordinateCache(db)
}

// Populate the database with the order lines and coordinates of a seed
// file. Seeding is idempotent: lines are keyed by order id and position.
func SeedFromJSON(ctx context.Context, db *sql.DB, d Dialect, path string) error {
	seed, err := ReadSeed(path)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if err := InsertOrderLines(ctx, db, d, seed.OrderLines); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if err := CoordinateCacheFor(db, d).PutMany(ctx, seed.Coordinates); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

// InsertOrderLines upserts lines, numbering the lines of each order in the
// given order.
func InsertOrderLines(ctx context.Context, db *sql.DB, d Dialect, lines []OrderLineSeed) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert order lines: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cols := "order_id, line_no, order_date, product, destination, quantity, revenue, lead_time_hours, shelf_life_days, distance_hint_km, customer_email"
	ph := make([]string, 11)
	for i := range ph {
		ph[i] = d.placeholder(i + 1)
	}

	var query string
	if d == Postgres {
		query = fmt.Sprintf(`
	INSERT INTO order_lines (%s)
	VALUES (%s)
	ON CONFLICT (order_id, line_no) DO UPDATE
	SET order_date = EXCLUDED.order_date,
		product = EXCLUDED.product,
		destination = EXCLUDED.destination,
		quantity = EXCLUDED.quantity,
		revenue = EXCLUDED.revenue,
		lead_time_hours = EXCLUDED.lead_time_hours,
		shelf_life_days = EXCLUDED.shelf_life_days,
		distance_hint_km = EXCLUDED.distance_hint_km,
		customer_email = EXCLUDED.customer_email;
	`, cols, strings.Join(ph, ", "))
	} else {
		query = fmt.Sprintf(`
	INSERT OR REPLACE INTO order_lines (%s)
	VALUES (%s);
	`, cols, strings.Join(ph, ", "))
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("insert order lines: prepare insert: %w", err)
	}
	defer stmt.Close()

	lineNo := make(map[int]int)
	for _, l := range lines {
		lineNo[l.OrderID]++
		_, err := stmt.ExecContext(ctx,
			l.OrderID,
			lineNo[l.OrderID],
			l.OrderDate,
			l.Product,
			strings.TrimSpace(l.Destination),
			l.Quantity,
			l.Revenue,
			l.LeadTimeHours,
			l.ShelfLifeDays,
			l.DistanceHintKm,
			l.CustomerEmail,
		)
		if err != nil {
			return fmt.Errorf("insert order lines: order_id=%d line=%d: %w", l.OrderID, lineNo[l.OrderID], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert order lines: commit tx: %w", err)
	}

	return nil
}
