package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/obs"
)

// SQL implementation of the OrderRepository port. The listing query is
// portable, so one type serves SQLite and Postgres.
type SQLOrderRepository struct{ DB *sql.DB }

func NewSQLOrderRepository(db *sql.DB) *SQLOrderRepository {
	return &SQLOrderRepository{DB: db}
}

// Return all order lines ordered by order id and line number, with the
// derived shelf-life fields filled in.
func (s *SQLOrderRepository) ListOrderLines(ctx context.Context) (_ []domain.Order, err error) {
	defer obs.Time(ctx, "orders.ListOrderLines")(&err)

	if s.DB == nil {
		return nil, errors.New("order repository: DB is nil")
	}

	query := `
	SELECT
		order_id,
		order_date,
		product,
		destination,
		quantity,
		revenue,
		lead_time_hours,
		shelf_life_days,
		distance_hint_km,
		customer_email
	FROM order_lines
	ORDER BY order_id, line_no;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list order lines: query order_lines table: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.Order, 0, 64)
	for rows.Next() {
		var o domain.Order
		var date string
		err := rows.Scan(
			&o.ID,
			&date,
			&o.Product,
			&o.Destination,
			&o.Quantity,
			&o.Revenue,
			&o.LeadTimeHours,
			&o.ShelfLifeDays,
			&o.DistanceHintKm,
			&o.CustomerEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("list order lines: scan row: %w", err)
		}

		o.OrderDate, err = time.Parse(time.DateOnly, date)
		if err != nil {
			return nil, fmt.Errorf("list order lines: order_id=%d: parse order date %q: %w", o.ID, date, err)
		}

		o, err = domain.NewOrder(o)
		if err != nil {
			return nil, fmt.Errorf("list order lines: %w", err)
		}
		lines = append(lines, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list order lines: row iteration: %w", err)
	}

	return lines, nil
}
