package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Dialect selects the SQL flavour of a database handle.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DialectFor infers the dialect from a connection string: postgres URLs
// select Postgres, anything else is a SQLite path.
func DialectFor(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func schemaStatements(d Dialect) []string {
	floatType := "REAL"
	if d == Postgres {
		floatType = "DOUBLE PRECISION"
	}

	return []string{
		`
	CREATE TABLE IF NOT EXISTS order_lines (
		order_id INTEGER NOT NULL,
		line_no INTEGER NOT NULL,
		order_date TEXT NOT NULL,
		product TEXT NOT NULL DEFAULT '',
		destination TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0,
		revenue ` + floatType + ` NOT NULL DEFAULT 0,
		lead_time_hours INTEGER NOT NULL DEFAULT 0,
		shelf_life_days INTEGER NOT NULL DEFAULT 0,
		distance_hint_km ` + floatType + ` NOT NULL DEFAULT 0,
		customer_email TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (order_id, line_no)
	);
	`,
		`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		name TEXT PRIMARY KEY,
		lat ` + floatType + ` NOT NULL,
		lon ` + floatType + ` NOT NULL
	);
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_order_lines_destination
	ON order_lines(destination);
	`,
	}
}

// Initialize the database schema.
func InitSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements(d) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
