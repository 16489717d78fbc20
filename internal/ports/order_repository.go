package ports

import (
	"context"

	"fleet-route-service/internal/domain"
)

// Port: a boundary for retrieving order lines from a data source.
type OrderRepository interface {
	// Return every stored order line; lines sharing an id belong to one
	// multi-line order and are returned in insertion order.
	ListOrderLines(ctx context.Context) ([]domain.Order, error)
}
