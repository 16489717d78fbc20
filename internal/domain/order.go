package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var ErrInvalidOrder = errors.New("invalid order")

// Represents one logical delivery order of a perishable product.
// An Order has a stable identifier and a single destination. Multi-line
// shipments are consolidated into one Order per identifier before any
// optimization runs; afterwards orders are referenced, never mutated.
type Order struct {
	ID             int       `json:"order_id"`
	OrderDate      time.Time `json:"order_date"`
	Product        string    `json:"product"`
	Destination    string    `json:"destination"`
	Quantity       int       `json:"quantity"`
	Revenue        float64   `json:"revenue"`
	LeadTimeHours  int       `json:"lead_time_hours"`
	ShelfLifeDays  int       `json:"shelf_life_days"`
	DistanceHintKm float64   `json:"distance_hint_km"`
	CustomerEmail  string    `json:"customer_email"`

	// Derived at construction, see NewOrder.
	TotalShelfLifeDays int       `json:"total_shelf_life_days"`
	FinalExpiryDate    time.Time `json:"final_expiry_date"`
}

// NewOrder fills the derived shelf-life fields of o and validates it.
func NewOrder(o Order) (Order, error) {
	o.Destination = strings.TrimSpace(o.Destination)
	o.TotalShelfLifeDays = TotalShelfLifeDays(o.LeadTimeHours, o.ShelfLifeDays)
	o.FinalExpiryDate = o.OrderDate.AddDate(0, 0, o.TotalShelfLifeDays)

	if err := o.Validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// TotalShelfLifeDays is one day of handling, the manufacturing lead time
// rounded to whole days and the product shelf life.
func TotalShelfLifeDays(leadTimeHours, shelfLifeDays int) int {
	return 1 + int(math.Round(float64(leadTimeHours)/24.0)) + shelfLifeDays
}

func (o Order) Validate() error {
	if o.Quantity < 0 {
		return fmt.Errorf("%w: order %d: negative quantity %d", ErrInvalidOrder, o.ID, o.Quantity)
	}
	if strings.TrimSpace(o.Destination) == "" {
		return fmt.Errorf("%w: order %d: empty destination", ErrInvalidOrder, o.ID)
	}
	if !o.FinalExpiryDate.IsZero() && o.FinalExpiryDate.Before(o.OrderDate) {
		return fmt.Errorf("%w: order %d: expiry %s before order date %s",
			ErrInvalidOrder, o.ID,
			o.FinalExpiryDate.Format(time.DateOnly), o.OrderDate.Format(time.DateOnly))
	}
	return nil
}

// Weight of the order's cargo for a given per-unit weight.
func (o Order) Weight(unitWeight float64) float64 {
	return float64(o.Quantity) * unitWeight
}

// TotalWeight sums the cargo weight of orders.
func TotalWeight(orders []Order, unitWeight float64) float64 {
	var w float64
	for _, o := range orders {
		w += o.Weight(unitWeight)
	}
	return w
}

// OrderIDs returns the identifiers of orders in sequence.
func OrderIDs(orders []Order) []int {
	ids := make([]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}
