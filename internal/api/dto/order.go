package dto

import "time"

// OrderLine is one order line as sent by clients. Lines sharing an
// order_id are consolidated into one order.
type OrderLine struct {
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

type OrderResponse struct {
	OrderID            int       `json:"order_id"`
	OrderDate          time.Time `json:"order_date"`
	Product            string    `json:"product"`
	Destination        string    `json:"destination"`
	Quantity           int       `json:"quantity"`
	Revenue            float64   `json:"revenue"`
	ShelfLifeDays      int       `json:"shelf_life_days"`
	TotalShelfLifeDays int       `json:"total_shelf_life_days"`
	FinalExpiryDate    time.Time `json:"final_expiry_date"`
	Lines              int       `json:"lines"`
}

type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}
