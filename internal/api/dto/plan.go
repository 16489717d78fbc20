package dto

import "fleet-route-service/internal/domain"

type PlanRequest struct {
	Depot      string   `json:"depot"`
	Strategy   string   `json:"strategy"`
	Clustering string   `json:"clustering"`
	Seed       *int64   `json:"seed"`
	Capacity   *float64 `json:"capacity"`

	// Orders replaces the stored order lines when non-empty.
	Orders []OrderLine `json:"orders"`

	// Coordinates adds or overrides cached destination coordinates.
	Coordinates map[string]domain.Coordinates `json:"coordinates"`
}

type PlanStopResponse struct {
	OrderID      int        `json:"order_id"`
	Destination  string     `json:"destination"`
	ArrivalHours float64    `json:"arrival_hours"`
	Position     [2]float64 `json:"position"`
}

type PlanRouteResponse struct {
	VehicleID         int                `json:"vehicle_id"`
	Strategy          string             `json:"strategy"`
	Stops             []PlanStopResponse `json:"stops"`
	Cities            []string           `json:"cities"`
	TotalDistanceKm   float64            `json:"total_distance_km"`
	TotalElapsedHours float64            `json:"total_elapsed_hours"`
	PayableDriveHours float64            `json:"payable_drive_hours"`
	FuelCost          float64            `json:"fuel_cost"`
	DriverCost        float64            `json:"driver_cost"`
	TotalCost         float64            `json:"total_cost"`
	TotalRevenue      float64            `json:"total_revenue"`
	NetProfit         float64            `json:"net_profit"`
	Load              float64            `json:"load"`
	OccupancyPct      float64            `json:"occupancy_pct"`
	Valid             bool               `json:"valid"`
	Message           string             `json:"message"`
}

type PlanResponse struct {
	RunID        string              `json:"run_id"`
	Depot        string              `json:"depot"`
	Strategy     string              `json:"strategy"`
	Clustering   string              `json:"clustering"`
	Routes       []PlanRouteResponse `json:"routes"`
	Unroutable   []int               `json:"unroutable_order_ids"`
	Unclustered  []int               `json:"unclustered_order_ids"`
	Unresolvable []int               `json:"unresolvable_vehicle_ids"`
	Summary      domain.FleetSummary `json:"summary"`
}
