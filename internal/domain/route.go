package domain

import "math"

// Represents the sequenced, fully costed delivery plan for one vehicle.
// A RouteResult is produced once per cluster by a routing strategy. Cities
// and Coordinates start and end at the depot; ArrivalHours holds one entry
// per delivered order, in hours from departure. It is immutable planning
// data except for VehicleID, which the orchestrator stamps.
type RouteResult struct {
	VehicleID int      `json:"vehicle_id"`
	Strategy  string   `json:"strategy"`
	Orders    []Order  `json:"orders"`
	Cities    []string `json:"cities"`

	Coordinates  []Coordinates `json:"coordinates"`
	ArrivalHours []float64     `json:"arrival_hours"`

	TotalDistanceKm   float64 `json:"total_distance_km"`
	TotalElapsedHours float64 `json:"total_elapsed_hours"`
	PayableDriveHours float64 `json:"payable_drive_hours"`
	FuelLiters        float64 `json:"fuel_liters"`

	FuelCost   float64 `json:"fuel_cost"`
	DriverCost float64 `json:"driver_cost"`
	TotalCost  float64 `json:"total_cost"`

	TotalRevenue float64 `json:"total_revenue"`
	NetProfit    float64 `json:"net_profit"`

	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// Load carried by the route for a given per-unit weight.
func (r *RouteResult) Load(unitWeight float64) float64 {
	return TotalWeight(r.Orders, unitWeight)
}

// Occupancy of one vehicle after routing.
type VehicleLoad struct {
	VehicleID    int     `json:"vehicle_id"`
	Orders       int     `json:"orders"`
	Load         float64 `json:"load"`
	OccupancyPct float64 `json:"occupancy_pct"`
}

// Fleet-wide aggregate of one optimization run.
type FleetSummary struct {
	VehiclesUsed       int           `json:"vehicles_used"`
	OrdersDelivered    int           `json:"orders_delivered"`
	TotalDistanceKm    float64       `json:"total_distance_km"`
	TotalCost          float64       `json:"total_cost"`
	TotalRevenue       float64       `json:"total_revenue"`
	TotalProfit        float64       `json:"total_profit"`
	LoadCarried        float64       `json:"load_carried"`
	CapacityAvailable  float64       `json:"capacity_available"`
	GlobalOccupancyPct float64       `json:"global_occupancy_pct"`
	Vehicles           []VehicleLoad `json:"vehicles"`
}

// Outcome of one optimization run.
//
// Routes maps cluster id to its route; a nil entry marks an empty cluster
// or a cluster whose routing failed. Unroutable orders target destinations
// that cannot be reached by road; Unclustered orders lacked coordinates.
// Unresolvable lists cluster ids holding a single order heavier than a
// vehicle's capacity.
type OptimizationResult struct {
	RunID        string               `json:"run_id"`
	Strategy     string               `json:"strategy"`
	Clustering   string               `json:"clustering"`
	Routes       map[int]*RouteResult `json:"routes"`
	Unroutable   []Order              `json:"unroutable"`
	Unclustered  []Order              `json:"unclustered"`
	Unresolvable []int                `json:"unresolvable"`
	Summary      FleetSummary         `json:"summary"`
}

// Round2 rounds v to two decimals, the precision of reported metrics.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
