package services

import (
	"slices"

	"fleet-route-service/internal/domain"
)

// Summarize aggregates the routed vehicles of one run. Empty and failed
// clusters (nil routes) do not count as used vehicles.
func Summarize(routes map[int]*domain.RouteResult, cfg domain.FleetVehicleConfig) domain.FleetSummary {
	ids := make([]int, 0, len(routes))
	for id, r := range routes {
		if r != nil {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	s := domain.FleetSummary{Vehicles: make([]domain.VehicleLoad, 0, len(ids))}
	for _, id := range ids {
		r := routes[id]
		load := r.Load(cfg.UnitWeight)

		s.VehiclesUsed++
		s.OrdersDelivered += len(r.Orders)
		s.TotalDistanceKm += r.TotalDistanceKm
		s.TotalCost += r.TotalCost
		s.TotalRevenue += r.TotalRevenue
		s.LoadCarried += load

		s.Vehicles = append(s.Vehicles, domain.VehicleLoad{
			VehicleID:    r.VehicleID,
			Orders:       len(r.Orders),
			Load:         domain.Round2(load),
			OccupancyPct: occupancy(load, cfg.Capacity),
		})
	}

	s.CapacityAvailable = float64(s.VehiclesUsed) * cfg.Capacity
	s.GlobalOccupancyPct = occupancy(s.LoadCarried, s.CapacityAvailable)

	s.TotalDistanceKm = domain.Round2(s.TotalDistanceKm)
	s.TotalCost = domain.Round2(s.TotalCost)
	s.TotalRevenue = domain.Round2(s.TotalRevenue)
	s.TotalProfit = domain.Round2(s.TotalRevenue - s.TotalCost)
	s.LoadCarried = domain.Round2(s.LoadCarried)

	return s
}

func occupancy(load, capacity float64) float64 {
	if capacity <= 0 {
		return 0
	}
	return domain.Round2(load / capacity * 100)
}
