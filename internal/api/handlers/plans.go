package handlers

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"fleet-route-service/internal/api/dto"
	"fleet-route-service/internal/clustering"
	"fleet-route-service/internal/config"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/geo"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"
	"fleet-route-service/internal/routing"
	"fleet-route-service/internal/services"

	log "github.com/sirupsen/logrus"
)

type PlanHandler struct {
	Repo     ports.OrderRepository
	Resolver *services.CoordinateResolver
	Fleet    config.Fleet
}

// Plan runs one fleet optimization over the stored orders, or over the
// orders in the request body when present.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	ctx := r.Context()

	var req dto.PlanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	fleet := h.Fleet
	if d := strings.TrimSpace(req.Depot); d != "" {
		fleet.Depot = d
	}
	if req.Strategy != "" {
		fleet.Strategy = req.Strategy
	}
	if req.Seed != nil {
		fleet.Seed = *req.Seed
	}
	if req.Capacity != nil {
		fleet.Vehicle.Capacity = *req.Capacity
	}
	if err := fleet.Vehicle.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var lines []domain.Order
	var err error
	if len(req.Orders) > 0 {
		lines, err = linesToOrders(req.Orders)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		lines, err = h.Repo.ListOrderLines(ctx)
		if err != nil {
			log.WithFields(obs.Fields(ctx)).WithError(err).Error("[api] list order lines failed")
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
	}
	orders := domain.Consolidate(domain.GroupByID(lines))

	coords, err := h.Resolver.Resolve(ctx, fleet.Depot, orders)
	if err != nil {
		log.WithFields(obs.Fields(ctx)).WithError(err).Error("[api] resolve coordinates failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	maps.Copy(coords, req.Coordinates)

	graph, err := geo.Build(coords, fleet.Depot)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	opts, err := orchestratorOptions(fleet)
	if err != nil {
		log.WithFields(obs.Fields(ctx)).WithError(err).Error("[api] fleet configuration rejected")
		writeError(w, r, http.StatusInternalServerError, "invalid fleet configuration")
		return
	}

	orch, err := services.NewOrchestrator(fleet.Vehicle, graph, opts...)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := orch.Optimize(ctx, services.OptimizeRequest{
		Orders:     orders,
		Strategy:   fleet.Strategy,
		Clustering: req.Clustering,
	})
	switch {
	case errors.Is(err, routing.ErrUnknownStrategy), errors.Is(err, clustering.ErrUnknownPartitioner):
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.WithFields(obs.Fields(ctx)).WithError(err).Error("[api] optimize failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, planResponse(fleet, res))
}

// orchestratorOptions maps the fleet file onto orchestrator options.
func orchestratorOptions(f config.Fleet) ([]services.Option, error) {
	p, err := clustering.PartitionerByName(f.Clustering)
	if err != nil {
		return nil, fmt.Errorf("fleet clustering: %w", err)
	}

	opts := []services.Option{
		services.WithPartitioner(p),
		services.WithSeed(f.Seed),
		services.WithGeneticParams(f.Genetic),
		services.WithExactTimeLimit(f.ExactTimeLimit),
	}
	if len(f.Unroutable) > 0 {
		opts = append(opts, services.WithUnroutable(f.Unroutable))
	}
	return opts, nil
}

func planResponse(f config.Fleet, res *domain.OptimizationResult) dto.PlanResponse {
	out := dto.PlanResponse{
		RunID:        res.RunID,
		Depot:        f.Depot,
		Strategy:     res.Strategy,
		Clustering:   res.Clustering,
		Routes:       []dto.PlanRouteResponse{},
		Unroutable:   domain.OrderIDs(res.Unroutable),
		Unclustered:  domain.OrderIDs(res.Unclustered),
		Unresolvable: make([]int, 0, len(res.Unresolvable)),
		Summary:      res.Summary,
	}
	for _, cid := range res.Unresolvable {
		out.Unresolvable = append(out.Unresolvable, cid+1)
	}

	ids := slices.Sorted(maps.Keys(res.Routes))
	for _, cid := range ids {
		route := res.Routes[cid]
		if route == nil {
			continue
		}

		stops := make([]dto.PlanStopResponse, 0, len(route.Orders))
		for i, o := range route.Orders {
			stop := dto.PlanStopResponse{OrderID: o.ID, Destination: o.Destination}
			if i < len(route.ArrivalHours) {
				stop.ArrivalHours = route.ArrivalHours[i]
			}
			// Coordinates start with the depot.
			if i+1 < len(route.Coordinates) {
				stop.Position = route.Coordinates[i+1].LatLonPair()
			}
			stops = append(stops, stop)
		}

		load := route.Load(f.Vehicle.UnitWeight)
		out.Routes = append(out.Routes, dto.PlanRouteResponse{
			VehicleID:         route.VehicleID,
			Strategy:          route.Strategy,
			Stops:             stops,
			Cities:            route.Cities,
			TotalDistanceKm:   route.TotalDistanceKm,
			TotalElapsedHours: route.TotalElapsedHours,
			PayableDriveHours: route.PayableDriveHours,
			FuelCost:          route.FuelCost,
			DriverCost:        route.DriverCost,
			TotalCost:         route.TotalCost,
			TotalRevenue:      route.TotalRevenue,
			NetProfit:         route.NetProfit,
			Load:              domain.Round2(load),
			OccupancyPct:      domain.Round2(load / f.Vehicle.Capacity * 100),
			Valid:             route.Valid,
			Message:           route.Message,
		})
	}

	return out
}
