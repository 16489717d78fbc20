package routing

import (
	"fmt"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/labor"
)

// Cost added for every order delivered after its shelf life ran out.
const ExpiryPenalty = 10000.0

// Evaluation is the full simulated cost of one visiting sequence.
type Evaluation struct {
	Score        float64
	Penalty      float64
	Expired      int
	DistanceKm   float64
	ElapsedHours float64
	DriveHours   float64
	FuelLiters   float64
	FuelCost     float64
	DriverCost   float64
	TotalCost    float64
	ArrivalHours []float64
}

// Evaluator turns a visiting sequence into distances, driver schedules and
// money. It holds no mutable state and can be shared by concurrent workers.
type Evaluator struct {
	graph Graph
	cfg   domain.FleetVehicleConfig
	sim   *labor.Simulator
}

func NewEvaluator(graph Graph, cfg domain.FleetVehicleConfig) *Evaluator {
	return &Evaluator{graph: graph, cfg: cfg, sim: labor.NewFromConfig(cfg)}
}

func (e *Evaluator) Config() domain.FleetVehicleConfig { return e.cfg }

// RoundTripKm is the fast fitness: depot, every stop in sequence, depot.
func (e *Evaluator) RoundTripKm(seq []domain.Order) float64 {
	depot := e.graph.Depot()
	curr := depot
	d := 0.0
	for _, o := range seq {
		d += e.graph.Distance(curr, o.Destination)
		curr = o.Destination
	}
	return d + e.graph.Distance(curr, depot)
}

// ShelfLifeBudgetDays is the number of days an order may spend on the road.
// Lead time is not part of the budget.
func ShelfLifeBudgetDays(o domain.Order) float64 {
	return float64(o.ShelfLifeDays)
}

// Evaluate simulates the driver schedule leg by leg and prices the route.
// Every order reached after its shelf-life budget adds ExpiryPenalty to the
// score.
func (e *Evaluator) Evaluate(seq []domain.Order) Evaluation {
	var shift *labor.Shift
	if e.cfg.CarryLaborAcrossLegs {
		shift = e.sim.NewShift()
	}
	drive := func(km float64) labor.Schedule {
		if shift != nil {
			return shift.Drive(km)
		}
		return e.sim.Simulate(km)
	}

	depot := e.graph.Depot()
	ev := Evaluation{ArrivalHours: make([]float64, 0, len(seq))}

	curr := depot
	for _, o := range seq {
		d := e.graph.Distance(curr, o.Destination)
		s := drive(d)

		ev.DistanceKm += d
		ev.ElapsedHours += s.ElapsedHours
		ev.DriveHours += s.PayableHours
		ev.ArrivalHours = append(ev.ArrivalHours, ev.ElapsedHours)

		if ev.ElapsedHours/24.0 > ShelfLifeBudgetDays(o) {
			ev.Penalty += ExpiryPenalty
			ev.Expired++
		}
		curr = o.Destination
	}

	back := e.graph.Distance(curr, depot)
	s := drive(back)
	ev.DistanceKm += back
	ev.ElapsedHours += s.ElapsedHours
	ev.DriveHours += s.PayableHours

	ev.DriverCost = ev.DriveHours * e.cfg.DriverHourlyCost
	ev.FuelLiters = ev.DistanceKm / 100 * e.cfg.FuelLitersPer100Km
	ev.FuelCost = ev.FuelLiters * e.cfg.FuelPricePerLiter
	ev.TotalCost = ev.DriverCost + ev.FuelCost
	ev.Score = ev.TotalCost + ev.Penalty

	return ev
}

// Build evaluates seq and assembles the reported route. Coordinates are
// listed for every stop whose destination is known to the graph.
func (e *Evaluator) Build(seq []domain.Order, strategy string) *domain.RouteResult {
	ev := e.Evaluate(seq)
	depot := e.graph.Depot()

	cities := make([]string, 0, len(seq)+2)
	coords := make([]domain.Coordinates, 0, len(seq)+2)

	depotCoords, depotKnown := e.graph.Lookup(depot)
	cities = append(cities, depot)
	if depotKnown {
		coords = append(coords, depotCoords)
	}

	revenue := 0.0
	for _, o := range seq {
		cities = append(cities, o.Destination)
		if c, ok := e.graph.Lookup(o.Destination); ok {
			coords = append(coords, c)
		}
		revenue += o.Revenue
	}

	cities = append(cities, depot)
	if depotKnown {
		coords = append(coords, depotCoords)
	}

	arrivals := make([]float64, len(ev.ArrivalHours))
	for i, h := range ev.ArrivalHours {
		arrivals[i] = domain.Round2(h)
	}

	valid := ev.Penalty == 0
	msg := fmt.Sprintf("Optimal (%s)", strategy)
	if !valid {
		msg = fmt.Sprintf("Issues (%s): %d order(s) exceed shelf life", strategy, ev.Expired)
	}

	return &domain.RouteResult{
		Strategy:          strategy,
		Orders:            append([]domain.Order(nil), seq...),
		Cities:            cities,
		Coordinates:       coords,
		ArrivalHours:      arrivals,
		TotalDistanceKm:   domain.Round2(ev.DistanceKm),
		TotalElapsedHours: domain.Round2(ev.ElapsedHours),
		PayableDriveHours: domain.Round2(ev.DriveHours),
		FuelLiters:        domain.Round2(ev.FuelLiters),
		FuelCost:          domain.Round2(ev.FuelCost),
		DriverCost:        domain.Round2(ev.DriverCost),
		TotalCost:         domain.Round2(ev.TotalCost),
		TotalRevenue:      domain.Round2(revenue),
		NetProfit:         domain.Round2(revenue - ev.TotalCost),
		Valid:             valid,
		Message:           msg,
	}
}
