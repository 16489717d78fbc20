// Package labor converts driving distance into wall-clock and payable time
// under continuous-driving and daily-driving limits.
package labor

import (
	"fleet-route-service/internal/domain"

	log "github.com/sirupsen/logrus"
)

const (
	// Tolerance when comparing accumulated driving against a threshold.
	epsilon = 1e-4

	// Smallest step taken when a threshold is within epsilon.
	minStepHours = 0.1

	// Safety valve on the number of simulation steps for one leg.
	maxIterations = 10000

	fallbackSpeedKmh = 90.0
)

// Schedule is the time cost of driving one distance.
type Schedule struct {
	ElapsedHours float64
	PayableHours float64
	ShortBreaks  int
	DailyRests   int
	// Truncated is set when the iteration cap stopped the simulation
	// before the distance was covered; the hours are a partial estimate.
	Truncated bool
}

// Simulator holds the vehicle speed and the rules it drives under. It has
// no mutable state and is safe for concurrent use.
type Simulator struct {
	speedKmh float64
	rules    domain.LaborRules
}

func New(speedKmh float64, rules domain.LaborRules) *Simulator {
	if speedKmh <= 0 {
		speedKmh = fallbackSpeedKmh
	}
	return &Simulator{speedKmh: speedKmh, rules: rules}
}

func NewFromConfig(cfg domain.FleetVehicleConfig) *Simulator {
	return New(cfg.SpeedKmh, cfg.Labor)
}

// Simulate drives distanceKm starting from a fully rested driver.
func (s *Simulator) Simulate(distanceKm float64) Schedule {
	return s.NewShift().Drive(distanceKm)
}

// NewShift starts a driver shift whose counters persist across Drive calls.
func (s *Simulator) NewShift() *Shift {
	return &Shift{sim: s}
}

// Shift tracks the continuous and daily driving counters of one driver.
// A Shift is not safe for concurrent use.
type Shift struct {
	sim        *Simulator
	continuous float64
	daily      float64
}

// Drive advances the shift by distanceKm and returns the time it took.
//
// Payable hours count driving only. Elapsed hours add a short break each
// time continuous driving reaches its limit, and a daily rest (which also
// resets the continuous counter) each time daily driving reaches its limit.
func (sh *Shift) Drive(distanceKm float64) Schedule {
	if distanceKm <= 0 {
		return Schedule{}
	}

	rules := sh.sim.rules
	remaining := distanceKm / sh.sim.speedKmh

	out := Schedule{PayableHours: remaining}

	iter := 0
	for remaining > epsilon && iter < maxIterations {
		iter++

		step := min(remaining, rules.MaxContinuousDriveHours-sh.continuous, rules.MaxDailyDriveHours-sh.daily)
		if step < epsilon {
			step = min(remaining, minStepHours)
		}

		remaining -= step
		out.ElapsedHours += step
		sh.continuous += step
		sh.daily += step

		if sh.continuous >= rules.MaxContinuousDriveHours-epsilon {
			out.ElapsedHours += rules.ShortBreakHours
			out.ShortBreaks++
			sh.continuous = 0
		}

		if sh.daily >= rules.MaxDailyDriveHours-epsilon {
			out.ElapsedHours += rules.DailyRestHours
			out.DailyRests++
			sh.daily = 0
			sh.continuous = 0
		}
	}

	if remaining > 0 && remaining <= epsilon {
		// Residue below tolerance is driven without checking thresholds.
		out.ElapsedHours += remaining
		sh.continuous += remaining
		sh.daily += remaining
		remaining = 0
	}

	if remaining > 0 {
		out.Truncated = true
		log.WithFields(log.Fields{
			"distance_km":     distanceKm,
			"remaining_hours": remaining,
			"iterations":      iter,
		}).Warn("[labor] schedule simulation hit iteration cap, returning partial estimate")
	}

	return out
}
