package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid fleet configuration")

// Statutory driving and rest thresholds, in hours (approx. EU 561/2006).
type LaborRules struct {
	MaxContinuousDriveHours float64 `yaml:"max_continuous_drive_hours" json:"max_continuous_drive_hours"`
	ShortBreakHours         float64 `yaml:"short_break_hours" json:"short_break_hours"`
	MaxDailyDriveHours      float64 `yaml:"max_daily_drive_hours" json:"max_daily_drive_hours"`
	DailyRestHours          float64 `yaml:"daily_rest_hours" json:"daily_rest_hours"`
}

func DefaultLaborRules() LaborRules {
	return LaborRules{
		MaxContinuousDriveHours: 2.0,
		ShortBreakHours:         0.33,
		MaxDailyDriveHours:      8.0,
		DailyRestHours:          12.0,
	}
}

// Physical and economic parameters shared by every vehicle of the fleet.
// A FleetVehicleConfig is immutable for the duration of one optimization
// run and may be shared read-only across routing workers.
type FleetVehicleConfig struct {
	SpeedKmh           float64    `yaml:"speed_kmh" json:"speed_kmh"`
	FuelLitersPer100Km float64    `yaml:"fuel_liters_per_100km" json:"fuel_liters_per_100km"`
	Capacity           float64    `yaml:"capacity" json:"capacity"`
	DriverHourlyCost   float64    `yaml:"driver_hourly_cost" json:"driver_hourly_cost"`
	FuelPricePerLiter  float64    `yaml:"fuel_price_per_liter" json:"fuel_price_per_liter"`
	UnitWeight         float64    `yaml:"unit_weight" json:"unit_weight"`
	Labor              LaborRules `yaml:"labor" json:"labor"`

	// Carry driving counters across the legs of a route instead of
	// simulating every leg from a rested driver.
	CarryLaborAcrossLegs bool `yaml:"carry_labor_across_legs" json:"carry_labor_across_legs"`
}

func DefaultFleetVehicleConfig() FleetVehicleConfig {
	return FleetVehicleConfig{
		SpeedKmh:           90.0,
		FuelLitersPer100Km: 30.0,
		Capacity:           1000.0,
		DriverHourlyCost:   15.0,
		FuelPricePerLiter:  1.50,
		UnitWeight:         1.0,
		Labor:              DefaultLaborRules(),
	}
}

func (c FleetVehicleConfig) Validate() error {
	if c.SpeedKmh <= 0 {
		return fmt.Errorf("%w: speed must be positive, got %v", ErrInvalidConfig, c.SpeedKmh)
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %v", ErrInvalidConfig, c.Capacity)
	}
	if c.UnitWeight < 0 {
		return fmt.Errorf("%w: unit weight must not be negative, got %v", ErrInvalidConfig, c.UnitWeight)
	}
	if c.FuelLitersPer100Km < 0 || c.DriverHourlyCost < 0 || c.FuelPricePerLiter < 0 {
		return fmt.Errorf("%w: costs and consumption must not be negative", ErrInvalidConfig)
	}

	r := c.Labor
	if r.MaxContinuousDriveHours <= 0 || r.MaxDailyDriveHours <= 0 {
		return fmt.Errorf("%w: labor drive limits must be positive", ErrInvalidConfig)
	}
	if r.ShortBreakHours < 0 || r.DailyRestHours < 0 {
		return fmt.Errorf("%w: labor rest durations must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Fits reports whether load can be carried by one vehicle.
func (c FleetVehicleConfig) Fits(load float64) bool {
	return load <= c.Capacity
}
