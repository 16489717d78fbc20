package config

import (
	"fmt"
	"os"
	"time"

	"fleet-route-service/internal/clustering"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/routing"

	"gopkg.in/yaml.v3"
)

const DefaultDepot = "Mataró"

// Fleet is the YAML fleet and optimizer configuration.
type Fleet struct {
	Depot      string                    `yaml:"depot"`
	Vehicle    domain.FleetVehicleConfig `yaml:"vehicle"`
	Strategy   string                    `yaml:"strategy"`
	Clustering string                    `yaml:"clustering"`
	Seed       int64                     `yaml:"seed"`

	Genetic        routing.GeneticParams `yaml:"genetic"`
	ExactTimeLimit time.Duration         `yaml:"exact_time_limit"`

	// Unroutable replaces the built-in list of destinations that cannot
	// be reached by road when non-empty.
	Unroutable []string `yaml:"unroutable"`
}

func DefaultFleet() Fleet {
	return Fleet{
		Depot:          DefaultDepot,
		Vehicle:        domain.DefaultFleetVehicleConfig(),
		Strategy:       routing.StrategyGenetic,
		Clustering:     "kmeans",
		Seed:           42,
		Genetic:        routing.DefaultGeneticParams(),
		ExactTimeLimit: routing.DefaultExactTimeLimit,
	}
}

// LoadFleet reads a YAML file over the defaults; fields absent from the
// file keep their default values. An empty path returns the defaults.
func LoadFleet(path string) (Fleet, error) {
	cfg := DefaultFleet()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Fleet{}, fmt.Errorf("load fleet config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Fleet{}, fmt.Errorf("load fleet config: parse %q: %w", path, err)
	}
	if err := cfg.Vehicle.Validate(); err != nil {
		return Fleet{}, fmt.Errorf("load fleet config: %w", err)
	}
	if _, err := routing.NormalizeStrategy(cfg.Strategy); err != nil {
		return Fleet{}, fmt.Errorf("load fleet config: %w", err)
	}
	if _, err := clustering.PartitionerByName(cfg.Clustering); err != nil {
		return Fleet{}, fmt.Errorf("load fleet config: %w", err)
	}

	return cfg, nil
}
