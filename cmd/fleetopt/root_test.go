package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fleet-route-service/internal/domain"

	"github.com/spf13/viper"
)

const testSeed = `{
  "order_lines": [
    {"order_id": 1, "order_date": "2026-01-05", "product": "Yogurt", "destination": "Barcelona", "quantity": 10, "revenue": 120, "lead_time_hours": 24, "shelf_life_days": 5},
    {"order_id": 1, "order_date": "2026-01-05", "product": "Milk", "destination": "Barcelona", "quantity": 5, "revenue": 30, "lead_time_hours": 24, "shelf_life_days": 3},
    {"order_id": 2, "order_date": "2026-01-05", "product": "Cheese", "destination": "Girona", "quantity": 20, "revenue": 400, "lead_time_hours": 48, "shelf_life_days": 20},
    {"order_id": 3, "order_date": "2026-01-05", "product": "Butter", "destination": "Tarragona", "quantity": 8, "revenue": 90, "lead_time_hours": 0, "shelf_life_days": 10},
    {"order_id": 4, "order_date": "2026-01-05", "product": "Cream", "destination": "Ibiza", "quantity": 4, "revenue": 50, "lead_time_hours": 0, "shelf_life_days": 4}
  ],
  "coordinates": {
    "Mataró": {"lat": 41.5381, "lon": 2.4445},
    "Barcelona": {"lat": 41.3874, "lon": 2.1686},
    "Girona": {"lat": 41.9794, "lon": 2.8214},
    "Tarragona": {"lat": 41.1189, "lon": 1.2445},
    "Ibiza": {"lat": 38.9067, "lon": 1.4206}
  }
}`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.json")
	if err := os.WriteFile(path, []byte(testSeed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestOptimizePrintsResultJSON(t *testing.T) {
	out, err := run(t, "optimize", "--input", writeSeed(t), "--strategy", "exact")
	if err != nil {
		t.Fatalf("optimize: %v\n%s", err, out)
	}

	var res domain.OptimizationResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}

	if res.Strategy != "exact" {
		t.Errorf("strategy = %q, want exact", res.Strategy)
	}
	if got := domain.OrderIDs(res.Unroutable); len(got) != 1 || got[0] != 4 {
		t.Errorf("unroutable = %v, want [4]", got)
	}
	if res.Summary.OrdersDelivered != 3 {
		t.Errorf("orders delivered = %d, want 3", res.Summary.OrdersDelivered)
	}
	if res.Summary.LoadCarried != 43 {
		t.Errorf("load carried = %v, want 43", res.Summary.LoadCarried)
	}
}

func TestOptimizeCapacityFlagSplitsFleet(t *testing.T) {
	out, err := run(t, "optimize", "--input", writeSeed(t), "--capacity", "25", "--table")
	if err != nil {
		t.Fatalf("optimize: %v\n%s", err, out)
	}
	if !strings.Contains(out, "TOTAL") {
		t.Fatalf("missing totals row:\n%s", out)
	}
	if !strings.Contains(out, "not reachable by road: [4]") {
		t.Fatalf("missing unroutable line:\n%s", out)
	}

	rows := 0
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] != "VEHICLE" && fields[0] != "TOTAL" && fields[0] != "not" {
			rows++
		}
	}
	if rows < 2 {
		t.Fatalf("expected at least 2 vehicles at capacity 25, got %d:\n%s", rows, out)
	}
}

func TestOptimizeReadsEnvironment(t *testing.T) {
	t.Setenv("FLEETOPT_STRATEGY", "ortools")

	out, err := run(t, "optimize", "--input", writeSeed(t))
	if err != nil {
		t.Fatalf("optimize: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"strategy": "exact"`) {
		t.Fatalf("env strategy not applied:\n%s", out)
	}
}

func TestOptimizeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no source", []string{"optimize"}},
		{"missing file", []string{"optimize", "--input", filepath.Join(t.TempDir(), "nope.json")}},
		{"unknown strategy", []string{"optimize", "--input", writeSeed(t), "--strategy", "annealing"}},
		{"unknown clustering", []string{"optimize", "--input", writeSeed(t), "--clustering", "dbscan"}},
		{"unknown depot", []string{"optimize", "--input", writeSeed(t), "--depot", "Lisboa"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestMethodsListsStrategiesAndClustering(t *testing.T) {
	out, err := run(t, "methods")
	if err != nil {
		t.Fatalf("methods: %v", err)
	}
	for _, want := range []string{"genetic", "exact", "kmeans", "agglomerative"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFleetConfigSeedOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	if err := os.WriteFile(path, []byte("seed: 7\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	tests := []struct {
		name string
		args []string
		want int64
	}{
		{"from file", []string{"--config", path}, 7},
		{"flag overrides", []string{"--config", path, "--seed", "3"}, 3},
		{"zero is a valid seed", []string{"--config", path, "--seed", "0"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			cmd := newOptimizeCmd(v)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}

			fleet, err := fleetConfig(v)
			if err != nil {
				t.Fatalf("fleet config: %v", err)
			}
			if fleet.Seed != tt.want {
				t.Fatalf("seed = %d, want %d", fleet.Seed, tt.want)
			}
		})
	}
}
