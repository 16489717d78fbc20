package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"fleet-route-service/internal/adapters/repositories"
	"fleet-route-service/internal/clustering"
	"fleet-route-service/internal/config"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/geo"
	"fleet-route-service/internal/platform/db"
	"fleet-route-service/internal/routing"
	"fleet-route-service/internal/services"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "fleetopt",
		Short: "Plans perishable-goods deliveries for a homogeneous truck fleet",
		Long: `fleetopt assigns orders to trucks under a capacity limit, routes every
truck from a single depot and reports cost, driving time and fleet occupancy.
Every flag can also be set through a FLEETOPT_* environment variable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.SetupLogging()
		},
	}

	root.AddCommand(newOptimizeCmd(v), newMethodsCmd())
	return root
}

func newOptimizeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Run one optimization and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd.Context(), v, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.String("input", "", "seed file with order_lines and coordinates")
	f.String("dsn", "", "read orders and coordinates from this database instead of --input")
	f.String("config", "", "fleet YAML configuration file")
	f.String("strategy", "", "routing strategy: genetic or exact (default from config)")
	f.String("clustering", "", "clustering method: kmeans or agglomerative (default from config)")
	f.String("depot", "", "depot name (default from config)")
	f.Int64("seed", 0, "random seed (default from config)")
	f.Float64("capacity", 0, "vehicle capacity override")
	f.Bool("table", false, "print a fleet utilisation table instead of JSON")

	v.SetEnvPrefix("FLEETOPT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(f)

	return cmd
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List routing strategies and clustering methods",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tNAME\tDESCRIPTION")
			fmt.Fprintf(w, "strategy\t%s\tmemetic genetic search with 2-opt polish\n", routing.StrategyGenetic)
			fmt.Fprintf(w, "strategy\t%s\tbranch and bound within a time limit (alias: ortools)\n", routing.StrategyExact)
			for _, name := range []string{"kmeans", "agglomerative"} {
				p, _ := clustering.PartitionerByName(name)
				fmt.Fprintf(w, "clustering\t%s\t%s\n", name, p.Description())
			}
			_ = w.Flush()
		},
	}
}

// fleetConfig loads the fleet file and applies flag and environment
// overrides on top of it.
func fleetConfig(v *viper.Viper) (config.Fleet, error) {
	fleet, err := config.LoadFleet(v.GetString("config"))
	if err != nil {
		return config.Fleet{}, err
	}
	if s := v.GetString("strategy"); s != "" {
		fleet.Strategy = s
	}
	if c := v.GetString("clustering"); c != "" {
		fleet.Clustering = c
	}
	if d := v.GetString("depot"); d != "" {
		fleet.Depot = d
	}
	if v.IsSet("seed") {
		fleet.Seed = v.GetInt64("seed")
	}
	if c := v.GetFloat64("capacity"); c > 0 {
		fleet.Vehicle.Capacity = c
	}
	return fleet, nil
}

func runOptimize(ctx context.Context, v *viper.Viper, out io.Writer) error {
	fleet, err := fleetConfig(v)
	if err != nil {
		return err
	}

	lines, coords, err := loadInput(ctx, v, fleet.Depot)
	if err != nil {
		return err
	}

	graph, err := geo.Build(coords, fleet.Depot)
	if err != nil {
		return err
	}

	partitioner, err := clustering.PartitionerByName(fleet.Clustering)
	if err != nil {
		return err
	}
	opts := []services.Option{
		services.WithPartitioner(partitioner),
		services.WithSeed(fleet.Seed),
		services.WithGeneticParams(fleet.Genetic),
		services.WithExactTimeLimit(fleet.ExactTimeLimit),
	}
	if len(fleet.Unroutable) > 0 {
		opts = append(opts, services.WithUnroutable(fleet.Unroutable))
	}

	orch, err := services.NewOrchestrator(fleet.Vehicle, graph, opts...)
	if err != nil {
		return err
	}

	res, err := orch.OptimizeGrouped(ctx, domain.GroupByID(lines), fleet.Strategy)
	if err != nil {
		return err
	}

	if v.GetBool("table") {
		return writeTable(out, res)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// loadInput reads order lines and coordinates from a seed file or a
// database.
func loadInput(ctx context.Context, v *viper.Viper, depot string) ([]domain.Order, map[string]domain.Coordinates, error) {
	if path := v.GetString("input"); path != "" {
		seed, err := repositories.ReadSeed(path)
		if err != nil {
			return nil, nil, err
		}
		lines, err := seed.Orders()
		if err != nil {
			return nil, nil, err
		}
		return lines, seed.Coordinates, nil
	}

	dsn := v.GetString("dsn")
	if dsn == "" {
		return nil, nil, errors.New("either --input or --dsn is required")
	}

	conn, err := db.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Close()

	lines, err := repositories.NewSQLOrderRepository(conn).ListOrderLines(ctx)
	if err != nil {
		return nil, nil, err
	}

	resolver := services.NewCoordinateResolver(repositories.CoordinateCacheFor(conn, repositories.DialectFor(dsn)), nil)
	coords, err := resolver.Resolve(ctx, depot, lines)
	if err != nil {
		return nil, nil, err
	}
	return lines, coords, nil
}

func writeTable(out io.Writer, res *domain.OptimizationResult) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "VEHICLE\tORDERS\tLOAD\tOCCUPANCY %\tKM\tCOST\tVALID\t")

	routes := make(map[int]*domain.RouteResult)
	for _, r := range res.Routes {
		if r != nil {
			routes[r.VehicleID] = r
		}
	}
	for _, vl := range res.Summary.Vehicles {
		r, ok := routes[vl.VehicleID]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%t\t\n",
			vl.VehicleID, vl.Orders, vl.Load, vl.OccupancyPct, r.TotalDistanceKm, r.TotalCost, r.Valid)
	}

	s := res.Summary
	fmt.Fprintf(w, "TOTAL\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t\t\n",
		s.OrdersDelivered, s.LoadCarried, s.GlobalOccupancyPct, s.TotalDistanceKm, s.TotalCost)
	if err := w.Flush(); err != nil {
		return err
	}

	if len(res.Unroutable) > 0 {
		fmt.Fprintf(out, "not reachable by road: %v\n", domain.OrderIDs(res.Unroutable))
	}
	if len(res.Unclustered) > 0 {
		fmt.Fprintf(out, "missing coordinates: %v\n", domain.OrderIDs(res.Unclustered))
	}
	if len(res.Unresolvable) > 0 {
		ids := make([]int, 0, len(res.Unresolvable))
		for _, cid := range res.Unresolvable {
			ids = append(ids, cid+1)
		}
		slices.Sort(ids)
		fmt.Fprintf(out, "over capacity vehicles: %v\n", ids)
	}
	return nil
}
