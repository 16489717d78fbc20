package clustering

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"testing"

	"fleet-route-service/internal/domain"

	"gonum.org/v1/gonum/mat"
)

type mapLookup map[string]domain.Coordinates

func (m mapLookup) Lookup(city string) (domain.Coordinates, bool) {
	c, ok := m[city]
	return c, ok
}

var cities = mapLookup{
	"Barcelona":   {Lat: 41.3874, Lon: 2.1686},
	"Badalona":    {Lat: 41.4500, Lon: 2.2474},
	"Sabadell":    {Lat: 41.5433, Lon: 2.1094},
	"Girona":      {Lat: 41.9794, Lon: 2.8214},
	"Figueres":    {Lat: 42.2666, Lon: 2.9610},
	"Madrid":      {Lat: 40.4168, Lon: -3.7038},
	"Toledo":      {Lat: 39.8628, Lon: -4.0273},
	"Guadalajara": {Lat: 40.6333, Lon: -3.1667},
	"Sevilla":     {Lat: 37.3891, Lon: -5.9845},
	"Cordoba":     {Lat: 37.8882, Lon: -4.7794},
	"Malaga":      {Lat: 36.7213, Lon: -4.4214},
}

func makeOrders(qty map[string]int) []domain.Order {
	names := make([]string, 0, len(qty))
	for n := range qty {
		names = append(names, n)
	}
	slices.Sort(names)

	orders := make([]domain.Order, 0, len(names))
	for i, n := range names {
		orders = append(orders, domain.Order{ID: i + 1, Destination: n, Quantity: qty[n], ShelfLifeDays: 5 + i%4})
	}
	return orders
}

func clusteredIDs(res Result) []int {
	var ids []int
	for _, orders := range res.Clusters {
		for _, o := range orders {
			ids = append(ids, o.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

func assertCapacity(t *testing.T, res Result, unitWeight, capacity float64) {
	t.Helper()
	for id, orders := range res.Clusters {
		if slices.Contains(res.Unresolvable, id) {
			continue
		}
		if w := domain.TotalWeight(orders, unitWeight); w > capacity {
			t.Errorf("cluster %d weight %v exceeds capacity %v", id, w, capacity)
		}
	}
}

func TestAssignRespectsCapacity(t *testing.T) {
	for _, p := range []Partitioner{NewKMeans(), Agglomerative{}} {
		t.Run(p.Name(), func(t *testing.T) {
			orders := makeOrders(map[string]int{
				"Barcelona": 300, "Badalona": 250, "Sabadell": 200, "Girona": 150, "Figueres": 100,
				"Madrid": 400, "Toledo": 120, "Guadalajara": 90,
				"Sevilla": 350, "Cordoba": 80, "Malaga": 260,
			})

			total := domain.TotalWeight(orders, 1.0)
			vehicles := int(total/1000) + 1

			res := NewAssigner(p, cities, 42).Assign(orders, vehicles, 1.0, 1000)

			assertCapacity(t, res, 1.0, 1000)
			if len(res.Unresolvable) != 0 {
				t.Fatalf("unexpected unresolvable clusters: %v", res.Unresolvable)
			}

			want := domain.OrderIDs(orders)
			if got := clusteredIDs(res); !reflect.DeepEqual(got, want) {
				t.Fatalf("clustered ids = %v, want %v", got, want)
			}
			for id := range vehicles {
				if _, ok := res.Clusters[id]; !ok {
					t.Fatalf("cluster %d missing", id)
				}
			}
		})
	}
}

func TestAssignOverloadSplit(t *testing.T) {
	orders := []domain.Order{
		{ID: 1, Destination: "Barcelona", Quantity: 90, ShelfLifeDays: 3},
		{ID: 2, Destination: "Badalona", Quantity: 90, ShelfLifeDays: 3},
	}

	for _, vehicles := range []int{1, 2} {
		t.Run(fmt.Sprintf("vehicles=%d", vehicles), func(t *testing.T) {
			res := NewAssigner(NewKMeans(), cities, 1).Assign(orders, vehicles, 1.0, 100)

			nonEmpty := 0
			for _, c := range res.Clusters {
				if len(c) > 0 {
					nonEmpty++
				}
			}
			if nonEmpty < 2 {
				t.Fatalf("non-empty clusters = %d, want >= 2 (%v)", nonEmpty, res.Clusters)
			}
			assertCapacity(t, res, 1.0, 100)
			if len(res.Unresolvable) != 0 {
				t.Fatalf("unexpected unresolvable: %v", res.Unresolvable)
			}
		})
	}
}

func TestAssignFlagsSingleOrderOverCapacity(t *testing.T) {
	orders := []domain.Order{
		{ID: 1, Destination: "Madrid", Quantity: 150},
		{ID: 2, Destination: "Toledo", Quantity: 30},
		{ID: 3, Destination: "Barcelona", Quantity: 40},
	}

	res := NewAssigner(NewKMeans(), cities, 7).Assign(orders, 2, 1.0, 100)

	if len(res.Unresolvable) != 1 {
		t.Fatalf("unresolvable = %v, want exactly one cluster", res.Unresolvable)
	}
	bad := res.Clusters[res.Unresolvable[0]]
	if len(bad) != 1 || bad[0].ID != 1 {
		t.Fatalf("unresolvable cluster = %+v, want only order 1", bad)
	}
	assertCapacity(t, res, 1.0, 100)
	if got := clusteredIDs(res); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Fatalf("clustered ids = %v, want [1 2 3]", got)
	}
}

func TestAssignKeepsOversizedOrderWithoutSpawning(t *testing.T) {
	orders := []domain.Order{
		{ID: 1, Destination: "Madrid", Quantity: 150},
		{ID: 2, Destination: "Barcelona", Quantity: 10},
	}

	for _, p := range []Partitioner{NewKMeans(), Agglomerative{}} {
		t.Run(p.Name(), func(t *testing.T) {
			res := NewAssigner(p, cities, 1).Assign(orders, 2, 1.0, 100)

			if res.Spawned != 0 || len(res.Clusters) != 2 {
				t.Fatalf("spawned = %d, clusters = %v, want 2 clusters and none spawned", res.Spawned, res.Clusters)
			}
			if len(res.Unresolvable) != 1 {
				t.Fatalf("unresolvable = %v, want one cluster", res.Unresolvable)
			}
			if bad := res.Clusters[res.Unresolvable[0]]; len(bad) != 1 || bad[0].ID != 1 {
				t.Fatalf("unresolvable cluster = %+v, want only order 1", bad)
			}
			for id, c := range res.Clusters {
				if len(c) == 0 {
					t.Fatalf("cluster %d left empty: %v", id, res.Clusters)
				}
			}
		})
	}
}

func TestBalancerMovesOversizedOrderIntoEmptyCluster(t *testing.T) {
	big := domain.Order{ID: 1, Destination: "Madrid", Quantity: 150}
	small := domain.Order{ID: 2, Destination: "Toledo", Quantity: 10}

	b := newBalancer(map[int][]domain.Order{0: {small, big}, 1: nil}, 1.0, 100)
	moved := b.rebalance()
	spawned := b.resolveOverflow()

	if moved != 1 || spawned != 0 {
		t.Fatalf("moved = %d, spawned = %d, want 1 and 0", moved, spawned)
	}
	want := map[int][]domain.Order{0: {small}, 1: {big}}
	if !reflect.DeepEqual(b.clusters, want) {
		t.Fatalf("clusters = %v, want %v", b.clusters, want)
	}
	if got := b.overloaded(); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("overloaded = %v, want [1]", got)
	}
}

func TestResolveOverflowReusesEmptyCluster(t *testing.T) {
	big := domain.Order{ID: 1, Destination: "Madrid", Quantity: 150}
	small := domain.Order{ID: 2, Destination: "Toledo", Quantity: 10}

	b := newBalancer(map[int][]domain.Order{0: {small, big}, 1: nil}, 1.0, 100)
	if spawned := b.resolveOverflow(); spawned != 0 {
		t.Fatalf("spawned = %d, want 0", spawned)
	}
	if len(b.clusters) != 2 || len(b.clusters[1]) != 1 || b.clusters[1][0].ID != 1 {
		t.Fatalf("clusters = %v, want order 1 alone in cluster 1", b.clusters)
	}
}

func TestAssignExcludesMissingCoordinates(t *testing.T) {
	orders := []domain.Order{
		{ID: 1, Destination: "Barcelona", Quantity: 10},
		{ID: 2, Destination: "Nowhere", Quantity: 10},
	}

	res := NewAssigner(nil, cities, 1).Assign(orders, 1, 1.0, 100)

	if len(res.Unclustered) != 1 || res.Unclustered[0].ID != 2 {
		t.Fatalf("unclustered = %+v, want order 2", res.Unclustered)
	}
	if got := clusteredIDs(res); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("clustered ids = %v, want [1]", got)
	}

	none := NewAssigner(nil, cities, 1).Assign(orders[1:], 3, 1.0, 100)
	if len(none.Clusters) != 0 || len(none.Unclustered) != 1 {
		t.Fatalf("expected no clusters and one unclustered order, got %+v", none)
	}
}

func TestAssignIsDeterministicForSeed(t *testing.T) {
	orders := makeOrders(map[string]int{
		"Barcelona": 30, "Badalona": 25, "Sabadell": 20, "Girona": 15, "Figueres": 10,
		"Madrid": 40, "Toledo": 12, "Sevilla": 35, "Cordoba": 8, "Malaga": 26,
	})

	a := NewAssigner(NewKMeans(), cities, 99).Assign(orders, 3, 1.0, 100)
	b := NewAssigner(NewKMeans(), cities, 99).Assign(orders, 3, 1.0, 100)

	if !reflect.DeepEqual(a.Clusters, b.Clusters) {
		t.Fatalf("same seed produced different clusters:\n%v\n%v", a.Clusters, b.Clusters)
	}
}

func TestPartitionersSeparateDistantGroups(t *testing.T) {
	orders := makeOrders(map[string]int{
		"Barcelona": 1, "Badalona": 1, "Sabadell": 1,
		"Sevilla": 1, "Cordoba": 1, "Malaga": 1,
	})
	for i := range orders {
		orders[i].ShelfLifeDays = 5
	}

	for _, p := range []Partitioner{NewKMeans(), Agglomerative{}} {
		t.Run(p.Name(), func(t *testing.T) {
			res := NewAssigner(p, cities, 3).Assign(orders, 2, 1.0, 1000)

			for _, group := range res.Clusters {
				north, south := 0, 0
				for _, o := range group {
					if cities[o.Destination].Lat > 40 {
						north++
					} else {
						south++
					}
				}
				if north > 0 && south > 0 {
					t.Fatalf("cluster mixes Catalonia and Andalusia: %+v", group)
				}
			}
		})
	}
}

func TestPartitionerByName(t *testing.T) {
	for name, want := range map[string]string{
		"":              "K-Means",
		"kmeans":        "K-Means",
		"Agglomerative": "Hierarchical (Agglomerative)",
	} {
		p, err := PartitionerByName(name)
		if err != nil {
			t.Fatalf("PartitionerByName(%q): %v", name, err)
		}
		if p.Name() != want {
			t.Fatalf("PartitionerByName(%q) = %s, want %s", name, p.Name(), want)
		}
	}
	if _, err := PartitionerByName("dbscan"); !errors.Is(err, ErrUnknownPartitioner) {
		t.Fatalf("err = %v, want ErrUnknownPartitioner", err)
	}
}

func TestReseedEmptyKeepsSumsInStep(t *testing.T) {
	data := mat.NewDense(3, 1, []float64{0, 1, 10})
	labels := []int{0, 0, 0}
	centers := [][]float64{{11.0 / 3}, {0}}
	sums := [][]float64{{11}, {0}}
	counts := []int{3, 0}

	if !reseedEmpty(data, labels, centers, sums, counts) {
		t.Fatalf("expected a point to move")
	}
	if !reflect.DeepEqual(labels, []int{0, 0, 1}) {
		t.Fatalf("labels = %v, want [0 0 1]", labels)
	}
	if !reflect.DeepEqual(counts, []int{2, 1}) {
		t.Fatalf("counts = %v, want [2 1]", counts)
	}
	if sums[0][0] != 1 || sums[1][0] != 10 {
		t.Fatalf("sums = %v, want [[1] [10]]", sums)
	}
}

func TestReseedEmptyNeverEmptiesDonor(t *testing.T) {
	data := mat.NewDense(2, 1, []float64{0, 10})
	labels := []int{0, 1}
	centers := [][]float64{{0}, {10}, {5}}
	sums := [][]float64{{0}, {10}, {0}}
	counts := []int{1, 1, 0}

	if reseedEmpty(data, labels, centers, sums, counts) {
		t.Fatalf("moved a point out of a single-member cluster")
	}
	if !reflect.DeepEqual(counts, []int{1, 1, 0}) {
		t.Fatalf("counts = %v, want [1 1 0]", counts)
	}
}
