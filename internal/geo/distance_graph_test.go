package geo

import (
	"errors"
	"math"
	"testing"

	"fleet-route-service/internal/domain"
)

func testCoords() map[string]domain.Coordinates {
	return map[string]domain.Coordinates{
		"Mataró":    {Lat: 41.5381, Lon: 2.4445},
		"Barcelona": {Lat: 41.3874, Lon: 2.1686},
		"Madrid":    {Lat: 40.4168, Lon: -3.7038},
		"Valencia":  {Lat: 39.4699, Lon: -0.3763},
		"Zaragoza":  {Lat: 41.6488, Lon: -0.8891},
	}
}

func TestBuildIsSymmetricWithZeroDiagonal(t *testing.T) {
	g, err := Build(testCoords(), "Mataró")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, a := range g.Nodes() {
		if d := g.Distance(a, a); d != 0 {
			t.Errorf("distance(%s,%s) = %v, want 0", a, a, d)
		}
		for _, b := range g.Nodes() {
			if g.Distance(a, b) != g.Distance(b, a) {
				t.Errorf("distance(%s,%s) = %v, distance(%s,%s) = %v", a, b, g.Distance(a, b), b, a, g.Distance(b, a))
			}
		}
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	c := testCoords()

	// Barcelona-Madrid great-circle distance is about 505 km.
	d := Haversine(c["Barcelona"], c["Madrid"])
	if math.Abs(d-505) > 5 {
		t.Fatalf("Barcelona-Madrid = %.1f km, want ~505", d)
	}

	// One degree of latitude on the equator.
	d = Haversine(domain.Coordinates{Lat: 0, Lon: 0}, domain.Coordinates{Lat: 1, Lon: 0})
	want := EarthRadiusKm * math.Pi / 180
	if math.Abs(d-want) > 1e-6 {
		t.Fatalf("1 degree = %v km, want %v", d, want)
	}
}

func TestDistanceUnknownEndpointIsPenalized(t *testing.T) {
	g, err := Build(testCoords(), "Mataró")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d := g.Distance("Mataró", "Atlantis"); d != PenaltyDistanceKm {
		t.Fatalf("distance to unknown = %v, want %v", d, PenaltyDistanceKm)
	}
	if d := g.Distance("Atlantis", "Mataró"); d != PenaltyDistanceKm {
		t.Fatalf("distance from unknown = %v, want %v", d, PenaltyDistanceKm)
	}
	if _, ok := g.Lookup("Atlantis"); ok {
		t.Fatalf("lookup of unknown city succeeded")
	}
	if c, ok := g.Lookup("Madrid"); !ok || c.Lat != 40.4168 {
		t.Fatalf("lookup Madrid = %+v, %v", c, ok)
	}
}

func TestBuildRequiresDepot(t *testing.T) {
	_, err := Build(testCoords(), "Sevilla")
	if !errors.Is(err, ErrUnknownDepot) {
		t.Fatalf("err = %v, want ErrUnknownDepot", err)
	}
}
