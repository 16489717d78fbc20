package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *ORSGeocoder {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := NewORSGeocoder("key", "ES", WithBaseURL(srv.URL), WithBackoff(time.Millisecond))
	if err != nil {
		t.Fatalf("new geocoder: %v", err)
	}
	return g
}

func TestGeocodeResolvesNames(t *testing.T) {
	g := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "key" {
			t.Errorf("missing api key header")
		}
		if r.URL.Query().Get("boundary.country") != "ES" {
			t.Errorf("country = %q", r.URL.Query().Get("boundary.country"))
		}
		switch r.URL.Query().Get("text") {
		case "La Bisbal d'Empordà":
			fmt.Fprint(w, `{"features":[{"geometry":{"coordinates":[3.0383,41.9589]}}]}`)
		default:
			fmt.Fprint(w, `{"features":[]}`)
		}
	})

	got, err := g.Geocode(context.Background(), []string{"La  Bisbal d'Empordà", "Atlantis"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	c, ok := got["La Bisbal d'Empordà"]
	if !ok {
		t.Fatalf("normalized name missing from %v", got)
	}
	if c.Lat != 41.9589 || c.Lon != 3.0383 {
		t.Fatalf("coordinates = %+v", c)
	}
}

func TestGeocodeRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	g := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"features":[{"geometry":{"coordinates":[2.25,41.93]}}]}`)
	})

	got, err := g.Geocode(context.Background(), []string{"Vic"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 3 || got["Vic"].Lat != 41.93 {
		t.Fatalf("calls = %d, got %v", calls.Load(), got)
	}
}

func TestGeocodeDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	g := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	})

	if _, err := g.Geocode(context.Background(), []string{"Vic"}); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestGeocodeGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	g := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	_, err := g.Geocode(context.Background(), []string{"Vic"})
	var he *httpStatusError
	if !errors.As(err, &he) || he.Code != http.StatusTooManyRequests {
		t.Fatalf("err = %v, want status 429", err)
	}
	if calls.Load() != 4 {
		t.Fatalf("calls = %d, want 4", calls.Load())
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"abc", 0},
		{"-3", 0},
		{"2", 2 * time.Second},
		{"3600", maxRetryAfter},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.in); got != tt.want {
			t.Errorf("retryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
