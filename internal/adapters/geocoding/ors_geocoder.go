// Package geocoding resolves destination names to coordinates through
// OpenRouteService.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/obs"
)

const defaultBaseURL = "https://api.openrouteservice.org"

var ErrNotFound = errors.New("no geocode result")

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder implements ports.Geocoder with the OpenRouteService
// /geocode/search endpoint. It is safe for concurrent use.
type ORSGeocoder struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	country     string
	maxAttempts int
	backoff     time.Duration
}

type Option func(*ORSGeocoder)

func WithBaseURL(u string) Option {
	return func(o *ORSGeocoder) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *ORSGeocoder) { o.session = c }
}

func WithBackoff(d time.Duration) Option {
	return func(o *ORSGeocoder) { o.backoff = d }
}

// NewORSGeocoder restricts results to country, an ISO 3166 code.
func NewORSGeocoder(apiKey, country string, opts ...Option) (*ORSGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	g := &ORSGeocoder{
		session:     &http.Client{Timeout: 10 * time.Second},
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		country:     country,
		maxAttempts: 4,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// normalize collapses whitespace so lookups and cache keys agree.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Geocode resolves every name. Names without a result are reported as an
// ErrNotFound error after the others were resolved, so callers can keep
// the partial result.
func (o *ORSGeocoder) Geocode(ctx context.Context, names []string) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	out := make(map[string]domain.Coordinates, len(names))
	var missing []string

	for _, name := range names {
		norm := normalize(name)
		if norm == "" {
			continue
		}
		if _, ok := out[norm]; ok {
			continue
		}

		c, err := o.geocodeOne(ctx, norm)
		if errors.Is(err, ErrNotFound) {
			missing = append(missing, norm)
			continue
		}
		if err != nil {
			return out, fmt.Errorf("geocode %q: %w", norm, err)
		}
		out[norm] = c
	}

	if len(missing) > 0 {
		return out, fmt.Errorf("geocode: %w for %s", ErrNotFound, strings.Join(missing, ", "))
	}
	return out, nil
}

func (o *ORSGeocoder) geocodeOne(ctx context.Context, name string) (domain.Coordinates, error) {
	q := url.Values{}
	q.Set("text", name)
	q.Set("size", "1")
	if o.country != "" {
		q.Set("boundary.country", o.country)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.get(ctx, "/geocode/search", q)
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, ErrNotFound
	}

	// GeoJSON order is [lon, lat].
	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", name)
	}
	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
