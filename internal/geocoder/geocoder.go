// Package geocoder turns place names into coordinates and time zones using
// the Open-Meteo geocoding API.
package geocoder

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pbaille/accent/internal/cache"
	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/fetcher"
)

// DefaultURL is the Open-Meteo search endpoint.
const DefaultURL = "https://geocoding-api.open-meteo.com/v1/search"

const (
	cacheTTL  = 24 * time.Hour
	cacheSize = 100
)

// ErrNotFound means no place matched the name.
var ErrNotFound = errors.New("place not found")

// Geocoder resolves place names, caching results for a day.
type Geocoder struct {
	baseURL string
	client  *fetcher.Client
	cache   *cache.Cache[domain.Location]
}

// New creates a Geocoder querying baseURL. An empty baseURL uses
// DefaultURL.
func New(client *fetcher.Client, baseURL string, obs cache.Observer) *Geocoder {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	opts := []cache.Option{cache.WithCapacity(cacheSize)}
	if obs != nil {
		opts = append(opts, cache.WithObserver(obs))
	}
	return &Geocoder{
		baseURL: baseURL,
		client:  client,
		cache:   cache.New[domain.Location]("geocoder", cacheTTL, opts...),
	}
}

// Locate returns the location of place. Addresses are tried whole first,
// then one comma-separated part at a time, since the search only knows
// place names.
func (g *Geocoder) Locate(ctx context.Context, place string) (domain.Location, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return domain.Location{}, &domain.LocationError{Location: place, Err: errors.New("missing address")}
	}
	return g.cache.GetOrLoad(strings.ToLower(place), func() (domain.Location, error) {
		var lastErr error = ErrNotFound
		for _, name := range candidates(place) {
			loc, err := g.search(ctx, name)
			if err == nil {
				return loc, nil
			}
			lastErr = err
			if !errors.Is(err, ErrNotFound) {
				break
			}
		}
		return domain.Location{}, &domain.LocationError{Location: place, Err: lastErr}
	})
}

func candidates(place string) []string {
	out := []string{place}
	parts := strings.Split(place, ",")
	if len(parts) < 2 {
		return out
	}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.ContainsAny(p[:1], "0123456789") {
			continue
		}
		out = append(out, p)
	}
	return out
}

type searchResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Timezone  string  `json:"timezone"`
		Admin1    string  `json:"admin1"`
		Country   string  `json:"country"`
	} `json:"results"`
}

func (g *Geocoder) search(ctx context.Context, name string) (domain.Location, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("count", "1")
	q.Set("language", "en")
	q.Set("format", "json")

	var resp searchResponse
	if err := g.client.JSON(ctx, g.baseURL+"?"+q.Encode(), &resp); err != nil {
		return domain.Location{}, fmt.Errorf("geocode %q: %w", name, err)
	}
	if len(resp.Results) == 0 {
		return domain.Location{}, fmt.Errorf("geocode %q: %w", name, ErrNotFound)
	}
	r := resp.Results[0]
	region := r.Admin1
	if region == "" {
		region = r.Country
	}
	return domain.Location{
		Name:      r.Name,
		Region:    region,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		TimeZone:  r.Timezone,
	}, nil
}
