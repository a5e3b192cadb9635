// Package weather reports current conditions from the Open-Meteo forecast
// API.
package weather

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/pbaille/accent/internal/cache"
	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/fetcher"
)

// DefaultURL is the Open-Meteo forecast endpoint.
const DefaultURL = "https://api.open-meteo.com/v1/forecast"

const (
	cacheTTL  = time.Hour
	cacheSize = 100

	// windyKmh is the wind speed above which dry weather counts as windy.
	windyKmh = 40
)

// Condition is a coarse description of the sky.
type Condition string

const (
	Clear        Condition = "clear"
	PartlyCloudy Condition = "partly-cloudy"
	Cloudy       Condition = "cloudy"
	Rain         Condition = "rain"
	Sleet        Condition = "sleet"
	Snow         Condition = "snow"
	Fog          Condition = "fog"
	Wind         Condition = "wind"
)

// Report is the current weather at a location.
type Report struct {
	Condition  Condition
	Code       int
	CloudCover int
	WindSpeed  float64
}

func (r Report) IsClear() bool        { return r.Condition == Clear }
func (r Report) IsPartlyCloudy() bool { return r.Condition == PartlyCloudy }
func (r Report) IsCloudy() bool       { return r.Condition == Cloudy }
func (r Report) IsRainy() bool        { return r.Condition == Rain || r.Condition == Sleet }
func (r Report) IsSnowy() bool        { return r.Condition == Snow }
func (r Report) IsFoggy() bool        { return r.Condition == Fog }
func (r Report) IsWindy() bool        { return r.Condition == Wind }

// Classify maps a WMO weather code and wind speed to a Condition.
func Classify(code int, windKmh float64) Condition {
	var c Condition
	switch {
	case code <= 1:
		c = Clear
	case code == 2:
		c = PartlyCloudy
	case code == 3:
		c = Cloudy
	case code == 45 || code == 48:
		c = Fog
	case code == 56 || code == 57 || code == 66 || code == 67:
		c = Sleet
	case code >= 51 && code <= 67, code >= 80 && code <= 82, code >= 95:
		c = Rain
	case code >= 71 && code <= 77, code == 85 || code == 86:
		c = Snow
	default:
		c = Cloudy
	}
	if windKmh >= windyKmh && (c == Clear || c == PartlyCloudy || c == Cloudy) {
		return Wind
	}
	return c
}

// Service fetches and caches weather reports.
type Service struct {
	baseURL string
	client  *fetcher.Client
	cache   *cache.Cache[Report]
}

// New creates a Service querying baseURL. An empty baseURL uses DefaultURL.
func New(client *fetcher.Client, baseURL string, obs cache.Observer) *Service {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	opts := []cache.Option{cache.WithCapacity(cacheSize)}
	if obs != nil {
		opts = append(opts, cache.WithObserver(obs))
	}
	return &Service{
		baseURL: baseURL,
		client:  client,
		cache:   cache.New[Report]("weather", cacheTTL, opts...),
	}
}

type forecastResponse struct {
	Current *struct {
		WeatherCode int     `json:"weather_code"`
		CloudCover  int     `json:"cloud_cover"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

// Current returns the weather at loc, cached for an hour.
func (s *Service) Current(ctx context.Context, loc domain.Location) (Report, error) {
	lat := strconv.FormatFloat(loc.Latitude, 'f', 2, 64)
	lon := strconv.FormatFloat(loc.Longitude, 'f', 2, 64)

	return s.cache.GetOrLoad(lat+","+lon, func() (Report, error) {
		q := url.Values{}
		q.Set("latitude", lat)
		q.Set("longitude", lon)
		q.Set("current", "weather_code,cloud_cover,wind_speed_10m")

		var resp forecastResponse
		if err := s.client.JSON(ctx, s.baseURL+"?"+q.Encode(), &resp); err != nil {
			return Report{}, fmt.Errorf("weather at %s: %w", loc.Name, err)
		}
		if resp.Current == nil {
			return Report{}, fmt.Errorf("weather at %s: no current conditions", loc.Name)
		}
		c := resp.Current
		return Report{
			Condition:  Classify(c.WeatherCode, c.WindSpeed),
			Code:       c.WeatherCode,
			CloudCover: c.CloudCover,
			WindSpeed:  c.WindSpeed,
		}, nil
	})
}
