// Package maps renders e-paper friendly maps with the Google Static Maps
// API and looks up commute routes with the Directions API.
package maps

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/url"
	"strings"
	"time"

	"golang.org/x/image/draw"

	"github.com/pbaille/accent/internal/cache"
	"github.com/pbaille/accent/internal/fetcher"
	"github.com/pbaille/accent/internal/graphics"
)

const (
	StaticMapURL  = "https://maps.googleapis.com/maps/api/staticmap"
	DirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"

	// maxSize is the largest edge the Static Maps API renders.
	maxSize    = 640
	pathWeight = 6

	cacheTTL  = 24 * time.Hour
	cacheSize = 100

	copyrightFormat  = "Map data ©%d Google"
	copyrightPadding = 3
)

// Styles turn the road map black and white: black roads and water on a
// white landscape, no labels or points of interest.
var mapStyles = []string{
	"feature:administrative|visibility:off",
	"feature:poi|visibility:off",
	"feature:all|element:labels|visibility:off",
	"feature:landscape|color:0xffffff",
	"feature:road|color:0x000000",
	"feature:transit|color:0xffffff",
	"feature:transit.line|color:0x000000",
	"feature:water|color:0x000000",
}

// Client talks to the Google Maps APIs.
type Client struct {
	apiKey        string
	staticURL     string
	directionsURL string
	fetch         *fetcher.Client
	cache         *cache.Cache[image.Image]
	now           func() time.Time
}

// Config holds the API key and optional endpoint overrides.
type Config struct {
	APIKey        string
	StaticURL     string
	DirectionsURL string
}

// New creates a Client. Map images are cached for a day.
func New(cfg Config, fetch *fetcher.Client, obs cache.Observer) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("google maps API key not set")
	}
	if cfg.StaticURL == "" {
		cfg.StaticURL = StaticMapURL
	}
	if cfg.DirectionsURL == "" {
		cfg.DirectionsURL = DirectionsURL
	}
	opts := []cache.Option{cache.WithCapacity(cacheSize)}
	if obs != nil {
		opts = append(opts, cache.WithObserver(obs))
	}
	return &Client{
		apiKey:        cfg.APIKey,
		staticURL:     cfg.StaticURL,
		directionsURL: cfg.DirectionsURL,
		fetch:         fetch,
		cache:         cache.New[image.Image]("maps", cacheTTL, opts...),
		now:           time.Now,
	}, nil
}

// Request describes the overlays of a map.
type Request struct {
	// Polyline is an encoded route path drawn in red.
	Polyline string
	// Markers are "lat,lng" points.
	Markers []string
	// MarkerIcon is the URL of a custom marker image.
	MarkerIcon string
}

func (r Request) key(width, height int) string {
	return fmt.Sprintf("%dx%d|%s|%s|%s", width, height, r.Polyline, strings.Join(r.Markers, ";"), r.MarkerIcon)
}

func (c *Client) staticMapURL(width, height int, r Request) string {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("size", fmt.Sprintf("%dx%d", width, height))
	q.Set("maptype", "roadmap")
	for _, s := range mapStyles {
		q.Add("style", s)
	}
	if r.Polyline != "" {
		q.Set("path", fmt.Sprintf("color:0xff0000ff|weight:%d|enc:%s", pathWeight, r.Polyline))
	}
	if len(r.Markers) > 0 {
		style := "size:tiny|color:0xff0000ff"
		if r.MarkerIcon != "" {
			style = "anchor:center|icon:" + r.MarkerIcon
		}
		q.Set("markers", style+"|"+strings.Join(r.Markers, "|"))
	}
	return c.staticURL + "?" + q.Encode()
}

// Image returns a width x height map. Maps wider than the API allows are
// fetched at 640 pixels and scaled up, with the copyright text drawn twice
// as large.
func (c *Client) Image(ctx context.Context, width, height int, r Request) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid map size %dx%d", width, height)
	}
	return c.cache.GetOrLoad(r.key(width, height), func() (image.Image, error) {
		w, h := width, height
		if w > maxSize {
			w, h = maxSize, maxSize*height/width
		}

		src, err := c.fetch.Image(ctx, c.staticMapURL(w, h, r))
		if err != nil {
			return nil, fmt.Errorf("static map: %w", err)
		}

		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

		scale := 1
		if w != width {
			scale = 2
		}
		graphics.DrawText(dst, c.Copyright(), graphics.Placement{Anchor: graphics.BottomRight}, graphics.TextStyle{
			Color:    graphics.Black,
			Scale:    scale,
			BoxColor: graphics.White,
			Padding:  copyrightPadding,
		})
		return dst, nil
	})
}

// Copyright is the attribution drawn on every map.
func (c *Client) Copyright() string {
	return fmt.Sprintf(copyrightFormat, c.now().Year())
}

// Route is the fastest way between two addresses.
type Route struct {
	Polyline string
	Summary  string
	// Duration is human readable, e.g. "24 mins".
	Duration string
}

// Text is the caption drawn over the commute map.
func (r Route) Text() string {
	if r.Summary == "" {
		return r.Duration
	}
	return r.Duration + " via " + r.Summary
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Summary          string `json:"summary"`
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Duration struct {
				Text string `json:"text"`
			} `json:"duration"`
			DurationInTraffic *struct {
				Text string `json:"text"`
			} `json:"duration_in_traffic"`
		} `json:"legs"`
	} `json:"routes"`
}

// Directions looks up the route from home to work, departing now.
func (c *Client) Directions(ctx context.Context, home, work, mode string) (Route, error) {
	switch {
	case home == "":
		return Route{}, errors.New("missing home address")
	case work == "":
		return Route{}, errors.New("missing work address")
	case mode == "":
		return Route{}, errors.New("missing travel mode")
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("origin", home)
	q.Set("destination", work)
	q.Set("mode", mode)
	q.Set("departure_time", "now")

	var resp directionsResponse
	if err := c.fetch.JSON(ctx, c.directionsURL+"?"+q.Encode(), &resp); err != nil {
		return Route{}, fmt.Errorf("directions: %w", err)
	}
	if resp.Status != "OK" {
		if resp.ErrorMessage != "" {
			return Route{}, fmt.Errorf("directions: %s: %s", resp.Status, resp.ErrorMessage)
		}
		return Route{}, fmt.Errorf("directions: %s", resp.Status)
	}
	if len(resp.Routes) == 0 || len(resp.Routes[0].Legs) == 0 {
		return Route{}, errors.New("directions: no route")
	}

	route := resp.Routes[0]
	leg := route.Legs[0]
	duration := leg.Duration.Text
	if leg.DurationInTraffic != nil && leg.DurationInTraffic.Text != "" {
		duration = leg.DurationInTraffic.Text
	}
	return Route{
		Polyline: route.OverviewPolyline.Points,
		Summary:  route.Summary,
		Duration: duration,
	}, nil
}
