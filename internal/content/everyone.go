package content

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/pbaille/accent/internal/cache"
	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/maps"
)

// MarkerIconURL is the default marker image on the world map.
const MarkerIconURL = "http://accent.ink/marker.png"

const markersTTL = 24 * time.Hour

// UserLister lists every user.
type UserLister interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Everyone shows a map with a marker for every user's city.
type Everyone struct {
	users      UserLister
	locations  Locator
	maps       MapSource
	markerIcon string
	markers    *cache.Cache[[]string]
	logger     *slog.Logger
}

// NewEveryone creates the world map producer. Markers are computed at most
// once a day.
func NewEveryone(users UserLister, locations Locator, m MapSource, obs cache.Observer, logger *slog.Logger) *Everyone {
	opts := []cache.Option{cache.WithCapacity(1)}
	if obs != nil {
		opts = append(opts, cache.WithObserver(obs))
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Everyone{
		users:      users,
		locations:  locations,
		maps:       m,
		markerIcon: MarkerIconURL,
		markers:    cache.New[[]string]("markers", markersTTL, opts...),
		logger:     logger,
	}
}

// Markers returns one "lat,lng" marker per user, placed on the user's city
// rather than their address. Users whose home cannot be geocoded are
// skipped.
func (e *Everyone) Markers(ctx context.Context) ([]string, error) {
	return e.markers.GetOrLoad("all", func() ([]string, error) {
		users, err := e.users.ListUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		var out []string
		for _, u := range users {
			home, err := e.locations.Locate(ctx, u.Home)
			if err != nil {
				e.logger.Debug("skipping user without location", "error", err)
				continue
			}
			city, err := e.locations.Locate(ctx, home.Anonymized())
			if err != nil {
				e.logger.Debug("skipping user without city", "city", home.Anonymized(), "error", err)
				continue
			}
			out = append(out, fmt.Sprintf("%f,%f", city.Latitude, city.Longitude))
		}
		return out, nil
	})
}

// Produce implements Producer.
func (e *Everyone) Produce(ctx context.Context, _ domain.User, width, height int) (image.Image, error) {
	markers, err := e.Markers(ctx)
	if err != nil {
		return nil, err
	}
	return e.maps.Image(ctx, width, height, maps.Request{
		Markers:    markers,
		MarkerIcon: e.markerIcon,
	})
}
