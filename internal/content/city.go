package content

import (
	"context"
	"errors"
	"image"
	"math/rand/v2"
	"time"

	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/scene"
	"github.com/pbaille/accent/internal/sun"
	"github.com/pbaille/accent/internal/weather"
)

// Predicate names available to city layers.
const (
	PredDaylight     = "daylight"
	PredClear        = "clear"
	PredPartlyCloudy = "partly-cloudy"
	PredCloudy       = "cloudy"
	PredRainy        = "rainy"
	PredSnowy        = "snowy"
	PredFoggy        = "foggy"
	PredWindy        = "windy"
)

// WeatherSource reports the current weather at a location.
type WeatherSource interface {
	Current(ctx context.Context, loc domain.Location) (weather.Report, error)
}

// City composes the city scene for the user's local time and weather.
type City struct {
	Layers    []scene.Layer
	Assets    scene.Loader
	Locations Locator
	// Weather may be nil, in which case every weather predicate is false.
	Weather WeatherSource
	Now     func() time.Time
	NewRand func() *rand.Rand
}

// Produce implements Producer.
func (c *City) Produce(ctx context.Context, user domain.User, width, height int) (image.Image, error) {
	if c.Assets == nil {
		return nil, errors.New("no city assets configured")
	}
	now, loc, err := UserNow(ctx, c.Locations, user, clock(c.Now))
	if err != nil {
		return nil, err
	}
	sc := scene.Context{
		Predicates: c.predicates(ctx, loc, now),
		Rand:       randSource(c.NewRand),
		Assets:     c.Assets,
	}
	return scene.Render(c.Layers, sc, width, height)
}

func (c *City) predicates(ctx context.Context, loc domain.Location, now time.Time) map[string]scene.Predicate {
	var (
		report  *weather.Report
		lookup  error
		fetched bool
	)
	current := func() (*weather.Report, error) {
		if !fetched {
			fetched = true
			if c.Weather != nil {
				r, err := c.Weather.Current(ctx, loc)
				report, lookup = &r, err
			}
		}
		return report, lookup
	}
	is := func(test func(weather.Report) bool) scene.Predicate {
		return func() (bool, error) {
			r, err := current()
			if err != nil || r == nil {
				return false, err
			}
			return test(*r), nil
		}
	}

	return map[string]scene.Predicate{
		PredDaylight:     func() (bool, error) { return sun.IsDaylight(loc, now) },
		PredClear:        is(weather.Report.IsClear),
		PredPartlyCloudy: is(weather.Report.IsPartlyCloudy),
		PredCloudy:       is(weather.Report.IsCloudy),
		PredRainy:        is(weather.Report.IsRainy),
		PredSnowy:        is(weather.Report.IsSnowy),
		PredFoggy:        is(weather.Report.IsFoggy),
		PredWindy:        is(weather.Report.IsWindy),
	}
}
