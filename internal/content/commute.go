package content

import (
	"context"
	"image"
	"image/draw"

	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/graphics"
	"github.com/pbaille/accent/internal/maps"
)

// MapSource renders maps and finds routes.
type MapSource interface {
	Directions(ctx context.Context, home, work, mode string) (maps.Route, error)
	Image(ctx context.Context, width, height int, r maps.Request) (image.Image, error)
}

// Commute shows the route from home to work with the current travel time.
type Commute struct {
	Maps MapSource
}

// commuteText is white on a black box with a white border.
var commuteText = graphics.TextStyle{
	Color:       graphics.White,
	Scale:       2,
	BoxColor:    graphics.Black,
	Padding:     8,
	BorderColor: graphics.White,
	BorderWidth: 3,
}

// Produce implements Producer.
func (c *Commute) Produce(ctx context.Context, user domain.User, width, height int) (image.Image, error) {
	route, err := c.Maps.Directions(ctx, user.Home, user.Work, user.TravelMode)
	if err != nil {
		return nil, err
	}
	m, err := c.Maps.Image(ctx, width, height, maps.Request{Polyline: route.Polyline})
	if err != nil {
		return nil, err
	}

	// The map may be shared through a cache; draw on a copy.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), m, m.Bounds().Min, draw.Src)
	graphics.DrawText(dst, route.Text(), graphics.Placement{Anchor: graphics.Center}, commuteText)
	return dst, nil
}
