package content

import (
	"context"
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/graphics"
)

// EventSource counts a user's events per day of the month containing month.
// Keys are days of the month starting at 1.
type EventSource interface {
	EventCounts(ctx context.Context, user domain.User, month time.Time) (map[int]int, error)
}

// EventSourceFunc adapts a function to EventSource.
type EventSourceFunc func(ctx context.Context, user domain.User, month time.Time) (map[int]int, error)

// EventCounts calls f.
func (f EventSourceFunc) EventCounts(ctx context.Context, user domain.User, month time.Time) (map[int]int, error) {
	return f(ctx, user, month)
}

const (
	daysInWeek    = 7
	weeksInMonth  = 6
	maxEventDots  = 3
	dotRadius     = 3
	dotMargin     = 4
	dotOffset     = 16
	todayRadius   = 15
	numberOffsetY = 1
)

// Calendar shows the current month with today highlighted and a dot per
// event, up to three a day.
type Calendar struct {
	Locations Locator
	// Events may be nil for a plain month view.
	Events EventSource
	Now    func() time.Time
	Logger *slog.Logger
}

// Produce implements Producer.
func (c *Calendar) Produce(ctx context.Context, user domain.User, width, height int) (image.Image, error) {
	now, _, err := UserNow(ctx, c.Locations, user, clock(c.Now))
	if err != nil {
		return nil, err
	}

	var counts map[int]int
	if c.Events != nil {
		counts, err = c.Events.EventCounts(ctx, user, now)
		if err != nil {
			// A broken calendar still shows the month.
			if c.Logger != nil {
				c.Logger.Warn("calendar events unavailable", "error", err)
			}
			counts = nil
		}
	}
	return DrawMonth(now, counts, width, height), nil
}

// DrawMonth draws the month containing day as a Sunday-first grid.
func DrawMonth(day time.Time, counts map[int]int, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	graphics.Fill(img, graphics.White)

	xStride := width / (daysInWeek + 1)
	yStride := height / (weeksInMonth + 1)

	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	days := first.AddDate(0, 1, -1).Day()
	offset := int(first.Weekday())

	for d := 1; d <= days; d++ {
		cell := offset + d - 1
		x := (cell%daysInWeek + 1) * xStride
		y := (cell/daysInWeek + 1) * yStride

		numberColor, dotColor := graphics.Black, graphics.Red
		if d == day.Day() {
			graphics.FillCircle(img, image.Pt(x, y), todayRadius, graphics.Red)
			numberColor, dotColor = graphics.White, graphics.White
		}
		graphics.DrawText(img, strconv.Itoa(d), graphics.Placement{XY: image.Pt(x, y-numberOffsetY)}, graphics.TextStyle{
			Color: numberColor,
		})

		n := min(maxEventDots, counts[d])
		if n <= 0 {
			continue
		}
		dot := 2*dotRadius + 1
		total := n*dot + (n-1)*dotMargin
		for i := 0; i < n; i++ {
			cx := x - total/2 + i*(dot+dotMargin) + dotRadius
			graphics.FillCircle(img, image.Pt(cx, y+dotOffset), dotRadius, dotColor)
		}
	}
	return img
}
