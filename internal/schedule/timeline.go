package schedule

import (
	"image"
	"strconv"
	"time"

	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/graphics"
)

const (
	timelineWidth     = 900
	timelineHeight    = 50
	timelineDrawWidth = timelineWidth - 1
	timelineDash      = 2

	// maxTransitions caps the transitions listed for one week.
	maxTransitions = 7 * 24 * 12
)

// Transition is one entry start within a timeline week.
type Transition struct {
	Index int
	Entry domain.ScheduleEntry
	At    time.Time
}

// WeekStart returns Monday 00:00 of the week containing t, in t's zone.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Timeline lists every entry start in the week containing now, in order.
// At most maxTransitions are listed, one every five minutes on average; a
// schedule firing more often is cut short and the cut is logged.
func (s *Scheduler) Timeline(entries []domain.ScheduleEntry, now time.Time, loc domain.Location) ([]Transition, error) {
	if len(entries) == 0 {
		return nil, domain.ErrNoSchedule
	}
	start := WeekStart(now)
	stop := start.AddDate(0, 0, 7)

	var out []Transition
	for t := start; t.Before(stop); {
		index, at := -1, time.Time{}
		for i, entry := range entries {
			next, err := s.Next(entry.Start, t, loc)
			if err != nil {
				return nil, err
			}
			if index < 0 || next.Before(at) {
				index, at = i, next
			}
		}
		if !at.Before(stop) {
			break
		}
		if len(out) == maxTransitions {
			s.logger().Warn("timeline truncated", "transitions", maxTransitions, "dropped_from", at.Format(time.RFC3339))
			break
		}
		out = append(out, Transition{Index: index, Entry: entries[index], At: at})
		t = at
	}
	return out, nil
}

// EmptyTimeline draws the week grid: one dashed column per day and the day
// names along the bottom.
func EmptyTimeline() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, timelineWidth, timelineHeight))
	graphics.Fill(img, graphics.White)

	label := graphics.TextStyle{Color: graphics.Black}
	labelHeight := graphics.MeasureText("Mon", label).Y
	for i := 0; i < 7; i++ {
		x := timelineDrawWidth * i / 7
		graphics.DashedVLine(img, x, 0, timelineHeight, timelineDash, graphics.Black)

		name := time.Weekday((i + 1) % 7).String()[:3]
		center := image.Pt(x+timelineDrawWidth/7/2, timelineHeight-labelHeight/2-1)
		graphics.DrawText(img, name, graphics.Placement{XY: center}, label)
	}
	graphics.DashedVLine(img, timelineDrawWidth, 0, timelineHeight, timelineDash, graphics.Black)
	return img
}

// DrawTimeline draws the week's transitions and a red marker at now. Solar
// entries get a "~" because their time drifts through the year.
func DrawTimeline(transitions []Transition, now time.Time) *image.RGBA {
	img := EmptyTimeline()
	start := WeekStart(now)
	span := start.AddDate(0, 0, 7).Sub(start).Seconds()
	xOf := func(t time.Time) int {
		return int(float64(timelineDrawWidth) * t.Sub(start).Seconds() / span)
	}

	graphics.DashedVLine(img, xOf(now), 0, timelineHeight, timelineDash, graphics.Red)

	for _, tr := range transitions {
		x := xOf(tr.At)
		text := strconv.Itoa(tr.Index + 1)
		if tr.Entry.IsSolar() {
			text = "~" + text
		}
		box := graphics.DrawText(img, text, graphics.Placement{XY: image.Pt(x, timelineHeight/2)}, graphics.TextStyle{
			Color:   graphics.Black,
			Padding: 4,
		})
		graphics.VLine(img, x, 0, box.Min.Y, graphics.Black)
	}
	return img
}
