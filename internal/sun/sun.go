// Package sun rewrites the sunrise and sunset keywords in schedule
// expressions into concrete clock times for a location.
//
// A solar expression has four fields, "sunrise dom month dow", the keyword
// standing in for the minute and hour fields. The legacy five-field form
// "0 sunrise * * *" is accepted too; its minute field is ignored.
package sun

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/recur"
)

// Event is a solar event a schedule can refer to.
type Event string

const (
	Sunrise Event = "sunrise"
	Sunset  Event = "sunset"
)

// Direction picks which side of the reference the rewritten time lies on.
type Direction int

const (
	// Forward resolves to the closest event at or after the reference.
	Forward Direction = iota
	// Backward resolves to the closest event at or before the reference.
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// ErrNoEvent means the sun does not rise or set on any candidate day.
var ErrNoEvent = errors.New("no solar event on candidate days")

// HasToken reports whether expr mentions a solar keyword.
func HasToken(expr string) bool {
	return strings.Contains(expr, string(Sunrise)) || strings.Contains(expr, string(Sunset))
}

// split separates the solar keyword from the remaining day fields.
func split(expr string) (Event, []string, error) {
	fields := strings.Fields(expr)
	var (
		event Event
		index = -1
	)
	for i, f := range fields {
		switch Event(f) {
		case Sunrise, Sunset:
			if index >= 0 {
				return "", nil, fmt.Errorf("more than one solar keyword")
			}
			event, index = Event(f), i
		default:
			if HasToken(f) {
				return "", nil, fmt.Errorf("solar keyword must be a whole field: %q", f)
			}
		}
	}
	switch {
	case index == 0 && len(fields) == 4:
		return event, fields[1:], nil
	case index == 1 && len(fields) == 5:
		return event, fields[2:], nil
	}
	return "", nil, fmt.Errorf("solar keyword must replace the minute and hour fields")
}

// Validate checks expr without resolving it, so schedules can be rejected
// when they are saved rather than when they are first shown.
func Validate(expr string) error {
	if !HasToken(expr) {
		_, err := recur.Parse(expr)
		return err
	}
	_, days, err := split(expr)
	if err == nil {
		_, err = recur.Parse("0 0 " + strings.Join(days, " "))
	}
	if err != nil {
		return &domain.RecurrenceError{Expr: expr, Err: err}
	}
	return nil
}

// Resolve replaces a solar keyword in expr with the minute and hour of the
// closest matching event relative to ref. Expressions without a keyword are
// returned unchanged.
//
// Forward resolution rounds the event up to the next minute, except in the
// last minute of the day, and backward resolution rounds it down, so the rewritten expression fires on the same
// calendar day as the event when evaluated in the same direction.
func Resolve(expr string, loc domain.Location, ref time.Time, dir Direction) (string, error) {
	if !HasToken(expr) {
		return expr, nil
	}
	event, days, err := split(expr)
	if err != nil {
		return "", &domain.RecurrenceError{Expr: expr, Err: err}
	}
	zone, err := loc.Zone()
	if err != nil {
		return "", err
	}
	ref = ref.In(zone)

	midnight, err := recur.Parse("0 0 " + strings.Join(days, " "))
	if err != nil {
		return "", &domain.RecurrenceError{Expr: expr, Err: err}
	}
	candidates, err := candidateDays(midnight, ref, dir)
	if err != nil {
		return "", &domain.RecurrenceError{Expr: expr, Err: err}
	}

	var best time.Time
	for _, day := range candidates {
		at, err := EventOn(event, loc, day)
		if err != nil {
			// Polar day or night: the event does not happen on this day.
			continue
		}
		switch dir {
		case Forward:
			if at.Before(ref) {
				continue
			}
			if best.IsZero() || at.Before(best) {
				best = at
			}
		case Backward:
			if at.After(ref) {
				continue
			}
			if best.IsZero() || at.After(best) {
				best = at
			}
		}
	}
	if best.IsZero() {
		return "", &domain.LocationError{Location: loc.Name, Err: fmt.Errorf("%s %s of %s: %w", event, dir, ref.Format(time.RFC3339), ErrNoEvent)}
	}

	exact := best
	best = best.Truncate(time.Minute)
	if dir == Forward && best.Before(exact) {
		// An event in the last minute of the day stays on that day.
		if up := best.Add(time.Minute); sameDate(up, exact) {
			best = up
		}
	}
	return fmt.Sprintf("%d %d %s", best.Minute(), best.Hour(), strings.Join(days, " ")), nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// candidateDays returns the two local midnights matching the day fields that
// bracket ref in the requested direction.
func candidateDays(midnight recur.Schedule, ref time.Time, dir Direction) ([]time.Time, error) {
	if dir == Backward {
		first, err := midnight.Prev(ref, recur.MaxLookback)
		if err != nil {
			return nil, err
		}
		second, err := midnight.Prev(first.Add(-time.Second), recur.MaxLookback)
		if err != nil {
			return []time.Time{first}, nil
		}
		return []time.Time{first, second}, nil
	}

	today := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	first, err := midnight.Next(today.Add(-time.Second))
	if err != nil {
		return nil, err
	}
	second, err := midnight.Next(first)
	if err != nil {
		return []time.Time{first}, nil
	}
	return []time.Time{first, second}, nil
}

// EventOn returns the event instant on day's calendar date, in the
// location's zone.
func EventOn(event Event, loc domain.Location, day time.Time) (time.Time, error) {
	zone, err := loc.Zone()
	if err != nil {
		return time.Time{}, err
	}
	day = day.In(zone)
	rise, set := sunrise.SunriseSunset(loc.Latitude, loc.Longitude, day.Year(), day.Month(), day.Day())
	at := rise
	if event == Sunset {
		at = set
	}
	if at.IsZero() {
		return time.Time{}, &domain.LocationError{Location: loc.Name, Err: fmt.Errorf("no %s on %s", event, day.Format("2006-01-02"))}
	}
	return at.In(zone), nil
}

// IsDaylight reports whether the sun is up at t.
func IsDaylight(loc domain.Location, t time.Time) (bool, error) {
	rise, err := EventOn(Sunrise, loc, t)
	if err != nil {
		return false, err
	}
	set, err := EventOn(Sunset, loc, t)
	if err != nil {
		return false, err
	}
	return t.After(rise) && t.Before(set), nil
}
