// Package recur evaluates 5-field cron expressions in both directions.
//
// Forward evaluation comes straight from robfig/cron. The parser has no
// "previous occurrence" API, so Prev probes backward one day at a time until
// an occurrence shows up, giving up after MaxLookback.
package recur

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pbaille/accent/internal/domain"
	"github.com/robfig/cron/v3"
)

// MaxLookback bounds the backward search in Prev.
const MaxLookback = 366 * 24 * time.Hour

// ErrLookback means no occurrence was found within the lookback window.
var ErrLookback = errors.New("no occurrence within lookback window")

// ErrNoOccurrence means the expression never fires again (e.g. Feb 30).
var ErrNoOccurrence = errors.New("no future occurrence")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Schedule is a parsed expression.
type Schedule struct {
	expr string
	spec cron.Schedule
}

// String returns the source expression.
func (s Schedule) String() string { return s.expr }

// Parse parses a plain 5-field cron expression. Time zone prefixes are
// rejected: the zone always comes from the reference time.
func Parse(expr string) (Schedule, error) {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "TZ=") || strings.HasPrefix(expr, "CRON_TZ=") {
		return Schedule{}, &domain.RecurrenceError{Expr: expr, Err: errors.New("time zone prefix not allowed")}
	}
	if n := len(strings.Fields(expr)); n != 5 {
		return Schedule{}, &domain.RecurrenceError{Expr: expr, Err: fmt.Errorf("expected 5 fields, got %d", n)}
	}
	spec, err := parser.Parse(expr)
	if err != nil {
		return Schedule{}, &domain.RecurrenceError{Expr: expr, Err: err}
	}
	return Schedule{expr: expr, spec: spec}, nil
}

// Next returns the soonest occurrence strictly after t, in t's location.
func (s Schedule) Next(t time.Time) (time.Time, error) {
	next := s.spec.Next(t)
	if next.IsZero() {
		return time.Time{}, &domain.RecurrenceError{Expr: s.expr, Err: ErrNoOccurrence}
	}
	return next, nil
}

// Prev returns the most recent occurrence at or before t. It steps the search
// window back one day at a time; the first window holding an occurrence is
// then walked forward to the last occurrence not after t.
func (s Schedule) Prev(t time.Time, lookback time.Duration) (time.Time, error) {
	if lookback <= 0 {
		lookback = MaxLookback
	}
	const step = 24 * time.Hour
	for back := step; back <= lookback; back += step {
		next := s.spec.Next(t.Add(-back))
		if next.IsZero() || next.After(t) {
			continue
		}
		for {
			after := s.spec.Next(next)
			if after.IsZero() || after.After(t) {
				return next, nil
			}
			next = after
		}
	}
	return time.Time{}, &domain.RecurrenceError{Expr: s.expr, Err: ErrLookback}
}

// Next parses expr and returns its next occurrence after t.
func Next(expr string, t time.Time) (time.Time, error) {
	s, err := Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return s.Next(t)
}

// Prev parses expr and returns its most recent occurrence at or before t.
func Prev(expr string, t time.Time, lookback time.Duration) (time.Time, error) {
	s, err := Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return s.Prev(t, lookback)
}
