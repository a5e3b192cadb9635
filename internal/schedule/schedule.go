// Package schedule decides which schedule entry is in effect and when the
// display should wake up next.
//
// An entry starts at its recurrence expression and lasts until the next
// entry's start. Entries may use the sunrise and sunset keywords, which are
// rewritten per request against the user's location.
package schedule

import (
	"log/slog"
	"time"

	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/recur"
	"github.com/pbaille/accent/internal/sun"
)

// DelayBuffer is added to every delay. Clients may wake up a few minutes
// early and should not land just before the transition they slept for.
const DelayBuffer = 15 * time.Minute

// Scheduler resolves schedule entries. The zero value is ready to use.
type Scheduler struct {
	// Lookback bounds the backward search. Zero means recur.MaxLookback.
	Lookback time.Duration
	// Logger receives a line per decision. Nil discards.
	Logger *slog.Logger
}

func (s *Scheduler) logger() *slog.Logger {
	if s == nil || s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

func (s *Scheduler) lookback() time.Duration {
	if s == nil || s.Lookback <= 0 {
		return recur.MaxLookback
	}
	return s.Lookback
}

// Previous returns the most recent start of expr at or before t.
func (s *Scheduler) Previous(expr string, t time.Time, loc domain.Location) (time.Time, error) {
	resolved, err := sun.Resolve(expr, loc, t, sun.Backward)
	if err != nil {
		return time.Time{}, err
	}
	if resolved != expr {
		s.logger().Debug("rewrote expression", "from", expr, "to", resolved, "before", t)
	}
	return recur.Prev(resolved, t, s.lookback())
}

// Next returns the soonest start of expr strictly after t.
func (s *Scheduler) Next(expr string, t time.Time, loc domain.Location) (time.Time, error) {
	resolved, err := sun.Resolve(expr, loc, t, sun.Forward)
	if err != nil {
		return time.Time{}, err
	}
	if resolved != expr {
		s.logger().Debug("rewrote expression", "from", expr, "to", resolved, "after", t)
	}
	return recur.Next(resolved, t)
}

// ActiveEntry returns the entry in effect at now, i.e. the one whose most
// recent start is the latest, along with that start. When several entries
// share the latest start, the first declared one wins.
func (s *Scheduler) ActiveEntry(entries []domain.ScheduleEntry, now time.Time, loc domain.Location) (domain.ScheduleEntry, time.Time, error) {
	if len(entries) == 0 {
		return domain.ScheduleEntry{}, time.Time{}, domain.ErrNoSchedule
	}

	var (
		best  int
		start time.Time
	)
	for i, entry := range entries {
		at, err := s.Previous(entry.Start, now, loc)
		if err != nil {
			return domain.ScheduleEntry{}, time.Time{}, err
		}
		if i == 0 || at.After(start) {
			best, start = i, at
		}
	}

	entry := entries[best]
	s.logger().Info("using schedule entry",
		"name", entry.Name,
		"start", entry.Start,
		"kind", entry.Kind,
		"since", start.Format("Monday January 02 2006 15:04:05 MST"))
	return entry, start, nil
}

// NextEntry returns the entry that starts soonest after now, along with its
// start. When several entries share it, the first declared one wins.
func (s *Scheduler) NextEntry(entries []domain.ScheduleEntry, now time.Time, loc domain.Location) (domain.ScheduleEntry, time.Time, error) {
	if len(entries) == 0 {
		return domain.ScheduleEntry{}, time.Time{}, domain.ErrNoSchedule
	}

	var (
		best  int
		start time.Time
	)
	for i, entry := range entries {
		at, err := s.Next(entry.Start, now, loc)
		if err != nil {
			return domain.ScheduleEntry{}, time.Time{}, err
		}
		if i == 0 || at.Before(start) {
			best, start = i, at
		}
	}
	return entries[best], start, nil
}

// DelayToNext returns the milliseconds until the next entry starts, plus
// DelayBuffer.
func (s *Scheduler) DelayToNext(entries []domain.ScheduleEntry, now time.Time, loc domain.Location) (int64, error) {
	entry, next, err := s.NextEntry(entries, now, loc)
	if err != nil {
		return 0, err
	}

	delay := next.Sub(now) + DelayBuffer
	ms := delay.Milliseconds()
	s.logger().Info("next schedule entry",
		"name", entry.Name,
		"start", entry.Start,
		"at", next.Format("Monday January 02 2006 15:04:05 MST"),
		"delay_ms", ms)
	return ms, nil
}
