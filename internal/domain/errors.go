package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSchedule means the user has no schedule entries.
	ErrNoSchedule = errors.New("empty schedule")
	// ErrUserNotFound means no user matches the key.
	ErrUserNotFound = errors.New("user not found")
)

// RecurrenceError reports a malformed or unresolvable recurrence expression.
type RecurrenceError struct {
	Expr string
	Err  error
}

func (e *RecurrenceError) Error() string {
	return fmt.Sprintf("recurrence %q: %v", e.Expr, e.Err)
}

func (e *RecurrenceError) Unwrap() error { return e.Err }

// LocationError reports a failed geocoding or solar computation.
type LocationError struct {
	Location string
	Err      error
}

func (e *LocationError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("location: %v", e.Err)
	}
	return fmt.Sprintf("location %q: %v", e.Location, e.Err)
}

func (e *LocationError) Unwrap() error { return e.Err }

// ContentError wraps a failure from a content producer.
type ContentError struct {
	Kind ContentKind
	Err  error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("%s content: %v", e.Kind, e.Err)
}

func (e *ContentError) Unwrap() error { return e.Err }

// IsUserFacing reports whether err is a content-level failure that the
// boundary answers with the settings image instead of a 500.
func IsUserFacing(err error) bool {
	var (
		rec *RecurrenceError
		loc *LocationError
		con *ContentError
	)
	return errors.Is(err, ErrNoSchedule) ||
		errors.As(err, &rec) ||
		errors.As(err, &loc) ||
		errors.As(err, &con)
}
