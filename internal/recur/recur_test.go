package recur

import (
	"errors"
	"testing"
	"time"

	"github.com/pbaille/accent/internal/domain"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	zone, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return zone
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"* * * *",
		"0 9 * * 1-5 2024",
		"61 9 * * *",
		"@daily",
		"TZ=UTC 0 9 * * *",
		"sunrise * * *",
	}
	for _, expr := range cases {
		_, err := Parse(expr)
		var rec *domain.RecurrenceError
		if !errors.As(err, &rec) {
			t.Errorf("Parse(%q) = %v, want RecurrenceError", expr, err)
		}
	}
}

func TestNextStrictlyAfter(t *testing.T) {
	zone := mustZone(t, "America/Los_Angeles")
	// Tuesday 2024-03-05
	at := time.Date(2024, 3, 5, 9, 0, 0, 0, zone)

	got, err := Next("0 9 * * 1-5", at)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 3, 6, 9, 0, 0, 0, zone)
	if !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
}

func TestPrevIncludesReference(t *testing.T) {
	zone := mustZone(t, "America/Los_Angeles")
	at := time.Date(2024, 3, 5, 9, 0, 0, 0, zone)

	got, err := Prev("0 9 * * 1-5", at, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(at) {
		t.Fatalf("Prev = %v, want %v", got, at)
	}
}

func TestPrevAcrossWeekend(t *testing.T) {
	zone := mustZone(t, "America/Los_Angeles")
	// Sunday 2024-03-10 noon; last weekday 09:00 was Friday.
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, zone)

	got, err := Prev("0 9 * * 1-5", at, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 3, 8, 9, 0, 0, 0, zone)
	if !got.Equal(want) {
		t.Fatalf("Prev = %v, want %v", got, want)
	}
}

func TestPrevPicksLastOfManyInDay(t *testing.T) {
	at := time.Date(2024, 3, 5, 10, 7, 30, 0, time.UTC)

	got, err := Prev("*/5 * * * *", at, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 3, 5, 10, 5, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Prev = %v, want %v", got, want)
	}
}

func TestPrevYearly(t *testing.T) {
	at := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	got, err := Prev("0 0 1 4 *", at, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Prev = %v, want %v", got, want)
	}
}

func TestPrevLookbackExceeded(t *testing.T) {
	at := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	_, err := Prev("0 0 1 4 *", at, 30*24*time.Hour)
	if !errors.Is(err, ErrLookback) {
		t.Fatalf("err = %v, want ErrLookback", err)
	}
}

func TestNextImpossibleDate(t *testing.T) {
	_, err := Next("0 0 30 2 *", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrNoOccurrence) {
		t.Fatalf("err = %v, want ErrNoOccurrence", err)
	}
}
