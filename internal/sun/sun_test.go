package sun

import (
	"errors"
	"testing"
	"time"

	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/recur"
)

var sanFrancisco = domain.Location{
	Name:      "San Francisco",
	Region:    "California",
	Latitude:  37.7749,
	Longitude: -122.4194,
	TimeZone:  "America/Los_Angeles",
}

var tromso = domain.Location{
	Name:      "Tromsø",
	Latitude:  69.6496,
	Longitude: 18.9560,
	TimeZone:  "Europe/Oslo",
}

func zoneOf(t *testing.T, loc domain.Location) *time.Location {
	t.Helper()
	zone, err := loc.Zone()
	if err != nil {
		t.Fatal(err)
	}
	return zone
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func TestResolveWithoutTokenIsNoop(t *testing.T) {
	got, err := Resolve("30 6 * * 1-5", domain.Location{}, time.Now(), Forward)
	if err != nil {
		t.Fatal(err)
	}
	if got != "30 6 * * 1-5" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveForwardSunriseSameDay(t *testing.T) {
	zone := zoneOf(t, sanFrancisco)
	ref := time.Date(2024, 6, 20, 0, 0, 0, 0, zone)

	for _, expr := range []string{"sunrise * * *", "0 sunrise * * *"} {
		rewritten, err := Resolve(expr, sanFrancisco, ref, Forward)
		if err != nil {
			t.Fatalf("%s: %v", expr, err)
		}
		truth, err := EventOn(Sunrise, sanFrancisco, ref)
		if err != nil {
			t.Fatal(err)
		}
		next, err := recur.Next(rewritten, ref)
		if err != nil {
			t.Fatalf("%s -> %s: %v", expr, rewritten, err)
		}
		if !sameDay(next, truth) {
			t.Fatalf("%s -> %s fires %v, sunrise is %v", expr, rewritten, next, truth)
		}
		if d := next.Sub(truth); d < 0 || d >= time.Minute {
			t.Fatalf("%s -> %s fires %v, %v after sunrise %v", expr, rewritten, next, d, truth)
		}
		if next.Hour() != 5 {
			t.Fatalf("implausible sunrise hour for June in San Francisco: %v", next)
		}
	}
}

func TestResolveForwardAfterSunriseUsesTomorrow(t *testing.T) {
	zone := zoneOf(t, sanFrancisco)
	ref := time.Date(2024, 6, 20, 12, 0, 0, 0, zone)

	rewritten, err := Resolve("sunrise * * *", sanFrancisco, ref, Forward)
	if err != nil {
		t.Fatal(err)
	}
	next, err := recur.Next(rewritten, ref)
	if err != nil {
		t.Fatal(err)
	}
	if next.Day() != 21 {
		t.Fatalf("next sunrise = %v, want June 21", next)
	}
}

func TestResolveBackwardBeforeSunriseUsesYesterday(t *testing.T) {
	zone := zoneOf(t, sanFrancisco)
	ref := time.Date(2024, 6, 20, 4, 0, 0, 0, zone)

	rewritten, err := Resolve("sunrise * * *", sanFrancisco, ref, Backward)
	if err != nil {
		t.Fatal(err)
	}
	prev, err := recur.Prev(rewritten, ref, 0)
	if err != nil {
		t.Fatal(err)
	}
	truth, err := EventOn(Sunrise, sanFrancisco, ref.AddDate(0, 0, -1))
	if err != nil {
		t.Fatal(err)
	}
	if !sameDay(prev, truth) {
		t.Fatalf("prev = %v, sunrise was %v", prev, truth)
	}
	if d := truth.Sub(prev); d < 0 || d >= time.Minute {
		t.Fatalf("prev = %v is %v before sunrise %v", prev, d, truth)
	}
}

func TestResolveForwardLateSunsetStaysOnItsDay(t *testing.T) {
	// Near the start of the midnight sun the sunset falls in the last
	// minute of the day.
	lofoten := domain.Location{Name: "Lofoten", Latitude: 68.597, Longitude: 15.0, TimeZone: "Europe/Oslo"}
	zone := zoneOf(t, lofoten)
	ref := time.Date(2026, 5, 20, 12, 0, 0, 0, zone) // Wednesday

	event, err := EventOn(Sunset, lofoten, ref)
	if err != nil {
		t.Fatal(err)
	}
	if event.Hour() != 23 || event.Minute() != 59 || event.Second() == 0 {
		t.Fatalf("sunset at %v, want inside 23:59", event)
	}

	rewritten, err := Resolve("sunset * * 3", lofoten, ref, Forward)
	if err != nil {
		t.Fatal(err)
	}
	if rewritten != "59 23 * * 3" {
		t.Fatalf("rewritten = %q", rewritten)
	}
	s, err := recur.Parse(rewritten)
	if err != nil {
		t.Fatal(err)
	}
	next, err := s.Next(ref)
	if err != nil {
		t.Fatal(err)
	}
	if !sameDay(next, event) {
		t.Fatalf("fires %v, sunset %v", next, event)
	}
}

func TestResolveRespectsDayFields(t *testing.T) {
	zone := zoneOf(t, sanFrancisco)
	// Tuesday; the weekend entry's next sunset is Saturday.
	ref := time.Date(2024, 3, 5, 8, 0, 0, 0, zone)

	rewritten, err := Resolve("sunset * * 6,0", sanFrancisco, ref, Forward)
	if err != nil {
		t.Fatal(err)
	}
	next, err := recur.Next(rewritten, ref)
	if err != nil {
		t.Fatal(err)
	}
	if next.Weekday() != time.Saturday || next.Day() != 9 {
		t.Fatalf("next = %v, want Saturday March 9", next)
	}
	truth, _ := EventOn(Sunset, sanFrancisco, next)
	if !sameDay(next, truth) || next.Hour() != truth.Hour() {
		t.Fatalf("next = %v, sunset = %v", next, truth)
	}
}

func TestResolveRejectsMalformedTokens(t *testing.T) {
	ref := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	cases := []string{
		"sunrise sunset * *",
		"sunrise * * * *",
		"0 0 sunrise * *",
		"sunrise,5 * * *",
		"sunrise * 13 *",
	}
	for _, expr := range cases {
		_, err := Resolve(expr, sanFrancisco, ref, Forward)
		var rec *domain.RecurrenceError
		if !errors.As(err, &rec) {
			t.Errorf("Resolve(%q) = %v, want RecurrenceError", expr, err)
		}
	}
}

func TestResolveWithoutZoneIsLocationError(t *testing.T) {
	_, err := Resolve("sunrise * * *", domain.Location{Name: "nowhere"}, time.Now(), Forward)
	var loc *domain.LocationError
	if !errors.As(err, &loc) {
		t.Fatalf("err = %v, want LocationError", err)
	}
}

func TestResolvePolarNightIsLocationError(t *testing.T) {
	zone := zoneOf(t, tromso)
	ref := time.Date(2024, 12, 15, 9, 0, 0, 0, zone)

	_, err := Resolve("sunrise * * *", tromso, ref, Forward)
	var loc *domain.LocationError
	if !errors.As(err, &loc) {
		t.Fatalf("err = %v, want LocationError", err)
	}
}

func TestIsDaylight(t *testing.T) {
	zone := zoneOf(t, sanFrancisco)

	noon, err := IsDaylight(sanFrancisco, time.Date(2024, 6, 20, 12, 0, 0, 0, zone))
	if err != nil {
		t.Fatal(err)
	}
	if !noon {
		t.Fatal("expected daylight at noon")
	}

	night, err := IsDaylight(sanFrancisco, time.Date(2024, 6, 20, 23, 30, 0, 0, zone))
	if err != nil {
		t.Fatal(err)
	}
	if night {
		t.Fatal("expected darkness before midnight")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		expr string
		ok   bool
	}{
		{"0 9 * * 1-5", true},
		{"sunrise * * *", true},
		{"0 sunset * * 6,0", true},
		{"sunrise * * 8", false},
		{"sunrise sunset * *", false},
		{"0 25 * * *", false},
		{"sunrise", false},
	}
	for _, tt := range tests {
		err := Validate(tt.expr)
		if tt.ok && err != nil {
			t.Errorf("Validate(%q) = %v", tt.expr, err)
		}
		var rec *domain.RecurrenceError
		if !tt.ok && !errors.As(err, &rec) {
			t.Errorf("Validate(%q) = %v, want RecurrenceError", tt.expr, err)
		}
	}
}
