package domain

import (
	"fmt"
	"strings"
	"time"
)

// User is a display owner as loaded from the store
type User struct {
	Key        string          `json:"key"`
	Home       string          `json:"home"`
	Work       string          `json:"work,omitempty"`
	TravelMode string          `json:"travel_mode,omitempty"`
	TimeZone   string          `json:"time_zone,omitempty"`
	Schedule   []ScheduleEntry `json:"schedule,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ScheduleEntry maps a recurrence expression to the content shown from then on
type ScheduleEntry struct {
	Name  string      `json:"name"`
	Start string      `json:"start"`
	Kind  ContentKind `json:"image"`
}

// IsSolar reports whether the entry's start depends on sunrise or sunset.
func (e ScheduleEntry) IsSolar() bool {
	return strings.Contains(e.Start, "sunrise") || strings.Contains(e.Start, "sunset")
}

// ContentKind names one content producer
type ContentKind string

const (
	KindArtwork     ContentKind = "artwork"
	KindCity        ContentKind = "city"
	KindCommute     ContentKind = "commute"
	KindCalendar    ContentKind = "calendar"
	KindEveryone    ContentKind = "everyone"
	KindProposition ContentKind = "proposition"
)

// Kinds lists every content kind in a stable order.
var Kinds = []ContentKind{
	KindArtwork,
	KindCity,
	KindCommute,
	KindCalendar,
	KindEveryone,
	KindProposition,
}

// ParseContentKind validates a kind name.
func ParseContentKind(s string) (ContentKind, error) {
	k := ContentKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown content kind %q", s)
}

// Location is a geocoded place with its time zone
type Location struct {
	Name      string  `json:"name"`
	Region    string  `json:"region,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	TimeZone  string  `json:"time_zone"`
}

// Zone loads the location's time zone.
func (l Location) Zone() (*time.Location, error) {
	if l.TimeZone == "" {
		return nil, &LocationError{Location: l.Name, Err: fmt.Errorf("missing time zone")}
	}
	zone, err := time.LoadLocation(l.TimeZone)
	if err != nil {
		return nil, &LocationError{Location: l.Name, Err: err}
	}
	return zone, nil
}

// Anonymized is the coarse "name, region" form used for shared maps.
func (l Location) Anonymized() string {
	if l.Region == "" {
		return l.Name
	}
	return l.Name + ", " + l.Region
}
