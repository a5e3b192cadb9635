// Package content holds the image producers a schedule can show and the
// registry mapping each content kind to its producer.
package content

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/pbaille/accent/internal/domain"
)

// Producer renders an image for a user and display size.
type Producer interface {
	Produce(ctx context.Context, user domain.User, width, height int) (image.Image, error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context, user domain.User, width, height int) (image.Image, error)

// Produce calls f.
func (f ProducerFunc) Produce(ctx context.Context, user domain.User, width, height int) (image.Image, error) {
	return f(ctx, user, width, height)
}

// Locator geocodes a place name.
type Locator interface {
	Locate(ctx context.Context, place string) (domain.Location, error)
}

// UserLocation geocodes the user's home. An explicit user time zone wins
// over the geocoded one.
func UserLocation(ctx context.Context, locator Locator, user domain.User) (domain.Location, error) {
	if locator == nil {
		return domain.Location{}, &domain.LocationError{Location: user.Home, Err: errors.New("no geocoder configured")}
	}
	loc, err := locator.Locate(ctx, user.Home)
	if err != nil {
		return domain.Location{}, err
	}
	if user.TimeZone != "" {
		loc.TimeZone = user.TimeZone
	}
	return loc, nil
}

// UserNow returns now in the user's home time zone.
func UserNow(ctx context.Context, locator Locator, user domain.User, now time.Time) (time.Time, domain.Location, error) {
	loc, err := UserLocation(ctx, locator, user)
	if err != nil {
		return time.Time{}, loc, err
	}
	zone, err := loc.Zone()
	if err != nil {
		return time.Time{}, loc, err
	}
	return now.In(zone), loc, nil
}

// Registry maps each content kind to its producer.
type Registry struct {
	producers map[domain.ContentKind]Producer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{producers: make(map[domain.ContentKind]Producer)}
}

// Register binds kind to p, replacing any earlier producer.
func (r *Registry) Register(kind domain.ContentKind, p Producer) {
	r.producers[kind] = p
}

// Lookup returns the producer for kind.
func (r *Registry) Lookup(kind domain.ContentKind) (Producer, bool) {
	p, ok := r.producers[kind]
	return p, ok
}

// Kinds lists the registered kinds in domain order.
func (r *Registry) Kinds() []domain.ContentKind {
	var out []domain.ContentKind
	for _, k := range domain.Kinds {
		if _, ok := r.producers[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Validate rejects schedules naming a kind with no producer. It runs when a
// schedule is loaded so unknown kinds never reach a request.
func (r *Registry) Validate(entries []domain.ScheduleEntry) error {
	var bad []string
	for _, e := range entries {
		if _, err := domain.ParseContentKind(string(e.Kind)); err != nil {
			bad = append(bad, fmt.Sprintf("%s: %v", e.Name, err))
			continue
		}
		if _, ok := r.producers[e.Kind]; !ok {
			bad = append(bad, fmt.Sprintf("%s: no producer for %s", e.Name, e.Kind))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("invalid schedule: %s", strings.Join(bad, "; "))
	}
	return nil
}

// Produce renders kind for user. Every failure comes back as a
// *domain.ContentError.
func (r *Registry) Produce(ctx context.Context, kind domain.ContentKind, user domain.User, width, height int) (image.Image, error) {
	p, ok := r.producers[kind]
	if !ok {
		return nil, &domain.ContentError{Kind: kind, Err: errors.New("no producer registered")}
	}
	img, err := p.Produce(ctx, user, width, height)
	if err != nil {
		var ce *domain.ContentError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, &domain.ContentError{Kind: kind, Err: err}
	}
	if img == nil {
		return nil, &domain.ContentError{Kind: kind, Err: errors.New("producer returned no image")}
	}
	return img, nil
}

// newRand returns a fresh randomly seeded source, one per call.
func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}

func randSource(fn func() *rand.Rand) *rand.Rand {
	if fn == nil {
		return newRand()
	}
	return fn()
}
