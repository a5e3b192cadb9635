package content

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"golang.org/x/image/draw"

	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/fetcher"
	"github.com/pbaille/accent/internal/graphics"
)

// Endpoints of the proposition site. Page and preview URLs take the
// proposition id.
const (
	RandomPropositionURL = "https://wittgenstein.app/random.json"
	PropositionPageURL   = "https://wittgenstein.app/%s"
	PropositionImageURL  = "https://wittgenstein.app/preview/%s.png"
)

// Proposition shows the preview image of a random proposition, scaled to
// fit on white.
type Proposition struct {
	Fetch      *fetcher.Client
	RandomURL  string
	PageURL    string
	PreviewURL string
	Logger     *slog.Logger
}

// NewProposition creates a producer using the public endpoints.
func NewProposition(fetch *fetcher.Client, logger *slog.Logger) *Proposition {
	return &Proposition{
		Fetch:      fetch,
		RandomURL:  RandomPropositionURL,
		PageURL:    PropositionPageURL,
		PreviewURL: PropositionImageURL,
		Logger:     logger,
	}
}

// imageURL prefers the page's og:image and falls back to the preview URL.
func (p *Proposition) imageURL(ctx context.Context, id string) string {
	if p.PageURL != "" {
		page, err := p.Fetch.Page(ctx, fmt.Sprintf(p.PageURL, id))
		if err == nil && page.ImageURL != "" {
			return page.ImageURL
		}
		if err != nil && p.Logger != nil {
			p.Logger.Debug("proposition page unavailable", "id", id, "error", err)
		}
	}
	return fmt.Sprintf(p.PreviewURL, id)
}

// Produce implements Producer.
func (p *Proposition) Produce(ctx context.Context, _ domain.User, width, height int) (image.Image, error) {
	var random struct {
		ID string `json:"id"`
	}
	if err := p.Fetch.JSON(ctx, p.RandomURL, &random); err != nil {
		return nil, fmt.Errorf("random proposition: %w", err)
	}
	id := strings.TrimSpace(random.ID)
	if id == "" {
		return nil, errors.New("random proposition: missing id")
	}

	src, err := p.Fetch.Image(ctx, p.imageURL(ctx, id))
	if err != nil {
		return nil, fmt.Errorf("proposition %s: %w", id, err)
	}
	return Fit(src, width, height), nil
}

// Fit scales src to fit inside width x height, centered on white.
func Fit(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	graphics.Fill(dst, graphics.White)

	b := src.Bounds()
	if b.Empty() {
		return dst
	}
	scale := min(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
	w := int(float64(b.Dx()) * scale)
	h := int(float64(b.Dy()) * scale)
	x := (width - w) / 2
	y := (height - h) / 2
	draw.CatmullRom.Scale(dst, image.Rect(x, y, x+w, y+h), src, b, draw.Over, nil)
	return dst
}
