package content

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/png"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"path"
	"sort"

	"github.com/pbaille/accent/internal/domain"
)

// Artwork shows a random display-sized crop of a random image from Dir.
type Artwork struct {
	Assets  fs.FS
	Dir     string
	NewRand func() *rand.Rand
	Logger  *slog.Logger
}

func (a *Artwork) files() ([]string, error) {
	var names []string
	for _, pattern := range []string{"*.gif", "*.png"} {
		matches, err := fs.Glob(a.Assets, path.Join(a.Dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("list artwork: %w", err)
		}
		names = append(names, matches...)
	}
	sort.Strings(names)
	return names, nil
}

// Produce implements Producer.
func (a *Artwork) Produce(_ context.Context, _ domain.User, width, height int) (image.Image, error) {
	if a.Assets == nil {
		return nil, fmt.Errorf("no artwork directory configured")
	}
	names, err := a.files()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no artwork in %q", a.Dir)
	}

	r := randSource(a.NewRand)
	name := names[r.IntN(len(names))]
	if a.Logger != nil {
		a.Logger.Info("using artwork file", "file", name)
	}

	f, err := a.Assets.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open artwork: %w", err)
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode artwork %s: %w", name, err)
	}

	b := src.Bounds()
	x := r.IntN(max(0, b.Dx()-width) + 1)
	y := r.IntN(max(0, b.Dy()-height) + 1)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min.Add(image.Pt(x, y)), draw.Over)
	return dst, nil
}
