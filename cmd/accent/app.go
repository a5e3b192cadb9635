package main

import (
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pbaille/accent/internal/config"
	"github.com/pbaille/accent/internal/content"
	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/fetcher"
	"github.com/pbaille/accent/internal/geocoder"
	"github.com/pbaille/accent/internal/maps"
	"github.com/pbaille/accent/internal/metrics"
	"github.com/pbaille/accent/internal/scene"
	"github.com/pbaille/accent/internal/store"
	"github.com/pbaille/accent/internal/weather"
)

// computerAsset is the illustration on the settings image.
const computerAsset = "computer.gif"

// app is everything a command needs, built from the config.
type app struct {
	store     *store.Store
	content   *content.Registry
	locations content.Locator
	metrics   *metrics.Metrics
	logger    *slog.Logger
	computer  image.Image
}

func newApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	s, err := getStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	fetch := fetcher.New(cfg.FetchTimeout)
	locations := geocoder.New(fetch, cfg.GeocoderURL, m)
	assets := os.DirFS(cfg.AssetsDir)

	reg := content.NewRegistry()
	reg.Register(domain.KindArtwork, &content.Artwork{
		Assets: assets,
		Dir:    "artwork",
		Logger: logger,
	})
	reg.Register(domain.KindCity, &content.City{
		Layers:    content.CityLayers,
		Assets:    scene.NewFSLoader(assets),
		Locations: locations,
		Weather:   weather.New(fetch, cfg.WeatherURL, m),
	})
	reg.Register(domain.KindCalendar, &content.Calendar{
		Locations: locations,
		Logger:    logger,
	})
	reg.Register(domain.KindProposition, content.NewProposition(fetch, logger))

	if gm, err := maps.New(maps.Config{APIKey: cfg.MapsKey}, fetch, m); err != nil {
		logger.Warn("map content disabled", "error", err)
	} else {
		reg.Register(domain.KindCommute, &content.Commute{Maps: gm})
		reg.Register(domain.KindEveryone, content.NewEveryone(s, locations, gm, m, logger))
	}

	return &app{
		store:     s,
		content:   reg,
		locations: locations,
		metrics:   m,
		logger:    logger,
		computer:  loadOptional(assets, computerAsset, logger),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// setSchedule stores entries for key once every entry names a kind this
// app can render.
func (a *app) setSchedule(ctx context.Context, key string, entries []domain.ScheduleEntry) error {
	if err := a.content.Validate(entries); err != nil {
		return err
	}
	return a.store.SetSchedule(ctx, key, entries)
}

// checkSchedules logs every stored user whose schedule names a kind with
// no producer and returns how many there are.
func (a *app) checkSchedules(ctx context.Context) (int, error) {
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	invalid := 0
	for _, listed := range users {
		u, err := a.store.GetUser(ctx, listed.Key)
		if err != nil {
			return invalid, err
		}
		if err := a.content.Validate(u.Schedule); err != nil {
			invalid++
			a.logger.Warn("schedule cannot be rendered", "user", u.Key, "error", err)
		}
	}
	return invalid, nil
}

func getStore(dbPath string) (*store.Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return store.New(dbPath)
}

func loadOptional(fsys fs.FS, name string, logger *slog.Logger) image.Image {
	img, err := scene.NewFSLoader(fsys).Load(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("could not load asset", "asset", name, "error", err)
		}
		return nil
	}
	return img
}
