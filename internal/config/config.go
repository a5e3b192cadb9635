// Package config reads server settings from ACCENT_* environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pbaille/accent/internal/geocoder"
	"github.com/pbaille/accent/internal/weather"
)

type Config struct {
	Addr        string // e.g. ":8080"
	DBPath      string // sqlite file
	AssetsDir   string // artwork and city sprites
	LogFile     string // empty logs to stdout only
	LogLevel    string // debug, info, warn or error
	SettingsURL string // base of the per-user settings link

	MapsKey     string
	GeocoderURL string
	WeatherURL  string

	FetchTimeout    time.Duration
	ShutdownTimeout time.Duration

	Width   int
	Height  int
	Palette string
}

func FromEnv() Config {
	return Config{
		Addr:        str("ACCENT_ADDR", ":8080"),
		DBPath:      str("ACCENT_DB", "accent.db"),
		AssetsDir:   str("ACCENT_ASSETS_DIR", "assets"),
		LogFile:     str("ACCENT_LOGFILE", ""),
		LogLevel:    strings.ToLower(str("ACCENT_LOG_LEVEL", "info")),
		SettingsURL: strings.TrimRight(str("ACCENT_SETTINGS_URL", "https://accent.ink/hello"), "/"),

		MapsKey:     str("ACCENT_MAPS_KEY", ""),
		GeocoderURL: str("ACCENT_GEOCODER_URL", geocoder.DefaultURL),
		WeatherURL:  str("ACCENT_WEATHER_URL", weather.DefaultURL),

		FetchTimeout:    duration("ACCENT_FETCH_TIMEOUT", 10*time.Second),
		ShutdownTimeout: duration("ACCENT_SHUTDOWN_TIMEOUT", 10*time.Second),

		Width:   integer("ACCENT_WIDTH", 640),
		Height:  integer("ACCENT_HEIGHT", 384),
		Palette: str("ACCENT_PALETTE", "bwr"),
	}
}

func str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func integer(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
