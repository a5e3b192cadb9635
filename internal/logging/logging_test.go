package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogsToBothWriters(t *testing.T) {
	var stdout bytes.Buffer
	path := filepath.Join(t.TempDir(), "accent.log")

	l, err := newWith(&stdout, path, "info")
	if err != nil {
		t.Fatal(err)
	}
	l.Logger.Debug("hidden")
	l.Logger.Info("rendered", "kind", "city")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, out := range []string{stdout.String(), string(data)} {
		if !strings.Contains(out, "msg=rendered kind=city") {
			t.Errorf("output %q", out)
		}
		if strings.Contains(out, "hidden") {
			t.Errorf("debug line logged at info: %q", out)
		}
	}
}

func TestStdoutOnly(t *testing.T) {
	var stdout bytes.Buffer
	l, err := newWith(&stdout, "", "debug")
	if err != nil {
		t.Fatal(err)
	}
	l.Logger.Debug("shown")
	if !strings.Contains(stdout.String(), "shown") {
		t.Fatalf("output %q", stdout.String())
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
