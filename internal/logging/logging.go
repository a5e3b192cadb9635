package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type DualLogger struct {
	Logger *slog.Logger
	file   *os.File
}

// New creates a slog logger that writes to stdout and, when logPath is set,
// appends to that file too.
func New(logPath, level string) (*DualLogger, error) {
	return newWith(os.Stdout, logPath, level)
}

func newWith(stdout io.Writer, logPath, level string) (*DualLogger, error) {
	writers := []io.Writer{stdout}

	var file *os.File
	if logPath != "" {
		var err error
		file, err = os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, file)
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: ParseLevel(level)})

	return &DualLogger{Logger: slog.New(handler), file: file}, nil
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Close closes the log file, if any.
func (l *DualLogger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
