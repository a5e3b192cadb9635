package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/pbaille/accent/internal/content"
	"github.com/pbaille/accent/internal/domain"
	"github.com/pbaille/accent/internal/epd"
	"github.com/pbaille/accent/internal/metrics"
	"github.com/pbaille/accent/internal/schedule"
)

// FallbackDelay is handed to clients whose schedule cannot be evaluated, so
// they check back after the user has had a chance to fix it.
const FallbackDelay = time.Hour

// maxDimension bounds the width and height query parameters.
const maxDimension = 2048

// Users looks up users by key.
type Users interface {
	GetUser(ctx context.Context, key string) (*domain.User, error)
}

// Options configures a Server. Users, Content and Locations are required.
type Options struct {
	Users     Users
	Content   *content.Registry
	Locations content.Locator
	Scheduler *schedule.Scheduler
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	// AccessLog receives one combined log line per request. Nil means stdout.
	AccessLog io.Writer

	SettingsURL string
	// Computer is drawn on the settings image when set.
	Computer image.Image

	Width   int
	Height  int
	Palette epd.Palette
	Now     func() time.Time
}

// Server handles HTTP requests from displays
type Server struct {
	users     Users
	content   *content.Registry
	locations content.Locator
	scheduler *schedule.Scheduler
	metrics   *metrics.Metrics
	logger    *slog.Logger
	accessLog io.Writer

	settingsURL string
	computer    image.Image

	width   int
	height  int
	palette epd.Palette
	now     func() time.Time
}

// New creates a new API server
func New(opts Options) *Server {
	s := &Server{
		users:       opts.Users,
		content:     opts.Content,
		locations:   opts.Locations,
		scheduler:   opts.Scheduler,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		accessLog:   opts.AccessLog,
		settingsURL: opts.SettingsURL,
		computer:    opts.Computer,
		width:       opts.Width,
		height:      opts.Height,
		palette:     opts.Palette,
		now:         opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.scheduler == nil {
		s.scheduler = &schedule.Scheduler{Logger: s.logger}
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.accessLog == nil {
		s.accessLog = os.Stdout
	}
	if s.width <= 0 || s.height <= 0 {
		s.width, s.height = 640, 384
	}
	if s.palette.Name == "" {
		s.palette = epd.Palettes[0]
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handler returns the routed handler with access logging and panic recovery.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	route := func(path string, h http.HandlerFunc) {
		router.Handle(path, s.metrics.WrapHandler(path, h)).Methods("GET")
	}

	// Display endpoints
	route("/epd", s.scheduledImage(epd.FormatEPD))
	route("/gif", s.scheduledImage(epd.FormatGIF))
	route("/png", s.scheduledImage(epd.FormatPNG))
	route("/next", s.next)

	// Debugging
	route("/timeline", s.timeline)
	route("/content/{kind}", s.contentImage)

	route("/health", s.health)
	router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "OPTIONS"}),
	)
	return handlers.CombinedLoggingHandler(s.accessLog, cors(s.recoverer(router)))
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// display is the output geometry and palette of one request.
type display struct {
	width   int
	height  int
	palette epd.Palette
}

func (s *Server) parseDisplay(r *http.Request) (display, error) {
	d := display{width: s.width, height: s.height, palette: s.palette}
	q := r.URL.Query()

	for _, p := range []struct {
		name string
		dst  *int
	}{{"width", &d.width}, {"height", &d.height}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxDimension {
			return d, fmt.Errorf("%s must be between 1 and %d", p.name, maxDimension)
		}
		*p.dst = n
	}

	if v := q.Get("variant"); v != "" {
		p, err := epd.PaletteByName(v)
		if err != nil {
			return d, err
		}
		d.palette = p
	}
	return d, nil
}

// userKey reads the key from the query string or the basic auth password.
func userKey(r *http.Request) string {
	if key := r.URL.Query().Get("key"); key != "" {
		return key
	}
	if _, password, ok := r.BasicAuth(); ok {
		return password
	}
	return ""
}

// shortKey keeps keys out of the logs.
func shortKey(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}

// lookup authenticates the request. ok with a nil user means the key is
// unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *domain.User, bool) {
	key := userKey(r)
	if key == "" {
		writeError(w, http.StatusForbidden, "missing key")
		return "", nil, false
	}
	user, err := s.users.GetUser(r.Context(), key)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.logger.Warn("unknown user", "key", shortKey(key))
		return key, nil, true
	}
	if err != nil {
		s.internalError(w, err)
		return "", nil, false
	}
	return key, user, true
}

func (s *Server) scheduledImage(format epd.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := s.parseDisplay(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		key, user, ok := s.lookup(w, r)
		if !ok {
			return
		}
		if user == nil {
			s.sendImage(w, s.settingsImage(key, d), d, format, "settings")
			return
		}

		start := time.Now()
		img, kind, err := s.scheduled(r.Context(), user, d)
		if err != nil {
			s.fallback(w, key, err, kind, d, format)
			return
		}
		s.metrics.Rendered(string(kind), string(format), time.Since(start))
		s.sendImage(w, img, d, format, string(kind))
	}
}

func (s *Server) contentImage(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseContentKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	d, err := s.parseDisplay(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key, user, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if user == nil {
		s.sendImage(w, s.settingsImage(key, d), d, epd.FormatPNG, "settings")
		return
	}

	start := time.Now()
	img, err := s.content.Produce(r.Context(), kind, *user, d.width, d.height)
	if err != nil {
		s.fallback(w, key, err, kind, d, epd.FormatPNG)
		return
	}
	s.metrics.Rendered(string(kind), string(epd.FormatPNG), time.Since(start))
	s.sendImage(w, img, d, epd.FormatPNG, string(kind))
}

// scheduled renders the user's active entry.
func (s *Server) scheduled(ctx context.Context, user *domain.User, d display) (image.Image, domain.ContentKind, error) {
	if len(user.Schedule) == 0 {
		return nil, "", domain.ErrNoSchedule
	}
	now, loc, err := content.UserNow(ctx, s.locations, *user, s.now())
	if err != nil {
		return nil, "", err
	}
	entry, _, err := s.scheduler.ActiveEntry(user.Schedule, now, loc)
	if err != nil {
		return nil, "", err
	}
	img, err := s.content.Produce(ctx, entry.Kind, *user, d.width, d.height)
	return img, entry.Kind, err
}

// fallback answers user-facing failures with the settings image and
// everything else with a 500.
func (s *Server) fallback(w http.ResponseWriter, key string, err error, kind domain.ContentKind, d display, format epd.Format) {
	if !domain.IsUserFacing(err) {
		s.internalError(w, err)
		return
	}
	var ce *domain.ContentError
	if errors.As(err, &ce) {
		s.metrics.ContentFailed(string(ce.Kind))
	}
	s.logger.Warn("showing settings image", "kind", kind, "error", err)
	s.sendImage(w, s.settingsImage(key, d), d, format, "settings")
}

// settingsImage links to the settings page of key.
func (s *Server) settingsImage(key string, d display) image.Image {
	url := s.settingsURL
	if key != "" {
		url += "/" + key
	}
	return content.SettingsImage(url, s.computer, d.width, d.height)
}

func (s *Server) next(w http.ResponseWriter, r *http.Request) {
	_, user, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if user == nil {
		writeError(w, http.StatusForbidden, "unknown key")
		return
	}

	ms, err := s.delay(r.Context(), user)
	if err != nil {
		if !domain.IsUserFacing(err) {
			s.internalError(w, err)
			return
		}
		s.logger.Warn("using fallback delay", "error", err)
		ms = FallbackDelay.Milliseconds()
	}
	s.metrics.Delay(ms)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, strconv.FormatInt(ms, 10))
}

func (s *Server) delay(ctx context.Context, user *domain.User) (int64, error) {
	if len(user.Schedule) == 0 {
		return 0, domain.ErrNoSchedule
	}
	now, loc, err := content.UserNow(ctx, s.locations, *user, s.now())
	if err != nil {
		return 0, err
	}
	return s.scheduler.DelayToNext(user.Schedule, now, loc)
}

func (s *Server) timeline(w http.ResponseWriter, r *http.Request) {
	d := display{width: s.width, height: s.height, palette: s.palette}
	key, user, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if user == nil {
		s.sendImage(w, s.settingsImage(key, d), d, epd.FormatPNG, "settings")
		return
	}

	img, err := s.timelineImage(r.Context(), user)
	if err != nil {
		s.fallback(w, key, err, "", d, epd.FormatPNG)
		return
	}
	s.sendImage(w, img, d, epd.FormatPNG, "timeline")
}

func (s *Server) timelineImage(ctx context.Context, user *domain.User) (image.Image, error) {
	if len(user.Schedule) == 0 {
		return schedule.EmptyTimeline(), nil
	}
	now, loc, err := content.UserNow(ctx, s.locations, *user, s.now())
	if err != nil {
		return nil, err
	}
	transitions, err := s.scheduler.Timeline(user.Schedule, now, loc)
	if err != nil {
		return nil, err
	}
	return schedule.DrawTimeline(transitions, now), nil
}

// sendImage encodes img fully before writing so encoding failures still
// produce a clean 500.
func (s *Server) sendImage(w http.ResponseWriter, img image.Image, d display, format epd.Format, kind string) {
	var buf bytes.Buffer
	if err := epd.Encode(&buf, img, d.palette, format); err != nil {
		s.internalError(w, fmt.Errorf("encode %s %s: %w", kind, format, err))
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	message := fmt.Sprintf("Internal Server Error @ %d", s.now().Unix())
	s.logger.Error(message, "error", err)
	http.Error(w, message, http.StatusInternalServerError)
}

// recoverer turns panics into the same tagged 500 as other internal errors.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.internalError(w, fmt.Errorf("panic: %v", v))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
