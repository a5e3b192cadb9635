package maps

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pbaille/accent/internal/fetcher"
)

func newClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{
		APIKey:        "test-key",
		StaticURL:     srv.URL + "/staticmap",
		DirectionsURL: srv.URL + "/directions",
	}, fetcher.New(5*time.Second), nil)
	if err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC) }
	return c
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Config{}, fetcher.New(0), nil); err == nil {
		t.Fatal("missing key accepted")
	}
}

func TestImageCapsAndScales(t *testing.T) {
	var calls int32
	var size, path string
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		q := r.URL.Query()
		size, path = q.Get("size"), q.Get("path")
		if q.Get("key") != "test-key" {
			t.Errorf("key = %q", q.Get("key"))
		}
		var wh image.Point
		if _, err := fmt.Sscanf(size, "%dx%d", &wh.X, &wh.Y); err != nil {
			t.Errorf("size %q: %v", size, err)
		}
		img := image.NewRGBA(image.Rect(0, 0, wh.X, wh.Y))
		for i := range img.Pix {
			img.Pix[i] = 0xff
		}
		png.Encode(w, img)
	}))

	req := Request{Polyline: "a~l~Fjk~uOwHJy@P"}
	img, err := c.Image(context.Background(), 800, 480, req)
	if err != nil {
		t.Fatal(err)
	}
	if size != "640x384" {
		t.Fatalf("requested size = %q, want 640x384", size)
	}
	if !strings.HasSuffix(path, "enc:a~l~Fjk~uOwHJy@P") || !strings.Contains(path, "weight:6") {
		t.Fatalf("path = %q", path)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 480 {
		t.Fatalf("bounds = %v", b)
	}

	// Copyright text is black on the white corner.
	dark := 0
	for y := 440; y < 480; y++ {
		for x := 500; x < 800; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x4000 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Fatal("no copyright text in the corner")
	}

	if _, err := c.Image(context.Background(), 800, 480, req); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("static map fetched %d times", n)
	}
}

func TestImageMarkers(t *testing.T) {
	var markers string
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		markers = r.URL.Query().Get("markers")
		img := image.NewGray(image.Rect(0, 0, 10, 10))
		for i := range img.Pix {
			img.Pix[i] = 0xff
		}
		png.Encode(w, img)
	}))
	_, err := c.Image(context.Background(), 10, 10, Request{
		Markers:    []string{"37.77,-122.42", "48.86,2.35"},
		MarkerIcon: "http://accent.ink/marker.png",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "anchor:center|icon:http://accent.ink/marker.png|37.77,-122.42|48.86,2.35"
	if markers != want {
		t.Fatalf("markers = %q, want %q", markers, want)
	}
}

func TestCopyright(t *testing.T) {
	c := newClient(t, http.NotFoundHandler())
	if got := c.Copyright(); got != "Map data ©2024 Google" {
		t.Fatalf("Copyright = %q", got)
	}
}

func TestDirections(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("origin") != "Home" || q.Get("destination") != "Work" || q.Get("mode") != "transit" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{
			"status": "OK",
			"routes": [{
				"summary": "US-101 S",
				"overview_polyline": {"points": "abc"},
				"legs": [{"duration": {"text": "20 mins"}, "duration_in_traffic": {"text": "31 mins"}}]
			}]
		}`))
	}))
	route, err := c.Directions(context.Background(), "Home", "Work", "transit")
	if err != nil {
		t.Fatal(err)
	}
	if route.Polyline != "abc" || route.Text() != "31 mins via US-101 S" {
		t.Fatalf("route = %+v, text %q", route, route.Text())
	}
}

func TestDirectionsErrors(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`))
	}))
	_, err := c.Directions(context.Background(), "Home", "Work", "driving")
	if err == nil || !strings.Contains(err.Error(), "API key is invalid") {
		t.Fatalf("err = %v", err)
	}
	if _, err := c.Directions(context.Background(), "Home", "", "driving"); err == nil {
		t.Fatal("missing work accepted")
	}
}

func TestRouteTextWithoutSummary(t *testing.T) {
	if got := (Route{Duration: "12 mins"}).Text(); got != "12 mins" {
		t.Fatalf("Text = %q", got)
	}
}
