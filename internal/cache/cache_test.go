package cache

import (
	"errors"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type counter struct{ hits, misses int }

func (c *counter) CacheHit(string)  { c.hits++ }
func (c *counter) CacheMiss(string) { c.misses++ }

func TestGetSetExpiry(t *testing.T) {
	clk := &clock{t: time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)}
	obs := &counter{}
	c := New[string]("test", time.Hour, WithClock(clk.now), WithObserver(obs))

	if _, ok := c.Get("k"); ok {
		t.Fatal("empty cache hit")
	}
	c.Set("k", "v")
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	clk.advance(59 * time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry expired early")
	}
	clk.advance(time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatal("entry outlived its ttl")
	}
	if obs.hits != 2 || obs.misses != 2 {
		t.Fatalf("hits=%d misses=%d, want 2 and 2", obs.hits, obs.misses)
	}
}

func TestCapacityEvictsSoonestExpiring(t *testing.T) {
	clk := &clock{t: time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)}
	c := New[int]("test", time.Hour, WithClock(clk.now), WithCapacity(2))

	c.Set("a", 1)
	clk.advance(time.Minute)
	c.Set("b", 2)
	clk.advance(time.Minute)
	c.Set("a", 10) // refresh without eviction
	if c.Len() != 2 {
		t.Fatalf("Len = %d after refresh", c.Len())
	}
	c.Set("c", 3)
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("soonest expiring entry kept")
	}
	if v, _ := c.Get("a"); v != 10 {
		t.Fatalf("a = %d", v)
	}
}

func TestCapacityDropsExpiredFirst(t *testing.T) {
	clk := &clock{t: time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)}
	c := New[int]("test", time.Hour, WithClock(clk.now), WithCapacity(3))

	c.Set("old1", 1)
	c.Set("old2", 2)
	clk.advance(30 * time.Minute)
	c.Set("fresh", 3)
	clk.advance(45 * time.Minute)
	c.Set("new", 4)

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want both expired entries dropped", c.Len())
	}
	for _, k := range []string{"fresh", "new"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("%s evicted", k)
		}
	}
}

func TestGetOrLoad(t *testing.T) {
	c := New[string]("test", time.Hour)
	calls := 0
	load := func() (string, error) {
		calls++
		return "loaded", nil
	}
	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad("k", load)
		if err != nil || v != "loaded" {
			t.Fatalf("GetOrLoad = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("loaded %d times", calls)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrLoad("bad", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Fatal("error result cached")
	}
}
