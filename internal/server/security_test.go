package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced clock shared by a limiter under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRateLimiter(t *testing.T, perSecond, perMinute int, ban time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	rl := NewRateLimiter(perSecond, perMinute, ban)
	rl.now = clock.Now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiter_PerSecondBan(t *testing.T) {
	t.Parallel()

	rl, clock := newTestRateLimiter(t, 5, 100, 10*time.Second)
	ip := "127.0.0.1"

	for i := range 5 {
		assert.True(t, rl.Allow(ip), "request %d", i)
	}
	assert.False(t, rl.Allow(ip))
	assert.True(t, rl.Allow("10.0.0.2"), "other IPs are unaffected")

	clock.Advance(5 * time.Second)
	assert.False(t, rl.Allow(ip), "still banned")

	clock.Advance(6 * time.Second)
	assert.True(t, rl.Allow(ip), "ban expired")
}

func TestRateLimiter_PerMinuteLimit(t *testing.T) {
	t.Parallel()

	rl, clock := newTestRateLimiter(t, 100, 5, time.Second)
	ip := "10.0.0.1"

	for range 5 {
		assert.True(t, rl.Allow(ip))
		clock.Advance(2 * time.Second)
	}
	assert.False(t, rl.Allow(ip))
}

func TestRateLimiter_SweepDropsIdleEntries(t *testing.T) {
	t.Parallel()

	rl, clock := newTestRateLimiter(t, 1, 10, time.Minute)
	rl.Allow("idle")
	rl.Allow("banned")
	assert.False(t, rl.Allow("banned"))

	clock.Advance(rateIdleExpiry + time.Second)
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.windows, "idle")
	assert.NotContains(t, rl.windows, "banned", "ban has expired too")
}

func TestRateLimiter_Concurrency(t *testing.T) {
	t.Parallel()

	rl, _ := newTestRateLimiter(t, 1000, 1000, time.Second)
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() { rl.Allow("192.168.0.1") })
	}
	wg.Wait()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Equal(t, 50, rl.windows["192.168.0.1"].second)
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "https://anything.example", want: true},
		{name: "exact match", allowed: []string{"https://truco.example"}, origin: "https://truco.example", want: true},
		{name: "case and trailing slash", allowed: []string{"https://Truco.example/"}, origin: "HTTPS://truco.example", want: true},
		{name: "not listed", allowed: []string{"https://truco.example"}, origin: "https://evil.example", want: false},
		{name: "no origin header", allowed: []string{"https://truco.example"}, origin: "", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, NewOriginChecker(tt.allowed).Check(r))
		})
	}
}

func TestIPFilter(t *testing.T) {
	t.Parallel()

	f := NewIPFilter([]string{" 10.0.0.9 ", ""})
	assert.False(t, f.IsAllowed("10.0.0.9"))
	assert.True(t, f.IsAllowed("10.0.0.8"))
	assert.True(t, f.IsAllowed(""), "blank entries are ignored")
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, remoteAddr: "10.0.0.1:1234", want: "203.0.113.7"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.2"}, remoteAddr: "10.0.0.1:1234", want: "198.51.100.2"},
		{name: "remote addr", remoteAddr: "192.0.2.10:5555", want: "192.0.2.10"},
		{name: "remote addr without port", remoteAddr: "192.0.2.11", want: "192.0.2.11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(r))
		})
	}
}

func TestMessageRateLimiter(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	ml := NewMessageRateLimiter(4)
	ml.now = clock.Now
	id := "client-1"

	allowed, warning := ml.AllowMessage(id)
	assert.True(t, allowed)
	assert.False(t, warning)
	allowed, warning = ml.AllowMessage(id)
	assert.True(t, allowed)
	assert.False(t, warning)

	allowed, warning = ml.AllowMessage(id)
	assert.True(t, allowed)
	assert.True(t, warning, "past half of the budget")
	ml.AllowMessage(id)

	allowed, _ = ml.AllowMessage(id)
	assert.False(t, allowed)
	assert.False(t, ml.ShouldDisconnect(id))

	for range maxMessageWarnings {
		ml.AllowMessage(id)
	}
	assert.True(t, ml.ShouldDisconnect(id))

	clock.Advance(time.Second)
	allowed, warning = ml.AllowMessage(id)
	assert.True(t, allowed, "window resets every second")
	assert.False(t, warning)

	ml.RemoveClient(id)
	assert.False(t, ml.ShouldDisconnect(id))
}
