package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute})
	t.Cleanup(rl.Stop)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("a"), "request %d", i+1)
	}
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are independent")

	*now = now.Add(30 * time.Second)
	assert.False(t, rl.Allow("a"), "still inside the window")
	assert.Equal(t, 30, rl.RetryAfter("a"))

	*now = now.Add(31 * time.Second)
	assert.True(t, rl.Allow("a"), "new window")

	m := rl.GetMetrics()
	assert.EqualValues(t, 2, m.TotalHits)
	assert.EqualValues(t, 2, m.ClientCount)
}

func TestLimiter_DefaultsAndCleanup(t *testing.T) {
	rl, now := newTestLimiter(t, 0)
	assert.Equal(t, 60, rl.requestsPerMinute)

	rl.Allow("a")
	*now = now.Add(11 * time.Minute)
	rl.cleanupStaleEntries()
	assert.Zero(t, rl.ActiveClients())

	rl.Stop()
	rl.Stop()
}

func TestLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	called := 0
	var limited bool

	h := rl.Middleware(
		func(r *http.Request) string { return r.RemoteAddr },
		func(w http.ResponseWriter, r *http.Request) {
			limited = true
			w.WriteHeader(http.StatusTooManyRequests)
		},
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called++ }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.True(t, limited)
	assert.Equal(t, 1, called)
}
