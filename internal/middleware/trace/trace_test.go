package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "expensetracker/internal/log"
)

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelDebug, Output: &buf})
	m := NewMiddleware(logger, func(r *http.Request) string { return "198.51.100.1" })

	var seenID string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = FromRequest(r)
		applog.FromContext(r.Context()).InfoContext(r.Context(), "inside handler")
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/categories", nil))

	require.True(t, strings.HasPrefix(seenID, "req_"))
	assert.Equal(t, seenID, rr.Header().Get(HeaderRequestID))

	out := buf.String()
	assert.Contains(t, out, "HTTP request completed")
	assert.Contains(t, out, "status_code=500")
	assert.Contains(t, out, "request_id="+seenID)
	assert.Contains(t, out, "client_ip=198.51.100.1")

	metrics := m.GetMetrics()
	assert.EqualValues(t, 1, metrics.TotalRequests)
	assert.EqualValues(t, 1, metrics.ServerErrors)
}

func TestMiddleware_RequestIDHeader(t *testing.T) {
	m := NewMiddleware(nil, nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		incoming string
		keep     bool
	}{
		{"abc-123", true},
		{"", false},
		{"has spaces", false},
		{strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.incoming != "" {
			r.Header.Set(HeaderRequestID, tt.incoming)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)

		got := rr.Header().Get(HeaderRequestID)
		if tt.keep {
			assert.Equal(t, tt.incoming, got)
		} else {
			assert.NotEqual(t, tt.incoming, got)
			assert.True(t, strings.HasPrefix(got, "req_"))
		}
	}
}
