package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuth(t *testing.T) {
	var gotID int64
	var gotRole string
	h := Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserID(r.Context())
		gotRole = GetUserRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-ID", "42")
	req.Header.Set("X-User-Role", "admin")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gotID)
	assert.Equal(t, RoleAdmin, gotRole)

	for _, header := range []string{"", "abc", "-1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestRequireRole(t *testing.T) {
	h := Auth(RequireRole(RoleAdmin)(http.HandlerFunc(okHandler)))

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("X-User-Role", "client")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"forbidden"`)

	req.Header.Set("X-User-Role", RoleAdmin)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestID(t *testing.T) {
	var fromCtx string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get("X-Request-ID")
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, fromCtx)

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", incoming)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Header().Get("X-Request-ID"))
}

type httpCall struct {
	method, path string
	status       int
}

type fakeHTTPRecorder struct {
	mu    sync.Mutex
	calls []httpCall
}

func (f *fakeHTTPRecorder) RecordHTTPRequest(method, path string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, httpCall{method, path, status})
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	recorder := &fakeHTTPRecorder{}
	r := mux.NewRouter()
	r.Use(MetricsMiddleware(recorder))
	r.HandleFunc("/appointments/{appointmentId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments/17", nil))

	require.Len(t, recorder.calls, 1)
	assert.Equal(t, httpCall{http.MethodGet, "/appointments/{appointmentId}", http.StatusNotFound}, recorder.calls[0])
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2, false)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	limiter.lastSweep = now
	h := limiter.Middleware(http.HandlerFunc(okHandler))

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = ip + ":5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"), "limits are per client")

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, call("10.0.0.1"), "token refilled")

	now = now.Add(limiterIdleTTL + time.Minute)
	call("10.0.0.3")
	assert.Len(t, limiter.limiters, 1, "idle limiters are swept")
}

func TestRateLimiter_ForwardedFor(t *testing.T) {
	call := func(h http.Handler, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("ignored by default", func(t *testing.T) {
		limiter := NewRateLimiter(1, 1, false)
		h := limiter.Middleware(http.HandlerFunc(okHandler))

		assert.Equal(t, http.StatusOK, call(h, "203.0.113.1"))
		assert.Equal(t, http.StatusTooManyRequests, call(h, "203.0.113.2"), "rotating the header does not reset the limit")
		assert.Len(t, limiter.limiters, 1)
		assert.Contains(t, limiter.limiters, "10.0.0.1")
	})

	t.Run("trusted proxy", func(t *testing.T) {
		limiter := NewRateLimiter(1, 1, true)
		h := limiter.Middleware(http.HandlerFunc(okHandler))

		assert.Equal(t, http.StatusOK, call(h, "203.0.113.1, 10.0.0.1"))
		assert.Equal(t, http.StatusOK, call(h, "203.0.113.2"))
		assert.Equal(t, http.StatusTooManyRequests, call(h, "203.0.113.1"))
	})
}
