// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRateLimiterFallsBackToLocalBuckets(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(), RateLimitConfig{
		Limit: PerMinute(60, 2),
	})
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		r := httptest.NewRequest(http.MethodGet, "/v1/patients", nil)
		r.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterBypass(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(), RateLimitConfig{
		Limit:      PerMinute(1, 1),
		Skip:       func(r *http.Request) bool { return r.URL.Path == "/healthz" },
	})
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestKeyFuncs(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/patients/3f1e0000-0000-4000-8000-000000000001", nil)
	r.RemoteAddr = "198.51.100.2:4000"
	assert.Equal(t, "ip:198.51.100.2", KeyByIP(r))
	assert.Equal(t, "ip:198.51.100.2:GET:/v1/patients/{id}", KeyByIPAndRoute(r))

	r.Header.Set("X-Forwarded-For", "10.0.0.1, 192.0.2.9")
	assert.Equal(t, "ip:192.0.2.9", KeyByIP(r))

	r = r.WithContext(WithSession(r.Context(), &Session{TenantID: "clinic", UserID: "u1"}))
	assert.Equal(t, "user:u1", KeyByUser(r))
	assert.Equal(t, "tenant:clinic", KeyByTenant(r))
}

func TestCollapseIDs(t *testing.T) {
	assert.Equal(t, "/v1/labs/{id}/technicians", collapseIDs("/v1/labs/3f1e0000-0000-4000-8000-000000000001/technicians"))
	assert.Equal(t, "/v1/appointments/{id}", collapseIDs("/v1/appointments/42"))
	assert.Equal(t, "/v1/auth/login", collapseIDs("/v1/auth/login/"))
}

func TestEvery(t *testing.T) {
	l := Every(10, 0, 0)
	assert.Equal(t, time.Minute, l.Period)
	assert.Equal(t, 10, l.Burst)

	l = Every(5, time.Hour, 2)
	assert.Equal(t, time.Hour, l.Period)
	assert.Equal(t, 2, l.Burst)
}

func TestRateLimitersAreNamespaced(t *testing.T) {
	rdb := unreachableRedis()
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	global := NewRateLimiter(rdb, RateLimitConfig{Name: "global", Limit: PerMinute(60, 1)}).Handler(ok)
	auth := NewRateLimiter(rdb, RateLimitConfig{Name: "auth", Limit: PerMinute(60, 1)}).Handler(ok)

	send := func(h http.Handler) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		r.RemoteAddr = "203.0.113.9:1000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send(global).Code)
	assert.Equal(t, http.StatusNoContent, send(auth).Code)

	limited := send(auth)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Equal(t, "60", limited.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", limited.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiterWithoutUsableLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	open := NewRateLimiter(unreachableRedis(), RateLimitConfig{FailOpen: true}).Handler(ok)
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	closed := NewRateLimiter(unreachableRedis(), RateLimitConfig{}).Handler(ok)
	rec = httptest.NewRecorder()
	closed.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})

	rec := httptest.NewRecorder()
	SecurityHeaders(true)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = httptest.NewRecorder()
	SecurityHeaders(false)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRequestIDPropagatesOrGenerates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
}
