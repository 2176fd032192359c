// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/dentflow/internal/core"
)

// RateLimitConfig describes one limiter. Name namespaces its redis keys
// so several limiters can share a client without sharing buckets.
type RateLimitConfig struct {
	Name     string
	Limit    redis_rate.Limit
	KeyFunc  func(*http.Request) string
	FailOpen bool
	Skip     func(*http.Request) bool
}

// RateLimiter counts in redis shared by every replica. When redis errors
// it falls back to per-process token buckets with the same limit.
type RateLimiter struct {
	cfg      RateLimitConfig
	redis    *redis_rate.Limiter
	fallback *localBuckets
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	return &RateLimiter{
		cfg:      cfg,
		redis:    redis_rate.NewLimiter(rdb),
		fallback: newLocalBuckets(cfg.Limit),
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.cfg.Skip != nil && rl.cfg.Skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := "rl:" + rl.cfg.Name + ":" + rl.cfg.KeyFunc(r)

		res, err := rl.redis.Allow(r.Context(), key, rl.cfg.Limit)
		if err != nil {
			res = rl.fallback.allow(key)
			if res == nil {
				if rl.cfg.FailOpen {
					slog.Warn("rate limiter unavailable, failing open",
						"limiter", rl.cfg.Name,
						"error", err,
					)
					next.ServeHTTP(w, r)
					return
				}
				core.JSONError(w, core.ErrUnavailable)
				return
			}
		}

		writeLimitHeaders(w.Header(), rl.cfg.Limit, res)

		if res.Allowed == 0 {
			rejectLimited(w, res)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Every allows requests per window with the given burst. A non-positive
// window means one minute.
func Every(requests int, window time.Duration, burst int) redis_rate.Limit {
	if window <= 0 {
		window = time.Minute
	}
	if burst <= 0 {
		burst = requests
	}
	return redis_rate.Limit{Rate: requests, Burst: burst, Period: window}
}

func PerMinute(requests, burst int) redis_rate.Limit {
	return Every(requests, time.Minute, burst)
}

// KeyByIP trusts the last X-Forwarded-For hop, which is the one appended
// by our own load balancer.
func KeyByIP(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

// ClientIP trusts the last X-Forwarded-For hop, which is the one the edge
// proxy appended.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID
	}
	return KeyByIP(r)
}

// KeyByTenant shares one bucket across every member of a clinic.
func KeyByTenant(r *http.Request) string {
	if tenantID := GetTenantID(r.Context()); tenantID != "" {
		return "tenant:" + tenantID
	}
	return KeyByUser(r)
}

// KeyByIPAndRoute gives each endpoint its own bucket, with ids collapsed
// so /patients/<a> and /patients/<b> count together.
func KeyByIPAndRoute(r *http.Request) string {
	return KeyByIP(r) + ":" + r.Method + ":" + collapseIDs(r.URL.Path)
}

func collapseIDs(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if _, err := uuid.Parse(seg); err == nil && len(seg) == 36 {
			segments[i] = "{id}"
			continue
		}
		if _, err := strconv.ParseUint(seg, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func writeLimitHeaders(h http.Header, limit redis_rate.Limit, res *redis_rate.Result) {
	reset := int(res.ResetAfter.Round(time.Second).Seconds())

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
	h.Set("RateLimit", fmt.Sprintf("limit=%d, remaining=%d, reset=%d", limit.Rate, max(res.Remaining, 0), reset))
}

func rejectLimited(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := max(int(res.RetryAfter.Round(time.Second).Seconds()), 1)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.JSON(w, http.StatusTooManyRequests, core.ErrorBody{
		Error: fmt.Sprintf("rate limit exceeded; retry after %d seconds", retryAfter),
		Code:  "RATE_LIMITED",
	})
}

const bucketIdleTTL = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localBuckets is the in-process fallback. Idle buckets are swept on
// access at most once per TTL, so no background goroutine is needed.
type localBuckets struct {
	limit     redis_rate.Limit
	every     rate.Limit
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLocalBuckets(limit redis_rate.Limit) *localBuckets {
	var every rate.Limit
	if limit.Period > 0 && limit.Rate > 0 {
		every = rate.Limit(float64(limit.Rate) / limit.Period.Seconds())
	}
	return &localBuckets{
		limit:     limit,
		every:     every,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// allow returns nil when the limit cannot be expressed as a token bucket.
func (l *localBuckets) allow(key string) *redis_rate.Result {
	if l.every == 0 {
		return nil
	}

	now := time.Now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) > bucketIdleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > bucketIdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	interval := time.Duration(float64(time.Second) / float64(l.every))
	res := &redis_rate.Result{
		Limit:      l.limit,
		RetryAfter: -1,
		ResetAfter: interval,
	}

	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	res.Remaining = max(int(b.limiter.TokensAt(now)), 0)

	return res
}
