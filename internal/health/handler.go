// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

const (
	defaultCheckTimeout = 2 * time.Second
	resultTTL           = time.Second
)

var dependencyUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "dentflow_dependency_up",
	Help: "1 when the last readiness probe of a dependency succeeded.",
}, []string{"dependency"})

type Checker interface {
	Ping(ctx context.Context) error
}

// Check is one named dependency probed by the readiness endpoint.
// Optional checks report their failure without failing readiness.
type Check struct {
	Name     string
	Checker  Checker
	Optional bool
	Timeout  time.Duration
}

// Handler serves liveness and readiness. Readiness results are reused
// for resultTTL so a burst of probes costs one round of pings.
type Handler struct {
	version  string
	started  time.Time
	checks   []Check
	draining atomic.Bool

	mu       sync.Mutex
	cached   *ReadinessResponse
	cachedAt time.Time
}

func NewHandler(version string, checks ...Check) *Handler {
	cs := append([]Check(nil), checks...)
	for i := range cs {
		if cs[i].Timeout <= 0 {
			cs[i].Timeout = defaultCheckTimeout
		}
	}
	return &Handler{version: version, started: time.Now(), checks: cs}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

// Drain makes both probes fail so the load balancer stops routing here
// before the server shuts down.
func (h *Handler) Drain() {
	h.draining.Store(true)
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if h.draining.Load() {
		writeJSON(w, http.StatusServiceUnavailable, LivenessResponse{Status: StatusDraining})
		return
	}
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  StatusOK,
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.draining.Load() {
		writeJSON(w, http.StatusServiceUnavailable, ReadinessResponse{Status: StatusDraining})
		return
	}

	res := h.readiness(r.Context())
	code := http.StatusOK
	if res.Status == StatusUnavailable {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, res)
}

func (h *Handler) readiness(ctx context.Context) ReadinessResponse {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cached != nil && time.Since(h.cachedAt) < resultTTL {
		return *h.cached
	}

	results := make([]CheckResult, len(h.checks))
	var g errgroup.Group
	for i, c := range h.checks {
		g.Go(func() error {
			results[i] = probe(ctx, c)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // probes never return errors

	res := ReadinessResponse{Status: StatusOK, Checks: results}
	for i, cr := range results {
		if cr.Healthy {
			continue
		}
		if !h.checks[i].Optional {
			res.Status = StatusUnavailable
			break
		}
		res.Status = StatusDegraded
	}

	h.cached = &res
	h.cachedAt = time.Now()
	return res
}

func probe(ctx context.Context, c Check) CheckResult {
	out := CheckResult{Name: c.Name, Optional: c.Optional}

	if c.Checker == nil {
		out.Message = "not configured"
		dependencyUp.WithLabelValues(c.Name).Set(0)
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	start := time.Now()
	err := c.Checker.Ping(ctx)
	out.LatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		out.Message = "ping failed"
		dependencyUp.WithLabelValues(c.Name).Set(0)
		return out
	}
	out.Healthy = true
	dependencyUp.WithLabelValues(c.Name).Set(1)
	return out
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // probe client gone
}

const (
	StatusOK          = "ok"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
	StatusDraining    = "draining"
)

type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks []CheckResult `json:"checks,omitempty"`
}

type CheckResult struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	Optional  bool   `json:"optional,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}
