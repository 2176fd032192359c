// AngelaMos | 2026
// feature.go

package middleware

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/carterperez-dev/dentflow/internal/core"
)

var featureDenials = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dentflow_feature_gate_denied_total",
		Help: "Requests rejected because the tenant plan lacks a feature",
	},
	[]string{"feature"},
)

type FeatureChecker interface {
	IsFeatureEnabled(ctx context.Context, tenantID, feature string) bool
}

// RequireFeature must run after RequireSession.
func RequireFeature(checker FeatureChecker, feature string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSession(r.Context())
			if session == nil {
				core.JSONError(w, core.UnauthorizedError("authentication required"))
				return
			}

			if !checker.IsFeatureEnabled(r.Context(), session.TenantID, feature) {
				featureDenials.WithLabelValues(feature).Inc()
				core.JSONError(w, core.PlanUpgradeError(feature))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
