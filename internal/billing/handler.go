// AngelaMos | 2026
// handler.go

package billing

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/plans", h.ListPlans)
}

// RegisterRoutes expects r to already carry the session middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/organization/subscription", h.GetSubscription)
	r.Get("/organization/features", h.GetFeatures)
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlans(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]PlanResponse, 0, len(plans))
	for i := range plans {
		out = append(out, ToPlanResponse(&plans[i]))
	}

	core.OK(w, out)
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.CurrentSubscription(r.Context(), middleware.GetTenantID(r.Context()))
	if err != nil {
		core.Error(w, err, "subscription")
		return
	}

	core.OK(w, ToSubscriptionResponse(sub, time.Now()))
}

func (h *Handler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := h.service.Features(r.Context(), middleware.GetTenantID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, FeaturesResponse{Features: features})
}
