// AngelaMos | 2026
// handler.go

package organization

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/member"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/organization", h.Get)
	r.With(middleware.RequireRole(member.RoleAdmin)).Patch("/organization", h.Update)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.Get(r.Context(), middleware.GetSession(r.Context()))
	if err != nil {
		core.Error(w, err, "organization")
		return
	}

	core.OK(w, ToOrganizationResponse(org))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrganizationRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	org, err := h.service.Update(r.Context(), middleware.GetSession(r.Context()), req)
	if err != nil {
		core.Error(w, err, "organization")
		return
	}

	core.OK(w, ToOrganizationResponse(org))
}
