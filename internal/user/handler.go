// AngelaMos | 2026
// handler.go

package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validator: core.NewValidator()}
}

// RegisterRoutes mounts the caller's own profile. It needs a token but no
// tenant, so it sits outside the session gate.
func (h *Handler) RegisterRoutes(r chi.Router, authenticator func(http.Handler) http.Handler) {
	r.With(authenticator).Route("/users/me", func(r chi.Router) {
		r.Get("/", h.GetProfile)
		r.Patch("/", h.UpdateProfile)
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Profile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.Error(w, err, "user")
		return
	}
	core.OK(w, NewProfileResponse(u))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.Error(w, err, "user")
		return
	}
	core.OK(w, NewProfileResponse(u))
}
