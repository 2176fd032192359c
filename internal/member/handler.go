// AngelaMos | 2026
// handler.go

package member

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
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

// RegisterRoutes expects r to already carry the session middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/organization/members", h.List)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(RoleAdmin))
		r.Post("/organization/members", h.Invite)
		r.Put("/organization/members/{userID}", h.UpdateRole)
		r.Delete("/organization/members/{userID}", h.Remove)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.List(r.Context(), middleware.GetSession(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]MemberResponse, 0, len(profiles))
	for i := range profiles {
		out = append(out, ToProfileResponse(&profiles[i]))
	}

	core.OK(w, out)
}

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	m, err := h.service.Invite(r.Context(), middleware.GetSession(r.Context()), req.Email, req.Role)
	if err != nil {
		core.Error(w, err, "member")
		return
	}

	core.Created(w, ToMemberResponse(m))
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, err := core.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req UpdateRoleRequest
	if appErr := core.Bind(r, &req, h.validator); appErr != nil {
		core.JSONError(w, appErr)
		return
	}

	m, err := h.service.ChangeRole(r.Context(), middleware.GetSession(r.Context()), userID, req.Role)
	if err != nil {
		core.Error(w, err, "member")
		return
	}

	core.OK(w, ToMemberResponse(m))
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, err := core.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.Remove(r.Context(), middleware.GetSession(r.Context()), userID); err != nil {
		core.Error(w, err, "member")
		return
	}

	core.NoContent(w)
}
