// AngelaMos | 2026
// handler.go

package laboratory

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
	admin := middleware.RequireRole(member.RoleAdmin)

	r.Route("/laboratories", func(r chi.Router) {
		r.Get("/", h.ListLabs)
		r.Get("/{id}", h.GetLab)
		r.With(admin).Post("/", h.CreateLab)
		r.With(admin).Put("/{id}", h.UpdateLab)
		r.With(admin).Delete("/{id}", h.DeactivateLab)
	})

	r.Route("/proteticos", func(r chi.Router) {
		r.Get("/", h.ListTechnicians)
		r.Get("/{id}", h.GetTechnician)
		r.With(admin).Post("/", h.CreateTechnician)
		r.With(admin).Put("/{id}", h.UpdateTechnician)
		r.With(admin).Delete("/{id}", h.DeactivateTechnician)
	})
}

func activeOnly(r *http.Request) bool {
	return r.URL.Query().Get("active") == "true"
}

func (h *Handler) ListLabs(w http.ResponseWriter, r *http.Request) {
	labs, err := h.service.ListLabs(r.Context(), middleware.GetSession(r.Context()), activeOnly(r))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]LaboratoryResponse, 0, len(labs))
	for i := range labs {
		out = append(out, ToLaboratoryResponse(&labs[i]))
	}

	core.OK(w, out)
}

func (h *Handler) GetLab(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	lab, err := h.service.GetLab(r.Context(), middleware.GetTenantID(r.Context()), id)
	if err != nil {
		core.Error(w, err, "laboratory")
		return
	}

	core.OK(w, ToLaboratoryResponse(lab))
}

func (h *Handler) CreateLab(w http.ResponseWriter, r *http.Request) {
	var req LaboratoryRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	lab, err := h.service.CreateLab(r.Context(), middleware.GetSession(r.Context()), req)
	if err != nil {
		core.Error(w, err, "laboratory")
		return
	}

	core.Created(w, ToLaboratoryResponse(lab))
}

func (h *Handler) UpdateLab(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req LaboratoryRequest
	if appErr := core.Bind(r, &req, h.validator); appErr != nil {
		core.JSONError(w, appErr)
		return
	}

	lab, err := h.service.UpdateLab(r.Context(), middleware.GetSession(r.Context()), id, req)
	if err != nil {
		core.Error(w, err, "laboratory")
		return
	}

	core.OK(w, ToLaboratoryResponse(lab))
}

func (h *Handler) DeactivateLab(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.DeactivateLab(r.Context(), middleware.GetSession(r.Context()), id); err != nil {
		core.Error(w, err, "laboratory")
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListTechnicians(w http.ResponseWriter, r *http.Request) {
	techs, err := h.service.ListTechnicians(r.Context(), middleware.GetSession(r.Context()), activeOnly(r))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]TechnicianResponse, 0, len(techs))
	for i := range techs {
		out = append(out, ToTechnicianResponse(&techs[i]))
	}

	core.OK(w, out)
}

func (h *Handler) GetTechnician(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	t, err := h.service.GetTechnician(r.Context(), middleware.GetTenantID(r.Context()), id)
	if err != nil {
		core.Error(w, err, "technician")
		return
	}

	core.OK(w, ToTechnicianResponse(t))
}

func (h *Handler) CreateTechnician(w http.ResponseWriter, r *http.Request) {
	var req TechnicianRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	t, err := h.service.CreateTechnician(r.Context(), middleware.GetSession(r.Context()), req)
	if err != nil {
		core.Error(w, err, "technician")
		return
	}

	core.Created(w, ToTechnicianResponse(t))
}

func (h *Handler) UpdateTechnician(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req TechnicianRequest
	if appErr := core.Bind(r, &req, h.validator); appErr != nil {
		core.JSONError(w, appErr)
		return
	}

	t, err := h.service.UpdateTechnician(r.Context(), middleware.GetSession(r.Context()), id, req)
	if err != nil {
		core.Error(w, err, "technician")
		return
	}

	core.OK(w, ToTechnicianResponse(t))
}

func (h *Handler) DeactivateTechnician(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.DeactivateTechnician(r.Context(), middleware.GetSession(r.Context()), id); err != nil {
		core.Error(w, err, "technician")
		return
	}

	core.NoContent(w)
}
