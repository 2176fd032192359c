// AngelaMos | 2026
// handler.go

package patient

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

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/patients", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := core.ParsePage(r)
	filter := ListFilter{Search: r.URL.Query().Get("search")}

	patients, total, err := h.service.List(r.Context(), middleware.GetSession(r.Context()), filter, page)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	items := make([]PatientResponse, 0, len(patients))
	for i := range patients {
		items = append(items, ToPatientResponse(&patients[i]))
	}

	core.Paginated(w, items, page.Page, page.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	p, err := h.service.Create(r.Context(), middleware.GetSession(r.Context()), req)
	if err != nil {
		core.Error(w, err, "patient")
		return
	}

	core.Created(w, ToPatientResponse(p))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	p, err := h.service.Get(r.Context(), middleware.GetSession(r.Context()), id)
	if err != nil {
		core.Error(w, err, "patient")
		return
	}

	core.OK(w, ToPatientResponse(p))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req UpdatePatientRequest
	if appErr := core.Bind(r, &req, h.validator); appErr != nil {
		core.JSONError(w, appErr)
		return
	}

	p, err := h.service.Update(r.Context(), middleware.GetSession(r.Context()), id, req)
	if err != nil {
		core.Error(w, err, "patient")
		return
	}

	core.OK(w, ToPatientResponse(p))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetSession(r.Context()), id); err != nil {
		core.Error(w, err, "patient")
		return
	}

	core.NoContent(w)
}
