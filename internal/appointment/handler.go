// AngelaMos | 2026
// handler.go

package appointment

import (
	"net/http"
	"time"

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
	r.Route("/appointments", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Status: q.Get("status")}

	if raw := q.Get("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			core.BadRequest(w, "date must be YYYY-MM-DD")
			return
		}
		from, to := DayRange(date, time.UTC)
		filter.From, filter.To = &from, &to
	}

	for key, dst := range map[string]*string{
		"dentist_id": &filter.DentistID,
		"patient_id": &filter.PatientID,
	} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		id, err := core.ParseID(raw)
		if err != nil {
			core.BadRequest(w, key+" must be a valid id")
			return
		}
		*dst = id
	}

	items, err := h.service.List(r.Context(), middleware.GetSession(r.Context()), filter)
	if err != nil {
		core.Error(w, err, "appointment")
		return
	}

	out := make([]AppointmentResponse, 0, len(items))
	for i := range items {
		out = append(out, ToAppointmentResponse(&items[i]))
	}

	core.OK(w, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	a, err := h.service.Create(r.Context(), middleware.GetSession(r.Context()), req)
	if err != nil {
		core.Error(w, err, "appointment")
		return
	}

	core.Created(w, ToAppointmentResponse(a))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	a, err := h.service.Get(r.Context(), middleware.GetSession(r.Context()), id)
	if err != nil {
		core.Error(w, err, "appointment")
		return
	}

	core.OK(w, ToAppointmentResponse(a))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	var req UpdateAppointmentRequest
	if appErr := core.Bind(r, &req, h.validator); appErr != nil {
		core.JSONError(w, appErr)
		return
	}

	a, err := h.service.Update(r.Context(), middleware.GetSession(r.Context()), id, req)
	if err != nil {
		core.Error(w, err, "appointment")
		return
	}

	core.OK(w, ToAppointmentResponse(a))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetSession(r.Context()), id); err != nil {
		core.Error(w, err, "appointment")
		return
	}

	core.NoContent(w)
}
