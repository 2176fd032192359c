// AngelaMos | 2026
// handler.go

package prosthetic

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

const multipartOverhead = 1 << 20

type Handler struct {
	service        *Service
	validator      *validator.Validate
	maxUploadBytes int64
}

func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Handler{
		service:        service,
		validator:      core.NewValidator(),
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes mounts the order routes behind gate, which is expected
// to be the plan feature check.
func (h *Handler) RegisterRoutes(r chi.Router, gate func(http.Handler) http.Handler) {
	r.Route("/prosthetic-orders", func(r chi.Router) {
		r.Use(gate)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Put("/{id}/status", h.UpdateStatus)
		r.Get("/{id}/events", h.Events)
		r.Get("/{id}/comments", h.Comments)
		r.Post("/{id}/comments", h.AddComment)
		r.Get("/{id}/attachments", h.Attachments)
		r.Post("/{id}/attachments", h.Upload)
	})
}

func orderID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return "", false
	}
	return id, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := core.ParsePage(r)
	filter := ListFilter{Status: Status(q.Get("status"))}

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

	orders, total, err := h.service.List(r.Context(), middleware.GetSession(r.Context()), filter, page)
	if err != nil {
		core.Error(w, err, "prosthetic order")
		return
	}

	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, ToOrderResponse(&orders[i]))
	}

	core.Paginated(w, items, page.Page, page.PageSize, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	o, err := h.service.Create(r.Context(), middleware.GetSession(r.Context()), req)
	if err != nil {
		core.Error(w, err, "prosthetic order")
		return
	}

	core.Created(w, ToOrderResponse(o))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	o, err := h.service.Get(r.Context(), middleware.GetSession(r.Context()), id)
	if err != nil {
		core.Error(w, err, "prosthetic order")
		return
	}

	core.OK(w, ToOrderResponse(o))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	o, err := h.service.Update(r.Context(), middleware.GetSession(r.Context()), id, req)
	if err != nil {
		core.Error(w, err, "prosthetic order")
		return
	}

	core.OK(w, ToOrderResponse(o))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	o, err := h.service.UpdateStatus(r.Context(), middleware.GetSession(r.Context()),
		id, Status(req.Status), req.Notes)
	if err != nil {
		core.Error(w, err, "prosthetic order")
		return
	}

	core.OK(w, ToOrderResponse(o))
}

func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	events, err := h.service.Events(r.Context(), middleware.GetSession(r.Context()), id)
	if err != nil {
		core.Error(w, err, "prosthetic order")
		return
	}

	out := make([]EventResponse, 0, len(events))
	for i := range events {
		out = append(out, ToEventResponse(&events[i]))
	}

	core.OK(w, out)
}

func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	comments, err := h.service.Comments(r.Context(), middleware.GetSession(r.Context()), id)
	if err != nil {
		core.Error(w, err, "prosthetic order")
		return
	}

	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, ToCommentResponse(&comments[i]))
	}

	core.OK(w, out)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	c, err := h.service.AddComment(r.Context(), middleware.GetSession(r.Context()), id, req.Body)
	if err != nil {
		core.Error(w, err, "prosthetic order")
		return
	}

	core.Created(w, ToCommentResponse(c))
}

func (h *Handler) Attachments(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	links, err := h.service.Attachments(r.Context(), middleware.GetSession(r.Context()), id)
	if err != nil {
		core.Error(w, err, "prosthetic order")
		return
	}

	out := make([]AttachmentResponse, 0, len(links))
	for i := range links {
		out = append(out, ToAttachmentResponse(&links[i].Attachment, links[i].URL))
	}

	core.OK(w, out)
}

// Upload takes a multipart form with a single "file" part.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.tooLarge(w)
			return
		}
		core.BadRequest(w, "a multipart file field named file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		h.tooLarge(w)
		return
	}

	a, err := h.service.AddAttachment(r.Context(), middleware.GetSession(r.Context()), id, Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		core.Error(w, err, "prosthetic order")
		return
	}

	core.Created(w, ToAttachmentResponse(a, ""))
}

// tooLarge reports an oversized upload as a validation failure.
func (h *Handler) tooLarge(w http.ResponseWriter) {
	core.BadRequest(w, fmt.Sprintf("file exceeds the %d byte upload limit", h.maxUploadBytes))
}
