// AngelaMos | 2026
// handler.go

package assistant

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:  service,
		validate: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router, gate func(http.Handler) http.Handler) {
	r.With(gate).Post("/assistant/chat", h.Chat)
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := core.Bind(r, &req, h.validate); err != nil {
		core.JSONError(w, err)
		return
	}

	reply, err := h.service.Chat(r.Context(), middleware.GetTenantID(r.Context()), req)
	if err != nil {
		core.Error(w, err, "assistant")
		return
	}

	core.OK(w, ChatResponse{
		Reply:   reply.Text,
		Source:  reply.Source,
		Summary: ToSummaryResponse(reply.Summary),
	})
}
