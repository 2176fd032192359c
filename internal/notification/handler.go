// AngelaMos | 2026
// handler.go

package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

const writeTimeout = 10 * time.Second

type Handler struct {
	service        *Service
	hub            *Hub
	originPatterns []string
	logger         *slog.Logger
}

// NewHandler takes the CORS origins as websocket origin patterns.
func NewHandler(service *Service, hub *Hub, originPatterns []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:        service,
		hub:            hub,
		originPatterns: originPatterns,
		logger:         logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/stream", h.Stream)
		r.Put("/read-all", h.MarkAllRead)
		r.Put("/{id}", h.MarkRead)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	unread := r.URL.Query().Get("unread") == "true"

	items, err := h.service.List(r.Context(), middleware.GetSession(r.Context()), unread)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	out := make([]NotificationResponse, 0, len(items))
	for i := range items {
		out = append(out, ToNotificationResponse(&items[i]))
	}

	core.OK(w, out)
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	n, err := h.service.MarkRead(r.Context(), middleware.GetSession(r.Context()), id)
	if err != nil {
		core.Error(w, err, "notification")
		return
	}

	core.OK(w, ToNotificationResponse(n))
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.MarkAllRead(r.Context(), middleware.GetSession(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ReadAllResponse{Updated: updated})
}

// Stream upgrades to a websocket and pushes the caller's events until the
// client goes away.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", "user_id", session.UserID, "error", err)
		return
	}
	defer conn.CloseNow()

	events, cancel := h.hub.Subscribe(session.UserID)
	defer cancel()

	ctx := conn.CloseRead(r.Context())

	h.logger.Debug("notification stream opened", "user_id", session.UserID)

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			if e.TenantID != session.TenantID {
				continue
			}
			if err := h.write(ctx, conn, e); err != nil {
				h.logger.Debug("notification stream closed", "user_id", session.UserID, "error", err)
				return
			}
		}
	}
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return conn.Write(ctx, websocket.MessageText, data)
}
