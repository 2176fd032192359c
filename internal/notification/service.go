// AngelaMos | 2026
// service.go

package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/carterperez-dev/dentflow/internal/middleware"
)

const listLimit = 100

// Draft is a notification before it is stored.
type Draft struct {
	OrganizationID string
	RecipientID    string
	Type           string
	Title          string
	Message        string
	Payload        any
}

type Service struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// Notify stores the notification and publishes it. A publish failure is
// logged and does not fail the call.
func (s *Service) Notify(ctx context.Context, d Draft) (*Notification, error) {
	n := &Notification{
		ID:             uuid.New().String(),
		OrganizationID: d.OrganizationID,
		RecipientID:    d.RecipientID,
		Type:           d.Type,
		Title:          d.Title,
		Message:        d.Message,
	}

	if d.Payload != nil {
		data, err := json.Marshal(d.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal notification payload: %w", err)
		}
		n.Payload = data
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := Event{
			Type:         EventCreated,
			TenantID:     n.OrganizationID,
			RecipientID:  n.RecipientID,
			Notification: ToNotificationResponse(n),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("notification publish failed",
				"notification_id", n.ID,
				"recipient_id", n.RecipientID,
				"error", err,
			)
		}
	}

	return n, nil
}

func (s *Service) List(
	ctx context.Context,
	session *middleware.Session,
	unreadOnly bool,
) ([]Notification, error) {
	return s.repo.List(ctx, session.TenantID, session.UserID, unreadOnly, listLimit)
}

func (s *Service) MarkRead(
	ctx context.Context,
	session *middleware.Session,
	id string,
) (*Notification, error) {
	return s.repo.MarkRead(ctx, session.TenantID, session.UserID, id)
}

func (s *Service) MarkAllRead(ctx context.Context, session *middleware.Session) (int64, error) {
	return s.repo.MarkAllRead(ctx, session.TenantID, session.UserID)
}
