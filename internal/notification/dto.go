// AngelaMos | 2026
// dto.go

package notification

import (
	"encoding/json"
	"time"
)

type NotificationResponse struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Read      bool            `json:"read"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type ReadAllResponse struct {
	Updated int64 `json:"updated"`
}

// Event is what the stream endpoint and the broker carry.
type Event struct {
	Type         string               `json:"type"`
	TenantID     string               `json:"tenant_id"`
	RecipientID  string               `json:"recipient_id"`
	Notification NotificationResponse `json:"notification"`
}

const EventCreated = "notification.created"

func ToNotificationResponse(n *Notification) NotificationResponse {
	payload := json.RawMessage(n.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		Payload:   payload,
		CreatedAt: n.CreatedAt,
	}
}
