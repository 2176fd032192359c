// AngelaMos | 2026
// entity.go

package notification

import (
	"time"
)

const TypeProstheticReady = "prosthetic_ready"

type Notification struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	RecipientID    string    `db:"recipient_id"`
	Type           string    `db:"type"`
	Title          string    `db:"title"`
	Message        string    `db:"message"`
	Read           bool      `db:"read"`
	Payload        []byte    `db:"payload"`
	CreatedAt      time.Time `db:"created_at"`
}
