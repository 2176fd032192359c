// AngelaMos | 2026
// repository.go

package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/dentflow/internal/core"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, organizationID, recipientID string, unreadOnly bool, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, organizationID, recipientID, id string) (*Notification, error)
	MarkAllRead(ctx context.Context, organizationID, recipientID string) (int64, error)
}

const notificationColumns = `
	id, organization_id, recipient_id, type, title, message, read, payload, created_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	payload := n.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	query := `
		INSERT INTO notifications (
			id, organization_id, recipient_id, type, title, message, payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &n.CreatedAt, query,
		n.ID,
		n.OrganizationID,
		n.RecipientID,
		n.Type,
		n.Title,
		n.Message,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	organizationID, recipientID string,
	unreadOnly bool,
	limit int,
) ([]Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE organization_id = $1 AND recipient_id = $2
			AND (NOT $3::boolean OR read = false)
		ORDER BY created_at DESC, id
		LIMIT $4`

	var out []Notification
	if err := r.db.SelectContext(ctx, &out, query,
		organizationID, recipientID, unreadOnly, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return out, nil
}

func (r *repository) MarkRead(
	ctx context.Context,
	organizationID, recipientID, id string,
) (*Notification, error) {
	query := `
		UPDATE notifications
		SET read = true
		WHERE id = $1 AND organization_id = $2 AND recipient_id = $3
		RETURNING ` + notificationColumns

	var n Notification
	err := r.db.GetContext(ctx, &n, query, id, organizationID, recipientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mark notification read: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}

	return &n, nil
}

func (r *repository) MarkAllRead(
	ctx context.Context,
	organizationID, recipientID string,
) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET read = true
		WHERE organization_id = $1 AND recipient_id = $2 AND read = false`,
		organizationID, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}

	return rows, nil
}
