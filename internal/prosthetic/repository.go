// AngelaMos | 2026
// repository.go

package prosthetic

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/dentflow/internal/core"
)

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, organizationID, id string) (*Order, error)
	List(ctx context.Context, organizationID string, filter ListFilter, page core.Page) ([]Order, int, error)
	Update(ctx context.Context, o *Order) error
	SetStatus(ctx context.Context, o *Order) error

	InsertEvent(ctx context.Context, e *Event) error
	ListEvents(ctx context.Context, orderID string) ([]Event, error)

	CreateComment(ctx context.Context, c *Comment) error
	ListComments(ctx context.Context, orderID string) ([]Comment, error)

	CreateAttachment(ctx context.Context, a *Attachment) error
	ListAttachments(ctx context.Context, orderID string) ([]Attachment, error)
}

const orderSelect = `
	SELECT
		o.id, o.organization_id, o.patient_id, o.dentist_id, o.laboratory_id,
		o.technician_id, o.work_type, o.material, o.shade, o.urgency,
		o.deadline, o.status, o.notes, o.created_at, o.updated_at,
		p.name AS patient_name
	FROM prosthetic_orders o
	JOIN patients p ON p.id = o.patient_id`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	query := `
		INSERT INTO prosthetic_orders (
			id, organization_id, patient_id, dentist_id, laboratory_id,
			technician_id, work_type, material, shade, urgency, deadline,
			status, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		o.ID,
		o.OrganizationID,
		o.PatientID,
		o.DentistID,
		o.LaboratoryID,
		o.TechnicianID,
		o.WorkType,
		o.Material,
		o.Shade,
		o.Urgency,
		o.Deadline,
		o.Status,
		o.Notes,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if core.IsForeignKeyError(err) {
		return fmt.Errorf("create prosthetic order: referenced record no longer exists: %w", core.ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("create prosthetic order: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	organizationID, id string,
) (*Order, error) {
	query := orderSelect + ` WHERE o.id = $1 AND o.organization_id = $2`

	var o Order
	err := r.db.GetContext(ctx, &o, query, id, organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get prosthetic order: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get prosthetic order: %w", err)
	}

	return &o, nil
}

func (r *repository) List(
	ctx context.Context,
	organizationID string,
	filter ListFilter,
	page core.Page,
) ([]Order, int, error) {
	where := ` WHERE o.organization_id = $1`
	args := []any{organizationID}

	add := func(clause string, v any) {
		args = append(args, v)
		where += fmt.Sprintf(" AND "+clause, len(args))
	}

	if filter.Status != "" {
		add("o.status = $%d", filter.Status)
	}
	if filter.DentistID != "" {
		add("o.dentist_id = $%d", filter.DentistID)
	}
	if filter.PatientID != "" {
		add("o.patient_id = $%d", filter.PatientID)
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM prosthetic_orders o`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count prosthetic orders: %w", err)
	}

	query := fmt.Sprintf("%s%s ORDER BY o.created_at DESC, o.id LIMIT $%d OFFSET $%d",
		orderSelect, where, len(args)+1, len(args)+2)

	var out []Order
	if err := r.db.SelectContext(ctx, &out, query,
		append(args, page.PageSize, page.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("list prosthetic orders: %w", err)
	}

	return out, total, nil
}

func (r *repository) Update(ctx context.Context, o *Order) error {
	query := `
		UPDATE prosthetic_orders
		SET dentist_id = $3, laboratory_id = $4, technician_id = $5,
			work_type = $6, material = $7, shade = $8, urgency = $9,
			deadline = $10, notes = $11, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &o.UpdatedAt, query,
		o.ID,
		o.OrganizationID,
		o.DentistID,
		o.LaboratoryID,
		o.TechnicianID,
		o.WorkType,
		o.Material,
		o.Shade,
		o.Urgency,
		o.Deadline,
		o.Notes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update prosthetic order: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update prosthetic order: %w", err)
	}

	return nil
}

func (r *repository) SetStatus(ctx context.Context, o *Order) error {
	query := `
		UPDATE prosthetic_orders
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &o.UpdatedAt, query, o.ID, o.OrganizationID, o.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("set prosthetic order status: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("set prosthetic order status: %w", err)
	}

	return nil
}

func (r *repository) InsertEvent(ctx context.Context, e *Event) error {
	query := `
		INSERT INTO prosthetic_order_events (
			id, order_id, from_status, to_status, actor_id, actor_role, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &e.CreatedAt, query,
		e.ID, e.OrderID, e.FromStatus, e.ToStatus, e.ActorID, e.ActorRole, e.Notes)
	if err != nil {
		return fmt.Errorf("insert prosthetic order event: %w", err)
	}

	return nil
}

func (r *repository) ListEvents(ctx context.Context, orderID string) ([]Event, error) {
	var out []Event
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, order_id, from_status, to_status, actor_id, actor_role, notes, created_at
		FROM prosthetic_order_events
		WHERE order_id = $1
		ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list prosthetic order events: %w", err)
	}

	return out, nil
}

func (r *repository) CreateComment(ctx context.Context, c *Comment) error {
	err := r.db.GetContext(ctx, &c.CreatedAt, `
		INSERT INTO prosthetic_order_comments (id, order_id, author_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		c.ID, c.OrderID, c.AuthorID, c.Body)
	if err != nil {
		return fmt.Errorf("create prosthetic order comment: %w", err)
	}

	return nil
}

func (r *repository) ListComments(ctx context.Context, orderID string) ([]Comment, error) {
	var out []Comment
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, order_id, author_id, body, created_at
		FROM prosthetic_order_comments
		WHERE order_id = $1
		ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list prosthetic order comments: %w", err)
	}

	return out, nil
}

func (r *repository) CreateAttachment(ctx context.Context, a *Attachment) error {
	err := r.db.GetContext(ctx, &a.CreatedAt, `
		INSERT INTO prosthetic_order_attachments (
			id, order_id, uploader_id, file_name, content_type, size_bytes, storage_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		a.ID, a.OrderID, a.UploaderID, a.FileName, a.ContentType, a.SizeBytes, a.StorageKey)
	if err != nil {
		return fmt.Errorf("create prosthetic order attachment: %w", err)
	}

	return nil
}

func (r *repository) ListAttachments(ctx context.Context, orderID string) ([]Attachment, error) {
	var out []Attachment
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, order_id, uploader_id, file_name, content_type, size_bytes, storage_key, created_at
		FROM prosthetic_order_attachments
		WHERE order_id = $1
		ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list prosthetic order attachments: %w", err)
	}

	return out, nil
}
