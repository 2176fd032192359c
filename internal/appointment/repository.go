// AngelaMos | 2026
// repository.go

package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/dentflow/internal/core"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, organizationID, id string) (*Appointment, error)
	List(ctx context.Context, organizationID string, filter ListFilter) ([]Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, organizationID, id string) error
	CountBetween(ctx context.Context, organizationID string, from, to time.Time) (int, error)
	CountByStatus(ctx context.Context, organizationID, status string) (int, error)
	RevenueBetween(ctx context.Context, organizationID string, from, to time.Time) (int64, error)
}

const appointmentSelect = `
	SELECT
		a.id, a.organization_id, a.patient_id, a.dentist_id, a.starts_at,
		a.ends_at, a.status, a.procedure, a.price_cents, a.notes,
		a.created_at, a.updated_at, p.name AS patient_name
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointments (
			id, organization_id, patient_id, dentist_id, starts_at, ends_at,
			status, procedure, price_cents, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		a.ID,
		a.OrganizationID,
		a.PatientID,
		a.DentistID,
		a.StartsAt,
		a.EndsAt,
		a.Status,
		a.Procedure,
		a.PriceCents,
		a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if core.IsForeignKeyError(err) {
		return fmt.Errorf("create appointment: patient or dentist no longer exists: %w", core.ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	organizationID, id string,
) (*Appointment, error) {
	query := appointmentSelect + `
		WHERE a.id = $1 AND a.organization_id = $2`

	var a Appointment
	err := r.db.GetContext(ctx, &a, query, id, organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get appointment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	return &a, nil
}

func (r *repository) List(
	ctx context.Context,
	organizationID string,
	filter ListFilter,
) ([]Appointment, error) {
	query := appointmentSelect + ` WHERE a.organization_id = $1`
	args := []any{organizationID}

	add := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+clause, len(args))
	}

	if filter.From != nil {
		add("a.starts_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("a.starts_at < $%d", *filter.To)
	}
	if filter.Status != "" {
		add("a.status = $%d", filter.Status)
	}
	if filter.DentistID != "" {
		add("a.dentist_id = $%d", filter.DentistID)
	}
	if filter.PatientID != "" {
		add("a.patient_id = $%d", filter.PatientID)
	}

	query += ` ORDER BY a.starts_at, a.id`

	var out []Appointment
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	return out, nil
}

func (r *repository) Update(ctx context.Context, a *Appointment) error {
	query := `
		UPDATE appointments
		SET patient_id = $3, dentist_id = $4, starts_at = $5, ends_at = $6,
			status = $7, procedure = $8, price_cents = $9, notes = $10,
			updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &a.UpdatedAt, query,
		a.ID,
		a.OrganizationID,
		a.PatientID,
		a.DentistID,
		a.StartsAt,
		a.EndsAt,
		a.Status,
		a.Procedure,
		a.PriceCents,
		a.Notes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update appointment: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, organizationID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM appointments WHERE id = $1 AND organization_id = $2`,
		id, organizationID)
	return core.ExpectOne("delete appointment", result, err)
}

func (r *repository) CountBetween(
	ctx context.Context,
	organizationID string,
	from, to time.Time,
) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM appointments
		WHERE organization_id = $1 AND starts_at >= $2 AND starts_at < $3`,
		organizationID, from, to)
	if err != nil {
		return 0, fmt.Errorf("count appointments: %w", err)
	}

	return count, nil
}

func (r *repository) CountByStatus(
	ctx context.Context,
	organizationID, status string,
) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM appointments
		WHERE organization_id = $1 AND status = $2`,
		organizationID, status)
	if err != nil {
		return 0, fmt.Errorf("count appointments by status: %w", err)
	}

	return count, nil
}

// RevenueBetween sums the price of completed appointments starting in
// [from, to).
func (r *repository) RevenueBetween(
	ctx context.Context,
	organizationID string,
	from, to time.Time,
) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(price_cents), 0) FROM appointments
		WHERE organization_id = $1 AND status = $2
			AND starts_at >= $3 AND starts_at < $4`,
		organizationID, StatusCompleted, from, to)
	if err != nil {
		return 0, fmt.Errorf("sum revenue: %w", err)
	}

	return total, nil
}
