// AngelaMos | 2026
// repository.go

package laboratory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/dentflow/internal/core"
)

type Repository interface {
	CreateLab(ctx context.Context, lab *Laboratory) error
	GetLab(ctx context.Context, organizationID, id string) (*Laboratory, error)
	ListLabs(ctx context.Context, organizationID string, activeOnly bool) ([]Laboratory, error)
	UpdateLab(ctx context.Context, lab *Laboratory) error

	CreateTechnician(ctx context.Context, t *Technician) error
	GetTechnician(ctx context.Context, organizationID, id string) (*Technician, error)
	ListTechnicians(ctx context.Context, organizationID string, activeOnly bool) ([]Technician, error)
	UpdateTechnician(ctx context.Context, t *Technician) error
}

const (
	labColumns = `
		id, organization_id, name, contact_name, email, phone, address,
		active, created_at, updated_at`
	technicianColumns = `
		id, organization_id, laboratory_id, name, email, phone, specialty,
		active, created_at, updated_at`
)

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) CreateLab(ctx context.Context, lab *Laboratory) error {
	query := `
		INSERT INTO laboratories (
			id, organization_id, name, contact_name, email, phone, address, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		lab.ID,
		lab.OrganizationID,
		lab.Name,
		lab.ContactName,
		lab.Email,
		lab.Phone,
		lab.Address,
		lab.Active,
	).Scan(&lab.CreatedAt, &lab.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create laboratory: %w", err)
	}

	return nil
}

func (r *repository) GetLab(
	ctx context.Context,
	organizationID, id string,
) (*Laboratory, error) {
	query := `SELECT ` + labColumns + `
		FROM laboratories
		WHERE id = $1 AND organization_id = $2`

	var lab Laboratory
	err := r.db.GetContext(ctx, &lab, query, id, organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get laboratory: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get laboratory: %w", err)
	}

	return &lab, nil
}

func (r *repository) ListLabs(
	ctx context.Context,
	organizationID string,
	activeOnly bool,
) ([]Laboratory, error) {
	query := `SELECT ` + labColumns + `
		FROM laboratories
		WHERE organization_id = $1 AND (NOT $2::boolean OR active)
		ORDER BY name, id`

	var labs []Laboratory
	if err := r.db.SelectContext(ctx, &labs, query, organizationID, activeOnly); err != nil {
		return nil, fmt.Errorf("list laboratories: %w", err)
	}

	return labs, nil
}

func (r *repository) UpdateLab(ctx context.Context, lab *Laboratory) error {
	query := `
		UPDATE laboratories
		SET name = $3, contact_name = $4, email = $5, phone = $6,
			address = $7, active = $8, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &lab.UpdatedAt, query,
		lab.ID,
		lab.OrganizationID,
		lab.Name,
		lab.ContactName,
		lab.Email,
		lab.Phone,
		lab.Address,
		lab.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update laboratory: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update laboratory: %w", err)
	}

	return nil
}

func (r *repository) CreateTechnician(ctx context.Context, t *Technician) error {
	query := `
		INSERT INTO technicians (
			id, organization_id, laboratory_id, name, email, phone, specialty, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		t.ID,
		t.OrganizationID,
		t.LaboratoryID,
		t.Name,
		t.Email,
		t.Phone,
		t.Specialty,
		t.Active,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create technician: %w", err)
	}

	return nil
}

func (r *repository) GetTechnician(
	ctx context.Context,
	organizationID, id string,
) (*Technician, error) {
	query := `SELECT ` + technicianColumns + `
		FROM technicians
		WHERE id = $1 AND organization_id = $2`

	var t Technician
	err := r.db.GetContext(ctx, &t, query, id, organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get technician: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get technician: %w", err)
	}

	return &t, nil
}

func (r *repository) ListTechnicians(
	ctx context.Context,
	organizationID string,
	activeOnly bool,
) ([]Technician, error) {
	query := `SELECT ` + technicianColumns + `
		FROM technicians
		WHERE organization_id = $1 AND (NOT $2::boolean OR active)
		ORDER BY name, id`

	var out []Technician
	if err := r.db.SelectContext(ctx, &out, query, organizationID, activeOnly); err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}

	return out, nil
}

func (r *repository) UpdateTechnician(ctx context.Context, t *Technician) error {
	query := `
		UPDATE technicians
		SET laboratory_id = $3, name = $4, email = $5, phone = $6,
			specialty = $7, active = $8, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &t.UpdatedAt, query,
		t.ID,
		t.OrganizationID,
		t.LaboratoryID,
		t.Name,
		t.Email,
		t.Phone,
		t.Specialty,
		t.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update technician: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update technician: %w", err)
	}

	return nil
}
