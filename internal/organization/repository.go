// AngelaMos | 2026
// repository.go

package organization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/dentflow/internal/core"
)

type Repository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, org *Organization) error
}

const organizationColumns = `id, name, tax_id, slug, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, org *Organization) error {
	query := `
		INSERT INTO organizations (id, name, tax_id, slug)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, org.ID, org.Name, org.TaxID, org.Slug).
		Scan(&org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create organization: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create organization: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`

	var org Organization
	err := r.db.GetContext(ctx, &org, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get organization: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get organization: %w", err)
	}

	return &org, nil
}

func (r *repository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var taken bool
	err := r.db.GetContext(ctx, &taken,
		`SELECT EXISTS (SELECT 1 FROM organizations WHERE slug = $1)`, slug)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}

	return taken, nil
}

func (r *repository) Update(ctx context.Context, org *Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, tax_id = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &org.UpdatedAt, query, org.ID, org.Name, org.TaxID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update organization: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update organization: %w", err)
	}

	return nil
}
