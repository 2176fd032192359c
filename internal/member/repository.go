// AngelaMos | 2026
// repository.go

package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/dentflow/internal/core"
)

type Repository interface {
	Get(ctx context.Context, organizationID, userID string) (*Member, error)
	Oldest(ctx context.Context, userID string) (*Member, error)
	List(ctx context.Context, organizationID string) ([]Profile, error)
	Upsert(ctx context.Context, m *Member) error
	UpdateRole(ctx context.Context, m *Member) error
	Delete(ctx context.Context, organizationID, userID string) error
	CountByRole(ctx context.Context, organizationID, role string) (int, error)
	OrganizationName(ctx context.Context, organizationID string) (string, error)
}

const memberColumns = `organization_id, user_id, role, created_at, updated_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Get(
	ctx context.Context,
	organizationID, userID string,
) (*Member, error) {
	query := `SELECT ` + memberColumns + `
		FROM organization_members
		WHERE organization_id = $1 AND user_id = $2`

	var m Member
	err := r.db.GetContext(ctx, &m, query, organizationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get member: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}

	return &m, nil
}

func (r *repository) Oldest(ctx context.Context, userID string) (*Member, error) {
	query := `SELECT ` + memberColumns + `
		FROM organization_members
		WHERE user_id = $1
		ORDER BY created_at, organization_id
		LIMIT 1`

	var m Member
	err := r.db.GetContext(ctx, &m, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("oldest membership: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("oldest membership: %w", err)
	}

	return &m, nil
}

func (r *repository) List(
	ctx context.Context,
	organizationID string,
) ([]Profile, error) {
	query := `
		SELECT
			m.organization_id, m.user_id, m.role, m.created_at, m.updated_at,
			u.email, u.name, (u.password_hash = '') AS pending
		FROM organization_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1
		ORDER BY m.created_at`

	var out []Profile
	if err := r.db.SelectContext(ctx, &out, query, organizationID); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	return out, nil
}

// Upsert links a user to an organization, overwriting the role when the
// membership already exists.
func (r *repository) Upsert(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (organization_id, user_id)
		DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, m.OrganizationID, m.UserID, m.Role).
		Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}

	return nil
}

func (r *repository) UpdateRole(ctx context.Context, m *Member) error {
	query := `
		UPDATE organization_members
		SET role = $3, updated_at = NOW()
		WHERE organization_id = $1 AND user_id = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &m.UpdatedAt, query, m.OrganizationID, m.UserID, m.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update member role: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, organizationID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM organization_members WHERE organization_id = $1 AND user_id = $2`,
		organizationID, userID)
	return core.ExpectOne("delete member", result, err)
}

func (r *repository) CountByRole(
	ctx context.Context,
	organizationID, role string,
) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM organization_members WHERE organization_id = $1 AND role = $2`,
		organizationID, role)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}

	return count, nil
}

func (r *repository) OrganizationName(
	ctx context.Context,
	organizationID string,
) (string, error) {
	var name string
	err := r.db.GetContext(ctx, &name,
		`SELECT name FROM organizations WHERE id = $1`, organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("organization name: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("organization name: %w", err)
	}

	return name, nil
}
