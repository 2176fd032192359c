// AngelaMos | 2026
// repository.go

package patient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/dentflow/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, organizationID, id string) (*Patient, error)
	List(ctx context.Context, organizationID string, filter ListFilter, page core.Page) ([]Patient, int, error)
	Update(ctx context.Context, p *Patient) error
	SoftDelete(ctx context.Context, organizationID, id string) error
	Count(ctx context.Context, organizationID string) (int, error)
}

const patientColumns = `
	id, organization_id, name, email, phone, document, birth_date, notes,
	created_at, updated_at, deleted_at`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Patient) error {
	query := `
		INSERT INTO patients (
			id, organization_id, name, email, phone, document, birth_date, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.OrganizationID,
		p.Name,
		p.Email,
		p.Phone,
		p.Document,
		p.BirthDate,
		p.Notes,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create patient: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	organizationID, id string,
) (*Patient, error) {
	query := `SELECT ` + patientColumns + `
		FROM patients
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`

	var p Patient
	err := r.db.GetContext(ctx, &p, query, id, organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get patient: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}

	return &p, nil
}

func (r *repository) List(
	ctx context.Context,
	organizationID string,
	filter ListFilter,
	page core.Page,
) ([]Patient, int, error) {
	where := `WHERE organization_id = $1 AND deleted_at IS NULL`
	args := []any{organizationID}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		where += ` AND (name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2 OR document ILIKE $2)`
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM patients `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM patients %s ORDER BY name, id LIMIT $%d OFFSET $%d`,
		patientColumns, where, len(args)+1, len(args)+2)

	var patients []Patient
	if err := r.db.SelectContext(ctx, &patients, query,
		append(args, page.PageSize, page.Offset())...); err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}

	return patients, total, nil
}

func (r *repository) Update(ctx context.Context, p *Patient) error {
	query := `
		UPDATE patients
		SET name = $3, email = $4, phone = $5, document = $6,
			birth_date = $7, notes = $8, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &p.UpdatedAt, query,
		p.ID,
		p.OrganizationID,
		p.Name,
		p.Email,
		p.Phone,
		p.Document,
		p.BirthDate,
		p.Notes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update patient: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}

	return nil
}

func (r *repository) SoftDelete(ctx context.Context, organizationID, id string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE patients
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`,
		id, organizationID)
	return core.ExpectOne("delete patient", result, err)
}

func (r *repository) Count(ctx context.Context, organizationID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM patients WHERE organization_id = $1 AND deleted_at IS NULL`,
		organizationID)
	if err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}

	return count, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
