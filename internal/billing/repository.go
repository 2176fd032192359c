// AngelaMos | 2026
// repository.go

package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/dentflow/internal/core"
)

type Repository interface {
	ListPlans(ctx context.Context) ([]Plan, error)
	GetPlanByName(ctx context.Context, name string) (*Plan, error)
	GetByOrganization(ctx context.Context, organizationID string) (*Subscription, error)
	CreateSubscription(ctx context.Context, sub *Subscription) error
}

const planColumns = `id, name, price_monthly_cents, price_yearly_cents,
	max_dentists, max_clinics, agenda_level, crm_level, prosthetics_enabled,
	ai_dashboard_enabled, multiclinic_enabled, whatsapp_limit`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) ListPlans(ctx context.Context) ([]Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans ORDER BY price_monthly_cents`

	var plans []Plan
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	return plans, nil
}

func (r *repository) GetPlanByName(ctx context.Context, name string) (*Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE name = $1`

	var plan Plan
	err := r.db.GetContext(ctx, &plan, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan %s: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", name, err)
	}

	return &plan, nil
}

func (r *repository) GetByOrganization(
	ctx context.Context,
	organizationID string,
) (*Subscription, error) {
	query := `
		SELECT
			s.id, s.organization_id, s.plan_id, s.cycle, s.status,
			s.starts_at, s.ends_at, s.created_at, s.updated_at,
			p.id                   AS "plan.id",
			p.name                 AS "plan.name",
			p.price_monthly_cents  AS "plan.price_monthly_cents",
			p.price_yearly_cents   AS "plan.price_yearly_cents",
			p.max_dentists         AS "plan.max_dentists",
			p.max_clinics          AS "plan.max_clinics",
			p.agenda_level         AS "plan.agenda_level",
			p.crm_level            AS "plan.crm_level",
			p.prosthetics_enabled  AS "plan.prosthetics_enabled",
			p.ai_dashboard_enabled AS "plan.ai_dashboard_enabled",
			p.multiclinic_enabled  AS "plan.multiclinic_enabled",
			p.whatsapp_limit       AS "plan.whatsapp_limit"
		FROM subscriptions s
		JOIN plans p ON p.id = s.plan_id
		WHERE s.organization_id = $1`

	var sub Subscription
	err := r.db.GetContext(ctx, &sub, query, organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	return &sub, nil
}

func (r *repository) CreateSubscription(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, organization_id, plan_id, cycle, status, starts_at, ends_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		sub.ID,
		sub.OrganizationID,
		sub.PlanID,
		sub.Cycle,
		sub.Status,
		sub.StartsAt,
		sub.EndsAt,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create subscription: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create subscription: %w", err)
	}

	return nil
}
