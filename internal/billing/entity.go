// AngelaMos | 2026
// entity.go

package billing

import (
	"time"
)

const (
	PlanEssential    = "ESSENTIAL"
	PlanProfessional = "PROFESSIONAL"
	PlanEnterprise   = "ENTERPRISE"
)

const (
	CycleMonthly = "monthly"
	CycleYearly  = "yearly"
)

const (
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
	StatusTrial    = "trial"
)

type Plan struct {
	ID                 string `db:"id"`
	Name               string `db:"name"`
	PriceMonthlyCents  int    `db:"price_monthly_cents"`
	PriceYearlyCents   int    `db:"price_yearly_cents"`
	MaxDentists        *int   `db:"max_dentists"`
	MaxClinics         *int   `db:"max_clinics"`
	AgendaLevel        string `db:"agenda_level"`
	CRMLevel           string `db:"crm_level"`
	ProstheticsEnabled bool   `db:"prosthetics_enabled"`
	AIDashboardEnabled bool   `db:"ai_dashboard_enabled"`
	MulticlinicEnabled bool   `db:"multiclinic_enabled"`
	WhatsappLimit      *int   `db:"whatsapp_limit"`
}

// AllowsDentists reports whether a tenant on this plan may hold count
// dentists. A nil cap is unlimited.
func (p *Plan) AllowsDentists(count int) bool {
	return p.MaxDentists == nil || count <= *p.MaxDentists
}

type Subscription struct {
	ID             string     `db:"id"`
	OrganizationID string     `db:"organization_id"`
	PlanID         string     `db:"plan_id"`
	Cycle          string     `db:"cycle"`
	Status         string     `db:"status"`
	StartsAt       time.Time  `db:"starts_at"`
	EndsAt         *time.Time `db:"ends_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	Plan           Plan       `db:"plan"`
}

// IsCurrent is true for active, trial and past_due subscriptions whose end
// date is unset or still ahead of now.
func (s *Subscription) IsCurrent(now time.Time) bool {
	switch s.Status {
	case StatusActive, StatusTrial, StatusPastDue:
	default:
		return false
	}
	return s.EndsAt == nil || s.EndsAt.After(now)
}
