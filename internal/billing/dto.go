// AngelaMos | 2026
// dto.go

package billing

import (
	"time"
)

type PlanFeatures struct {
	Agenda        string `json:"agenda"`
	CRM           string `json:"crm"`
	Prosthetics   bool   `json:"prosthetics"`
	AIDashboard   bool   `json:"ai_dashboard"`
	Multiclinic   bool   `json:"multiclinic"`
	WhatsappLimit *int   `json:"whatsapp_limit"`
}

type PlanResponse struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	PriceMonthlyCents int          `json:"price_monthly_cents"`
	PriceYearlyCents  int          `json:"price_yearly_cents"`
	MaxDentists       *int         `json:"max_dentists"`
	MaxClinics        *int         `json:"max_clinics"`
	Features          PlanFeatures `json:"features"`
}

type SubscriptionResponse struct {
	ID        string       `json:"id"`
	Cycle     string       `json:"cycle"`
	Status    string       `json:"status"`
	StartsAt  time.Time    `json:"starts_at"`
	EndsAt    *time.Time   `json:"ends_at"`
	Current   bool         `json:"current"`
	Plan      PlanResponse `json:"plan"`
	CreatedAt time.Time    `json:"created_at"`
}

type FeaturesResponse struct {
	Features map[string]Feature `json:"features"`
}

func ToPlanResponse(p *Plan) PlanResponse {
	return PlanResponse{
		ID:                p.ID,
		Name:              p.Name,
		PriceMonthlyCents: p.PriceMonthlyCents,
		PriceYearlyCents:  p.PriceYearlyCents,
		MaxDentists:       p.MaxDentists,
		MaxClinics:        p.MaxClinics,
		Features: PlanFeatures{
			Agenda:        p.AgendaLevel,
			CRM:           p.CRMLevel,
			Prosthetics:   p.ProstheticsEnabled,
			AIDashboard:   p.AIDashboardEnabled,
			Multiclinic:   p.MulticlinicEnabled,
			WhatsappLimit: p.WhatsappLimit,
		},
	}
}

func ToSubscriptionResponse(s *Subscription, now time.Time) SubscriptionResponse {
	return SubscriptionResponse{
		ID:        s.ID,
		Cycle:     s.Cycle,
		Status:    s.Status,
		StartsAt:  s.StartsAt,
		EndsAt:    s.EndsAt,
		Current:   s.IsCurrent(now),
		Plan:      ToPlanResponse(&s.Plan),
		CreatedAt: s.CreatedAt,
	}
}
