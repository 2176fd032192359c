// AngelaMos | 2026
// dto.go

package organization

import (
	"time"
)

type UpdateOrganizationRequest struct {
	Name  *string `json:"name"   validate:"omitempty,min=2,max=120"`
	TaxID *string `json:"tax_id" validate:"omitempty,max=32"`
}

type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToOrganizationResponse(o *Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        o.ID,
		Name:      o.Name,
		TaxID:     o.TaxID,
		Slug:      o.Slug,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
