// AngelaMos | 2026
// dto.go

package patient

import (
	"time"
)

const dateLayout = "2006-01-02"

type CreatePatientRequest struct {
	Name      string `json:"name"       validate:"required,min=2,max=160"`
	Email     string `json:"email"      validate:"omitempty,email,max=255"`
	Phone     string `json:"phone"      validate:"omitempty,max=32"`
	Document  string `json:"document"   validate:"omitempty,max=32"`
	BirthDate string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Notes     string `json:"notes"      validate:"max=4000"`
}

type UpdatePatientRequest struct {
	Name      *string `json:"name"       validate:"omitempty,min=2,max=160"`
	Email     *string `json:"email"      validate:"omitempty,email,max=255"`
	Phone     *string `json:"phone"      validate:"omitempty,max=32"`
	Document  *string `json:"document"   validate:"omitempty,max=32"`
	BirthDate *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Notes     *string `json:"notes"      validate:"omitempty,max=4000"`
}

type PatientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Document  string    `json:"document"`
	BirthDate *string   `json:"birth_date"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToPatientResponse(p *Patient) PatientResponse {
	resp := PatientResponse{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Phone:     p.Phone,
		Document:  p.Document,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.BirthDate != nil {
		d := p.BirthDate.Format(dateLayout)
		resp.BirthDate = &d
	}
	return resp
}

// parseDate treats an empty string as a cleared date.
func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
