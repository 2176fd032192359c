// AngelaMos | 2026
// dto.go

package laboratory

import (
	"time"
)

type LaboratoryRequest struct {
	Name        string `json:"name"         validate:"required,min=2,max=160"`
	ContactName string `json:"contact_name" validate:"max=160"`
	Email       string `json:"email"        validate:"omitempty,email,max=255"`
	Phone       string `json:"phone"        validate:"max=32"`
	Address     string `json:"address"      validate:"max=500"`
	Active      *bool  `json:"active"`
}

type TechnicianRequest struct {
	LaboratoryID *string `json:"laboratory_id" validate:"omitempty,uuid"`
	Name         string  `json:"name"          validate:"required,min=2,max=160"`
	Email        string  `json:"email"         validate:"omitempty,email,max=255"`
	Phone        string  `json:"phone"         validate:"max=32"`
	Specialty    string  `json:"specialty"     validate:"max=120"`
	Active       *bool   `json:"active"`
}

type LaboratoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contact_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TechnicianResponse struct {
	ID           string    `json:"id"`
	LaboratoryID *string   `json:"laboratory_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Specialty    string    `json:"specialty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func ToLaboratoryResponse(l *Laboratory) LaboratoryResponse {
	return LaboratoryResponse{
		ID:          l.ID,
		Name:        l.Name,
		ContactName: l.ContactName,
		Email:       l.Email,
		Phone:       l.Phone,
		Address:     l.Address,
		Active:      l.Active,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func ToTechnicianResponse(t *Technician) TechnicianResponse {
	return TechnicianResponse{
		ID:           t.ID,
		LaboratoryID: t.LaboratoryID,
		Name:         t.Name,
		Email:        t.Email,
		Phone:        t.Phone,
		Specialty:    t.Specialty,
		Active:       t.Active,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
