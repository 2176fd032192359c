// AngelaMos | 2026
// dto.go

package appointment

import (
	"time"
)

type CreateAppointmentRequest struct {
	PatientID  string    `json:"patient_id"  validate:"required,uuid"`
	DentistID  string    `json:"dentist_id"  validate:"required,uuid"`
	StartsAt   time.Time `json:"starts_at"   validate:"required"`
	EndsAt     time.Time `json:"ends_at"     validate:"required,gtfield=StartsAt"`
	Status     string    `json:"status"      validate:"omitempty,oneof=pending confirmed completed canceled no_show"`
	Procedure  string    `json:"procedure"   validate:"max=200"`
	PriceCents int       `json:"price_cents" validate:"min=0"`
	Notes      string    `json:"notes"       validate:"max=4000"`
}

type UpdateAppointmentRequest struct {
	PatientID  *string    `json:"patient_id"  validate:"omitempty,uuid"`
	DentistID  *string    `json:"dentist_id"  validate:"omitempty,uuid"`
	StartsAt   *time.Time `json:"starts_at"`
	EndsAt     *time.Time `json:"ends_at"`
	Status     *string    `json:"status"      validate:"omitempty,oneof=pending confirmed completed canceled no_show"`
	Procedure  *string    `json:"procedure"   validate:"omitempty,max=200"`
	PriceCents *int       `json:"price_cents" validate:"omitempty,min=0"`
	Notes      *string    `json:"notes"       validate:"omitempty,max=4000"`
}

type AppointmentResponse struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	DentistID   string    `json:"dentist_id"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Status      string    `json:"status"`
	Procedure   string    `json:"procedure"`
	PriceCents  int       `json:"price_cents"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToAppointmentResponse(a *Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		PatientID:   a.PatientID,
		PatientName: a.PatientName,
		DentistID:   a.DentistID,
		StartsAt:    a.StartsAt,
		EndsAt:      a.EndsAt,
		Status:      a.Status,
		Procedure:   a.Procedure,
		PriceCents:  a.PriceCents,
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
