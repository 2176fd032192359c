// AngelaMos | 2026
// entity.go

package appointment

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
	StatusNoShow    = "no_show"
)

var Statuses = []string{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
	StatusCanceled,
	StatusNoShow,
}

// ValidStatus checks membership in the enum only; any status may follow
// any other.
func ValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	PatientID      string    `db:"patient_id"`
	DentistID      string    `db:"dentist_id"`
	StartsAt       time.Time `db:"starts_at"`
	EndsAt         time.Time `db:"ends_at"`
	Status         string    `db:"status"`
	Procedure      string    `db:"procedure"`
	PriceCents     int       `db:"price_cents"`
	Notes          string    `db:"notes"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	PatientName    string    `db:"patient_name"`
}

type ListFilter struct {
	From      *time.Time
	To        *time.Time
	Status    string
	DentistID string
	PatientID string
}
