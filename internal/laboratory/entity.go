// AngelaMos | 2026
// entity.go

package laboratory

import (
	"time"
)

type Laboratory struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	Name           string    `db:"name"`
	ContactName    string    `db:"contact_name"`
	Email          string    `db:"email"`
	Phone          string    `db:"phone"`
	Address        string    `db:"address"`
	Active         bool      `db:"active"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Technician is a prosthetic technician, optionally tied to a laboratory.
type Technician struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	LaboratoryID   *string   `db:"laboratory_id"`
	Name           string    `db:"name"`
	Email          string    `db:"email"`
	Phone          string    `db:"phone"`
	Specialty      string    `db:"specialty"`
	Active         bool      `db:"active"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}
