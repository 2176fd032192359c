// AngelaMos | 2026
// entity.go

package member

import (
	"time"
)

const (
	RoleAdmin        = "ADMIN"
	RoleDentist      = "DENTIST"
	RoleReceptionist = "RECEPTIONIST"
)

// ClinicalRoles may own appointments and prosthetic orders.
var ClinicalRoles = []string{RoleDentist, RoleAdmin}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDentist, RoleReceptionist:
		return true
	}
	return false
}

type Member struct {
	OrganizationID string    `db:"organization_id"`
	UserID         string    `db:"user_id"`
	Role           string    `db:"role"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Profile is a membership joined with the identity it points at.
type Profile struct {
	Member
	Email   string `db:"email"`
	Name    string `db:"name"`
	Pending bool   `db:"pending"`
}
