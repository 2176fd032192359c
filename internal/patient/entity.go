// AngelaMos | 2026
// entity.go

package patient

import (
	"time"
)

type Patient struct {
	ID             string     `db:"id"`
	OrganizationID string     `db:"organization_id"`
	Name           string     `db:"name"`
	Email          string     `db:"email"`
	Phone          string     `db:"phone"`
	Document       string     `db:"document"`
	BirthDate      *time.Time `db:"birth_date"`
	Notes          string     `db:"notes"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

type ListFilter struct {
	Search string
}
