// AngelaMos | 2026
// user.go

package user

import (
	"strings"
	"time"
)

const (
	StatusActive  = "active"
	StatusInvited = "invited"
)

// User is a login identity. It carries no tenant; clinic access comes from
// member rows.
type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Name         string     `db:"name"`
	TokenVersion int        `db:"token_version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

// Status is invited until the invitation is accepted and a password set.
func (u *User) Status() string {
	if u.PasswordHash == "" {
		return StatusInvited
	}
	return StatusActive
}

// DisplayName falls back to the mailbox part of the email for identities
// that never chose a name.
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

type UpdateProfileRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
}

type ProfileResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewProfileResponse(u *User) ProfileResponse {
	return ProfileResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		DisplayName: u.DisplayName(),
		Status:      u.Status(),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
