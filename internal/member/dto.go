// AngelaMos | 2026
// dto.go

package member

import (
	"time"
)

type InviteRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Role  string `json:"role"  validate:"required,oneof=ADMIN DENTIST RECEPTIONIST"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN DENTIST RECEPTIONIST"`
}

type MemberResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	Pending   bool      `json:"pending"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToMemberResponse(m *Member) MemberResponse {
	return MemberResponse{
		UserID:    m.UserID,
		Role:      m.Role,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func ToProfileResponse(p *Profile) MemberResponse {
	resp := ToMemberResponse(&p.Member)
	resp.Email = p.Email
	resp.Name = p.Name
	resp.Pending = p.Pending
	return resp
}
