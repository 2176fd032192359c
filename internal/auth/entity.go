// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshToken is one link of a rotation family. Only the SHA-256 of the
// opaque token is stored.
type RefreshToken struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	TokenHash    string     `db:"token_hash"`
	FamilyID     string     `db:"family_id"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	IsUsed       bool       `db:"is_used"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
	UserAgent    string     `db:"user_agent"`
	IPAddress    string     `db:"ip_address"`
}

type TokenState int

const (
	TokenActive TokenState = iota
	// TokenUsed means the token was already rotated. Presenting it again
	// is treated as theft of the family.
	TokenUsed
	TokenRevoked
	TokenExpired
)

// State checks used before revoked before expired, so a replayed token is
// reported as reuse even after the family has expired.
func (t *RefreshToken) State(now time.Time) TokenState {
	switch {
	case t.IsUsed:
		return TokenUsed
	case t.RevokedAt != nil:
		return TokenRevoked
	case !now.Before(t.ExpiresAt):
		return TokenExpired
	default:
		return TokenActive
	}
}

// UserInfo is the identity view auth needs from the user store.
type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	TokenVersion int
	CreatedAt    time.Time
}

// HasPassword is false while an invitation is still pending.
func (u *UserInfo) HasPassword() bool {
	return u.PasswordHash != ""
}

// Organization is the tenant created at signup, as returned by the
// provisioner.
type Organization struct {
	ID    string
	Name  string
	Slug  string
	TaxID string
}
