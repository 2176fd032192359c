// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/dentflow/internal/core"
)

type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	MarkAsUsed(ctx context.Context, id, replacedByID string) error
	RevokeByID(ctx context.Context, id string) error
	RevokeByFamilyID(ctx context.Context, familyID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	ListActiveForUser(ctx context.Context, userID string) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

const tokenColumns = `id, user_id, token_hash, family_id, expires_at, created_at,
	is_used, used_at, revoked_at, replaced_by_id, user_agent, ip_address`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *RefreshToken) error {
	err := r.db.GetContext(ctx, &t.CreatedAt, `
		INSERT INTO refresh_tokens
			(id, user_id, token_hash, family_id, expires_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		t.ID, t.UserID, t.TokenHash, t.FamilyID, t.ExpiresAt, t.UserAgent, t.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (r *repository) FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	return r.one(ctx, `SELECT `+tokenColumns+` FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
}

func (r *repository) FindByID(ctx context.Context, id string) (*RefreshToken, error) {
	return r.one(ctx, `SELECT `+tokenColumns+` FROM refresh_tokens WHERE id = $1`, id)
}

// MarkAsUsed only flips an unused token, so two concurrent refreshes of
// the same token cannot both succeed.
func (r *repository) MarkAsUsed(ctx context.Context, id, replacedByID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens
		SET is_used = true, used_at = NOW(), replaced_by_id = $2
		WHERE id = $1 AND is_used = false`, id, replacedByID)
	return core.ExpectOne("mark refresh token used", res, err)
}

func (r *repository) RevokeByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`, id)
	return core.ExpectOne("revoke refresh token", res, err)
}

func (r *repository) RevokeByFamilyID(ctx context.Context, familyID string) error {
	return r.revokeWhere(ctx, "revoke token family", `family_id = $1`, familyID)
}

func (r *repository) RevokeAllForUser(ctx context.Context, userID string) error {
	return r.revokeWhere(ctx, "revoke user tokens", `user_id = $1`, userID)
}

func (r *repository) revokeWhere(ctx context.Context, op, predicate string, arg any) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE `+predicate+` AND revoked_at IS NULL`, arg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *repository) ListActiveForUser(ctx context.Context, userID string) ([]RefreshToken, error) {
	var out []RefreshToken
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+tokenColumns+` FROM refresh_tokens
		WHERE user_id = $1
			AND revoked_at IS NULL
			AND is_used = false
			AND expires_at > NOW()
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return out, nil
}

// DeleteExpired backs the hourly sweep in Service.SweepExpired.
func (r *repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return n, nil
}

func (r *repository) one(ctx context.Context, query string, arg any) (*RefreshToken, error) {
	var t RefreshToken
	err := r.db.GetContext(ctx, &t, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &t, nil
}
