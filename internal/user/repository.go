// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/dentflow/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Rename(ctx context.Context, id, name string) (*User, error)
	SetCredentials(ctx context.Context, id, passwordHash, name string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
}

const userColumns = `id, email, password_hash, name, token_version,
	created_at, updated_at, deleted_at`

// Every read and write skips soft-deleted rows.
const liveUser = `deleted_at IS NULL`

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *User) error {
	err := r.db.GetContext(ctx, u, `
		INSERT INTO users (id, email, password_hash, name)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		u.ID, u.Email, u.PasswordHash, u.Name,
	)
	switch {
	case core.IsDuplicateKeyError(err):
		return fmt.Errorf("create user %s: %w", u.Email, core.ErrDuplicateKey)
	case err != nil:
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.one(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id = $1 AND `+liveUser, id)
}

// GetByEmail expects an already normalized address.
func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.one(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE email = $1 AND `+liveUser, email)
}

func (r *repository) Rename(ctx context.Context, id, name string) (*User, error) {
	return r.one(ctx, `
		UPDATE users SET name = $2, updated_at = NOW()
		WHERE id = $1 AND `+liveUser+`
		RETURNING `+userColumns, id, name)
}

func (r *repository) SetCredentials(ctx context.Context, id, passwordHash, name string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, name = $3, updated_at = NOW()
		WHERE id = $1 AND `+liveUser, id, passwordHash, name)
	return core.ExpectOne("set credentials", res, err)
}

func (r *repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND `+liveUser, id, passwordHash)
	return core.ExpectOne("update password", res, err)
}

// IncrementTokenVersion invalidates every access token issued so far.
func (r *repository) IncrementTokenVersion(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1 AND `+liveUser, id)
	return core.ExpectOne("increment token version", res, err)
}

// HardDelete removes the row outright. It only backs signup compensation,
// where the identity never became visible to anyone.
func (r *repository) HardDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return core.ExpectOne("delete user", res, err)
}

func (r *repository) one(ctx context.Context, query string, args ...any) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	return &u, nil
}
