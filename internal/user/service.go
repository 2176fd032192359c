// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/dentflow/internal/auth"
	"github.com/carterperez-dev/dentflow/internal/core"
)

// Service is the local identity store. It backs authentication and plays
// the identity provider role for member invitations.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var _ auth.UserProvider = (*Service)(nil)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return identity(u), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return identity(u), nil
}

func (s *Service) Create(ctx context.Context, email, passwordHash, name string) (*auth.UserInfo, error) {
	u := &User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Name:         strings.TrimSpace(name),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return identity(u), nil
}

// CreatePending registers an invited address with no password. An address
// that already has an identity reports core.ErrAlreadyRegistered so the
// caller can look it up instead.
func (s *Service) CreatePending(ctx context.Context, email string) (*auth.UserInfo, error) {
	u := &User{ID: uuid.New().String(), Email: NormalizeEmail(email)}

	err := s.repo.Create(ctx, u)
	if errors.Is(err, core.ErrDuplicateKey) {
		return nil, fmt.Errorf("invite %s: %w", u.Email, core.ErrAlreadyRegistered)
	}
	if err != nil {
		return nil, err
	}
	return identity(u), nil
}

func (s *Service) SetCredentials(ctx context.Context, userID, passwordHash, name string) error {
	return s.repo.SetCredentials(ctx, userID, passwordHash, strings.TrimSpace(name))
}

func (s *Service) HardDelete(ctx context.Context, userID string) error {
	return s.repo.HardDelete(ctx, userID)
}

func (s *Service) IncrementTokenVersion(ctx context.Context, userID string) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("profile: %w", core.ErrUnauthorized)
	}
	return s.repo.GetByID(ctx, userID)
}

// UpdateProfile applies only the fields present in req. A name made of
// whitespace is rejected rather than stored empty.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*User, error) {
	if req.Name == nil {
		return s.Profile(ctx, userID)
	}
	if userID == "" {
		return nil, fmt.Errorf("update profile: %w", core.ErrUnauthorized)
	}

	name := strings.TrimSpace(*req.Name)
	if name == "" {
		return nil, core.ValidationError("name must not be blank")
	}
	return s.repo.Rename(ctx, userID, name)
}

func identity(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		TokenVersion: u.TokenVersion,
		CreatedAt:    u.CreatedAt,
	}
}
