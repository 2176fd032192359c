// AngelaMos | 2026
// service.go

package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/dentflow/internal/billing"
	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

// IdentityProvider owns the global user list. InviteIdentity returns
// core.ErrAlreadyRegistered when the address already has an identity.
// Pending identities were invited but never set a password; ReissueInvite
// mails them a fresh acceptance link.
type IdentityProvider interface {
	InviteIdentity(ctx context.Context, email, orgName string) (string, error)
	FindIdentityByEmail(ctx context.Context, email string) (id string, pending bool, err error)
	ReissueInvite(ctx context.Context, userID, orgName string) error
}

type PlanSource interface {
	CurrentPlan(ctx context.Context, tenantID string) (*billing.Plan, error)
}

type Service struct {
	repo     Repository
	identity IdentityProvider
	plans    PlanSource
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	identity IdentityProvider,
	plans PlanSource,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		identity: identity,
		plans:    plans,
		logger:   logger,
	}
}

// ResolveSession picks the membership named by tenantID, or the user's
// oldest membership when tenantID is empty.
func (s *Service) ResolveSession(
	ctx context.Context,
	userID, tenantID string,
) (*middleware.Session, error) {
	var (
		m   *Member
		err error
	)

	if tenantID == "" {
		m, err = s.repo.Oldest(ctx, userID)
	} else {
		if _, parseErr := uuid.Parse(tenantID); parseErr != nil {
			return nil, fmt.Errorf("resolve session: %w", core.ErrNotFound)
		}
		m, err = s.repo.Get(ctx, tenantID, userID)
	}
	if err != nil {
		return nil, err
	}

	return &middleware.Session{
		TenantID: m.OrganizationID,
		UserID:   m.UserID,
		Role:     m.Role,
	}, nil
}

// IsMember reports whether userID belongs to the tenant with one of roles.
// No roles means any role.
func (s *Service) IsMember(
	ctx context.Context,
	tenantID, userID string,
	roles ...string,
) (bool, error) {
	m, err := s.repo.Get(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if len(roles) == 0 {
		return true, nil
	}
	for _, role := range roles {
		if m.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) List(ctx context.Context, session *middleware.Session) ([]Profile, error) {
	return s.repo.List(ctx, session.TenantID)
}

func requireAdmin(session *middleware.Session) error {
	if session == nil || !session.HasRole(RoleAdmin) {
		return core.ForbiddenError("only administrators can manage members")
	}
	return nil
}

func guardSelfDemotion(session *middleware.Session, targetID, role string) error {
	if targetID == session.UserID && session.Role == RoleAdmin && role != RoleAdmin {
		return core.ForbiddenError("you cannot remove your own administrator role")
	}
	return nil
}

func (s *Service) Invite(
	ctx context.Context,
	session *middleware.Session,
	email, role string,
) (*Member, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	if !ValidRole(role) {
		return nil, core.ValidationError("role must be one of [ADMIN DENTIST RECEPTIONIST]")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	userID, pending, err := s.identity.FindIdentityByEmail(ctx, email)
	switch {
	case err == nil:
		return s.linkExisting(ctx, session, userID, role, pending)
	case !errors.Is(err, core.ErrNotFound):
		return nil, fmt.Errorf("find identity: %w", err)
	}

	if err := s.checkDentistCap(ctx, session.TenantID, role); err != nil {
		return nil, err
	}

	orgName, err := s.repo.OrganizationName(ctx, session.TenantID)
	if err != nil {
		return nil, err
	}

	userID, err = s.identity.InviteIdentity(ctx, email, orgName)
	switch {
	case err == nil:
		return s.link(ctx, session.TenantID, userID, role)
	case !errors.Is(err, core.ErrAlreadyRegistered):
		return nil, fmt.Errorf("invite identity: %w", err)
	}

	// Another request registered the address between lookup and insert.
	userID, pending, err = s.identity.FindIdentityByEmail(ctx, email)
	if err != nil {
		s.logger.Warn("invited identity not found after conflict",
			"tenant_id", session.TenantID,
			"error", err,
		)
		return nil, core.UpstreamError("could not locate the invited user; please retry")
	}
	return s.linkExisting(ctx, session, userID, role, pending)
}

// linkExisting attaches an identity that already exists globally. A
// pending identity is sent a fresh invitation, which is also how an
// expired link gets replaced.
func (s *Service) linkExisting(
	ctx context.Context,
	session *middleware.Session,
	userID, role string,
	pending bool,
) (*Member, error) {
	existing, err := s.repo.Get(ctx, session.TenantID, userID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		if existing.Role == role {
			if !pending {
				return nil, core.NewAppError(
					core.ErrDuplicateKey,
					"user is already a member of this organization",
					http.StatusConflict,
					"DUPLICATE",
				)
			}
			if err := s.reissue(ctx, session.TenantID, userID); err != nil {
				return nil, err
			}
			return existing, nil
		}
		if err := guardSelfDemotion(session, userID, role); err != nil {
			return nil, err
		}
	}

	if existing == nil || existing.Role != RoleDentist {
		if err := s.checkDentistCap(ctx, session.TenantID, role); err != nil {
			return nil, err
		}
	}

	m, err := s.link(ctx, session.TenantID, userID, role)
	if err != nil || !pending {
		return m, err
	}
	if err := s.reissue(ctx, session.TenantID, userID); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) reissue(ctx context.Context, tenantID, userID string) error {
	orgName, err := s.repo.OrganizationName(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := s.identity.ReissueInvite(ctx, userID, orgName); err != nil {
		return fmt.Errorf("reissue invite: %w", err)
	}

	s.logger.Info("invitation reissued",
		"tenant_id", tenantID,
		"user_id", userID,
	)
	return nil
}

func (s *Service) link(ctx context.Context, tenantID, userID, role string) (*Member, error) {
	m := &Member{
		OrganizationID: tenantID,
		UserID:         userID,
		Role:           role,
	}
	if err := s.repo.Upsert(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info("member linked",
		"tenant_id", tenantID,
		"user_id", userID,
		"role", role,
	)
	return m, nil
}

// checkDentistCap only applies when the membership would add a dentist.
func (s *Service) checkDentistCap(ctx context.Context, tenantID, role string) error {
	if role != RoleDentist {
		return nil
	}

	plan, err := s.plans.CurrentPlan(ctx, tenantID)
	if err != nil {
		if errors.Is(err, core.ErrPlanUpgradeRequired) {
			return core.PlanLimitError("an active subscription is required to add dentists")
		}
		return err
	}

	count, err := s.repo.CountByRole(ctx, tenantID, RoleDentist)
	if err != nil {
		return err
	}

	if !plan.AllowsDentists(count + 1) {
		return core.PlanLimitError(fmt.Sprintf(
			"your %s plan allows at most %d dentists; upgrade required",
			plan.Name,
			*plan.MaxDentists,
		))
	}

	return nil
}

func (s *Service) ChangeRole(
	ctx context.Context,
	session *middleware.Session,
	userID, role string,
) (*Member, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}
	if !ValidRole(role) {
		return nil, core.ValidationError("role must be one of [ADMIN DENTIST RECEPTIONIST]")
	}
	if err := guardSelfDemotion(session, userID, role); err != nil {
		return nil, err
	}

	m, err := s.repo.Get(ctx, session.TenantID, userID)
	if err != nil {
		return nil, err
	}

	if m.Role == role {
		return m, nil
	}

	if err := s.checkDentistCap(ctx, session.TenantID, role); err != nil {
		return nil, err
	}

	m.Role = role
	if err := s.repo.UpdateRole(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (s *Service) Remove(
	ctx context.Context,
	session *middleware.Session,
	userID string,
) error {
	if err := requireAdmin(session); err != nil {
		return err
	}
	if userID == session.UserID {
		return core.ForbiddenError("you cannot remove yourself from the organization")
	}

	return s.repo.Delete(ctx, session.TenantID, userID)
}

var _ middleware.SessionResolver = (*Service)(nil)
