// AngelaMos | 2026
// service.go

package organization

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/dentflow/internal/auth"
	"github.com/carterperez-dev/dentflow/internal/billing"
	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/member"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

const maxSlugAttempts = 20

// Stores builds transaction-bound repositories.
type Stores struct {
	Organizations func(core.DBTX) Repository
	Members       func(core.DBTX) member.Repository
	Billing       func(core.DBTX) billing.Repository
}

func DefaultStores() Stores {
	return Stores{
		Organizations: NewRepository,
		Members:       member.NewRepository,
		Billing:       billing.NewRepository,
	}
}

type Service struct {
	tx        core.TxRunner
	repo      Repository
	stores    Stores
	trialDays int
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(
	tx core.TxRunner,
	repo Repository,
	stores Stores,
	trialDays int,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tx:        tx,
		repo:      repo,
		stores:    stores,
		trialDays: trialDays,
		now:       time.Now,
		logger:    logger,
	}
}

// ProvisionAccount creates the organization, the owner's ADMIN membership
// and the trial subscription in one transaction.
func (s *Service) ProvisionAccount(
	ctx context.Context,
	ownerID, clinicName, taxID string,
) (*auth.Organization, error) {
	org := &Organization{
		ID:    uuid.New().String(),
		Name:  strings.TrimSpace(clinicName),
		TaxID: strings.TrimSpace(taxID),
	}

	err := s.tx.InTx(ctx, func(tx core.DBTX) error {
		orgs := s.stores.Organizations(tx)

		slug, err := uniqueSlug(ctx, orgs, org.Name)
		if err != nil {
			return err
		}
		org.Slug = slug

		if err := orgs.Create(ctx, org); err != nil {
			return err
		}

		owner := &member.Member{
			OrganizationID: org.ID,
			UserID:         ownerID,
			Role:           member.RoleAdmin,
		}
		if err := s.stores.Members(tx).Upsert(ctx, owner); err != nil {
			return err
		}

		_, err = billing.StartTrial(ctx, s.stores.Billing(tx), org.ID, s.trialDays, s.now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("provision account: %w", err)
	}

	s.logger.Info("organization provisioned",
		"tenant_id", org.ID,
		"slug", org.Slug,
		"owner_id", ownerID,
	)

	return toAuthOrganization(org), nil
}

func uniqueSlug(ctx context.Context, repo Repository, name string) (string, error) {
	base := Slugify(name)

	for i := 1; i <= maxSlugAttempts; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}

		taken, err := repo.SlugTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	return base + "-" + uuid.New().String()[:8], nil
}

func (s *Service) GetOrganization(ctx context.Context, id string) (*auth.Organization, error) {
	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAuthOrganization(org), nil
}

func (s *Service) Get(ctx context.Context, session *middleware.Session) (*Organization, error) {
	return s.repo.GetByID(ctx, session.TenantID)
}

func (s *Service) Update(
	ctx context.Context,
	session *middleware.Session,
	req UpdateOrganizationRequest,
) (*Organization, error) {
	if !session.HasRole(member.RoleAdmin) {
		return nil, core.ForbiddenError("only administrators can edit the organization")
	}

	org, err := s.repo.GetByID(ctx, session.TenantID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		org.Name = strings.TrimSpace(*req.Name)
	}
	if req.TaxID != nil {
		org.TaxID = strings.TrimSpace(*req.TaxID)
	}

	if err := s.repo.Update(ctx, org); err != nil {
		return nil, err
	}

	return org, nil
}

func toAuthOrganization(o *Organization) *auth.Organization {
	return &auth.Organization{
		ID:    o.ID,
		Name:  o.Name,
		Slug:  o.Slug,
		TaxID: o.TaxID,
	}
}

var _ auth.AccountProvisioner = (*Service)(nil)
