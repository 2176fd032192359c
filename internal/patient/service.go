// AngelaMos | 2026
// service.go

package patient

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(
	ctx context.Context,
	session *middleware.Session,
	filter ListFilter,
	page core.Page,
) ([]Patient, int, error) {
	return s.repo.List(ctx, session.TenantID, filter, page)
}

func (s *Service) Get(ctx context.Context, session *middleware.Session, id string) (*Patient, error) {
	return s.repo.GetByID(ctx, session.TenantID, id)
}

// Lookup fetches a live patient of tenantID for other modules.
func (s *Service) Lookup(ctx context.Context, tenantID, id string) (*Patient, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *Service) Count(ctx context.Context, tenantID string) (int, error) {
	return s.repo.Count(ctx, tenantID)
}

func (s *Service) Create(
	ctx context.Context,
	session *middleware.Session,
	req CreatePatientRequest,
) (*Patient, error) {
	birth, err := parseDate(req.BirthDate)
	if err != nil {
		return nil, core.ValidationError("birth_date must be YYYY-MM-DD")
	}

	p := &Patient{
		ID:             uuid.New().String(),
		OrganizationID: session.TenantID,
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:          strings.TrimSpace(req.Phone),
		Document:       strings.TrimSpace(req.Document),
		BirthDate:      birth,
		Notes:          req.Notes,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("patient created", "tenant_id", session.TenantID, "patient_id", p.ID)
	return p, nil
}

func (s *Service) Update(
	ctx context.Context,
	session *middleware.Session,
	id string,
	req UpdatePatientRequest,
) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, session.TenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		p.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		p.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Document != nil {
		p.Document = strings.TrimSpace(*req.Document)
	}
	if req.BirthDate != nil {
		birth, err := parseDate(*req.BirthDate)
		if err != nil {
			return nil, core.ValidationError("birth_date must be YYYY-MM-DD")
		}
		p.BirthDate = birth
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Delete(ctx context.Context, session *middleware.Session, id string) error {
	if err := s.repo.SoftDelete(ctx, session.TenantID, id); err != nil {
		return err
	}

	s.logger.Info("patient deleted", "tenant_id", session.TenantID, "patient_id", id)
	return nil
}
