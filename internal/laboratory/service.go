// AngelaMos | 2026
// service.go

package laboratory

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/member"
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

func requireAdmin(session *middleware.Session) error {
	if !session.HasRole(member.RoleAdmin) {
		return core.ForbiddenError("only administrators can manage laboratories")
	}
	return nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func (s *Service) ListLabs(
	ctx context.Context,
	session *middleware.Session,
	activeOnly bool,
) ([]Laboratory, error) {
	return s.repo.ListLabs(ctx, session.TenantID, activeOnly)
}

func (s *Service) GetLab(ctx context.Context, tenantID, id string) (*Laboratory, error) {
	return s.repo.GetLab(ctx, tenantID, id)
}

func (s *Service) CreateLab(
	ctx context.Context,
	session *middleware.Session,
	req LaboratoryRequest,
) (*Laboratory, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}

	lab := &Laboratory{
		ID:             uuid.New().String(),
		OrganizationID: session.TenantID,
	}
	applyLab(lab, req, true)

	if err := s.repo.CreateLab(ctx, lab); err != nil {
		return nil, err
	}

	s.logger.Info("laboratory created", "tenant_id", session.TenantID, "laboratory_id", lab.ID)
	return lab, nil
}

func (s *Service) UpdateLab(
	ctx context.Context,
	session *middleware.Session,
	id string,
	req LaboratoryRequest,
) (*Laboratory, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}

	lab, err := s.repo.GetLab(ctx, session.TenantID, id)
	if err != nil {
		return nil, err
	}
	applyLab(lab, req, lab.Active)

	if err := s.repo.UpdateLab(ctx, lab); err != nil {
		return nil, err
	}

	return lab, nil
}

func (s *Service) DeactivateLab(ctx context.Context, session *middleware.Session, id string) error {
	if err := requireAdmin(session); err != nil {
		return err
	}

	lab, err := s.repo.GetLab(ctx, session.TenantID, id)
	if err != nil {
		return err
	}

	lab.Active = false
	return s.repo.UpdateLab(ctx, lab)
}

func applyLab(lab *Laboratory, req LaboratoryRequest, active bool) {
	lab.Name = strings.TrimSpace(req.Name)
	lab.ContactName = strings.TrimSpace(req.ContactName)
	lab.Email = strings.ToLower(strings.TrimSpace(req.Email))
	lab.Phone = strings.TrimSpace(req.Phone)
	lab.Address = strings.TrimSpace(req.Address)
	lab.Active = boolOr(req.Active, active)
}

func (s *Service) ListTechnicians(
	ctx context.Context,
	session *middleware.Session,
	activeOnly bool,
) ([]Technician, error) {
	return s.repo.ListTechnicians(ctx, session.TenantID, activeOnly)
}

func (s *Service) GetTechnician(ctx context.Context, tenantID, id string) (*Technician, error) {
	return s.repo.GetTechnician(ctx, tenantID, id)
}

func (s *Service) CreateTechnician(
	ctx context.Context,
	session *middleware.Session,
	req TechnicianRequest,
) (*Technician, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}

	t := &Technician{
		ID:             uuid.New().String(),
		OrganizationID: session.TenantID,
	}
	if err := s.applyTechnician(ctx, t, req, true); err != nil {
		return nil, err
	}

	if err := s.repo.CreateTechnician(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("technician created", "tenant_id", session.TenantID, "technician_id", t.ID)
	return t, nil
}

func (s *Service) UpdateTechnician(
	ctx context.Context,
	session *middleware.Session,
	id string,
	req TechnicianRequest,
) (*Technician, error) {
	if err := requireAdmin(session); err != nil {
		return nil, err
	}

	t, err := s.repo.GetTechnician(ctx, session.TenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyTechnician(ctx, t, req, t.Active); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTechnician(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) DeactivateTechnician(ctx context.Context, session *middleware.Session, id string) error {
	if err := requireAdmin(session); err != nil {
		return err
	}

	t, err := s.repo.GetTechnician(ctx, session.TenantID, id)
	if err != nil {
		return err
	}

	t.Active = false
	return s.repo.UpdateTechnician(ctx, t)
}

func (s *Service) applyTechnician(
	ctx context.Context,
	t *Technician,
	req TechnicianRequest,
	active bool,
) error {
	t.LaboratoryID = nil
	if req.LaboratoryID != nil && *req.LaboratoryID != "" {
		if _, err := s.repo.GetLab(ctx, t.OrganizationID, *req.LaboratoryID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.ValidationError("laboratory does not belong to this organization")
			}
			return err
		}
		labID := *req.LaboratoryID
		t.LaboratoryID = &labID
	}

	t.Name = strings.TrimSpace(req.Name)
	t.Email = strings.ToLower(strings.TrimSpace(req.Email))
	t.Phone = strings.TrimSpace(req.Phone)
	t.Specialty = strings.TrimSpace(req.Specialty)
	t.Active = boolOr(req.Active, active)
	return nil
}
