// AngelaMos | 2026
// service.go

package appointment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/member"
	"github.com/carterperez-dev/dentflow/internal/middleware"
	"github.com/carterperez-dev/dentflow/internal/patient"
)

type PatientLookup interface {
	Lookup(ctx context.Context, tenantID, id string) (*patient.Patient, error)
}

type MemberChecker interface {
	IsMember(ctx context.Context, tenantID, userID string, roles ...string) (bool, error)
}

type Service struct {
	repo     Repository
	patients PatientLookup
	members  MemberChecker
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	patients PatientLookup,
	members MemberChecker,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		patients: patients,
		members:  members,
		logger:   logger,
	}
}

func (s *Service) List(
	ctx context.Context,
	session *middleware.Session,
	filter ListFilter,
) ([]Appointment, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, core.ValidationError("status must be one of [pending confirmed completed canceled no_show]")
	}
	return s.repo.List(ctx, session.TenantID, filter)
}

func (s *Service) Get(ctx context.Context, session *middleware.Session, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, session.TenantID, id)
}

func (s *Service) Create(
	ctx context.Context,
	session *middleware.Session,
	req CreateAppointmentRequest,
) (*Appointment, error) {
	a := &Appointment{
		ID:             uuid.New().String(),
		OrganizationID: session.TenantID,
		PatientID:      req.PatientID,
		DentistID:      req.DentistID,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		Status:         req.Status,
		Procedure:      req.Procedure,
		PriceCents:     req.PriceCents,
		Notes:          req.Notes,
	}
	if a.Status == "" {
		a.Status = StatusPending
	}

	if err := s.validate(ctx, a); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("appointment created",
		"tenant_id", session.TenantID,
		"appointment_id", a.ID,
		"dentist_id", a.DentistID,
	)
	return a, nil
}

func (s *Service) Update(
	ctx context.Context,
	session *middleware.Session,
	id string,
	req UpdateAppointmentRequest,
) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, session.TenantID, id)
	if err != nil {
		return nil, err
	}

	if req.PatientID != nil {
		a.PatientID = *req.PatientID
	}
	if req.DentistID != nil {
		a.DentistID = *req.DentistID
	}
	if req.StartsAt != nil {
		a.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		a.EndsAt = *req.EndsAt
	}
	if req.Status != nil {
		a.Status = *req.Status
	}
	if req.Procedure != nil {
		a.Procedure = *req.Procedure
	}
	if req.PriceCents != nil {
		a.PriceCents = *req.PriceCents
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}

	if err := s.validate(ctx, a); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Service) Delete(ctx context.Context, session *middleware.Session, id string) error {
	return s.repo.Delete(ctx, session.TenantID, id)
}

// validate checks the merged appointment and fills PatientName.
func (s *Service) validate(ctx context.Context, a *Appointment) error {
	if !ValidStatus(a.Status) {
		return core.ValidationError("status must be one of [pending confirmed completed canceled no_show]")
	}
	if !a.EndsAt.After(a.StartsAt) {
		return core.ValidationError("ends_at must be after starts_at")
	}

	p, err := s.patients.Lookup(ctx, a.OrganizationID, a.PatientID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ValidationError("patient does not belong to this organization")
		}
		return err
	}
	a.PatientName = p.Name

	ok, err := s.members.IsMember(ctx, a.OrganizationID, a.DentistID, member.ClinicalRoles...)
	if err != nil {
		return err
	}
	if !ok {
		return core.ValidationError("dentist does not belong to this organization")
	}

	return nil
}

// DayRange returns [start of day, start of next day) for date in loc.
func DayRange(date time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := date.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
