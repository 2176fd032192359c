// AngelaMos | 2026
// service.go

package prosthetic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/laboratory"
	"github.com/carterperez-dev/dentflow/internal/member"
	"github.com/carterperez-dev/dentflow/internal/middleware"
	"github.com/carterperez-dev/dentflow/internal/notification"
	"github.com/carterperez-dev/dentflow/internal/patient"
	"github.com/carterperez-dev/dentflow/internal/storage"
)

var statusChanges = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dentflow_prosthetic_status_changes_total",
		Help: "Prosthetic order status updates by target status",
	},
	[]string{"status"},
)

type PatientLookup interface {
	Lookup(ctx context.Context, tenantID, id string) (*patient.Patient, error)
}

type MemberChecker interface {
	IsMember(ctx context.Context, tenantID, userID string, roles ...string) (bool, error)
}

type LabLookup interface {
	GetLab(ctx context.Context, tenantID, id string) (*laboratory.Laboratory, error)
	GetTechnician(ctx context.Context, tenantID, id string) (*laboratory.Technician, error)
}

type Notifier interface {
	Notify(ctx context.Context, d notification.Draft) (*notification.Notification, error)
}

// Deps groups the collaborators of Service.
type Deps struct {
	Tx       core.TxRunner
	Repo     Repository
	RepoFor  func(core.DBTX) Repository
	Patients PatientLookup
	Members  MemberChecker
	Labs     LabLookup
	Notifier Notifier
	Store    storage.ObjectStore
	Logger   *slog.Logger
}

type Service struct {
	Deps
}

func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.RepoFor == nil {
		deps.RepoFor = NewRepository
	}
	return &Service{Deps: deps}
}

func (s *Service) List(
	ctx context.Context,
	session *middleware.Session,
	filter ListFilter,
	page core.Page,
) ([]Order, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, invalidStatus()
	}
	return s.Repo.List(ctx, session.TenantID, filter, page)
}

// Get loads an order of the caller's tenant. Rows of other tenants are
// filtered out by the query and surface as not found.
func (s *Service) Get(ctx context.Context, session *middleware.Session, id string) (*Order, error) {
	o, err := s.Repo.GetByID(ctx, session.TenantID, id)
	if err != nil {
		return nil, err
	}
	if o.OrganizationID != session.TenantID {
		return nil, core.ForbiddenError("order belongs to another organization")
	}
	return o, nil
}

func (s *Service) Create(
	ctx context.Context,
	session *middleware.Session,
	req CreateOrderRequest,
) (*Order, error) {
	deadline, err := parseDate(req.Deadline)
	if err != nil {
		return nil, core.ValidationError("deadline must be YYYY-MM-DD")
	}

	o := &Order{
		ID:             uuid.New().String(),
		OrganizationID: session.TenantID,
		PatientID:      req.PatientID,
		DentistID:      req.DentistID,
		LaboratoryID:   emptyToNil(req.LaboratoryID),
		TechnicianID:   emptyToNil(req.TechnicianID),
		WorkType:       strings.TrimSpace(req.WorkType),
		Material:       strings.TrimSpace(req.Material),
		Shade:          strings.TrimSpace(req.Shade),
		Urgency:        req.Urgency,
		Deadline:       deadline,
		Status:         StatusPending,
		Notes:          req.Notes,
	}
	if o.Urgency == "" {
		o.Urgency = UrgencyNormal
	}

	p, err := s.Patients.Lookup(ctx, session.TenantID, o.PatientID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ValidationError("patient does not belong to this organization")
		}
		return nil, err
	}
	o.PatientName = p.Name

	if err := s.checkAssignees(ctx, o); err != nil {
		return nil, err
	}

	if err := s.Repo.Create(ctx, o); err != nil {
		return nil, err
	}

	s.Logger.Info("prosthetic order created",
		"tenant_id", session.TenantID,
		"order_id", o.ID,
		"dentist_id", o.DentistID,
	)
	return o, nil
}

func (s *Service) Update(
	ctx context.Context,
	session *middleware.Session,
	id string,
	req UpdateOrderRequest,
) (*Order, error) {
	o, err := s.Get(ctx, session, id)
	if err != nil {
		return nil, err
	}

	if req.DentistID != nil {
		o.DentistID = *req.DentistID
	}
	if req.LaboratoryID != nil {
		o.LaboratoryID = emptyToNil(req.LaboratoryID)
	}
	if req.TechnicianID != nil {
		o.TechnicianID = emptyToNil(req.TechnicianID)
	}
	if req.WorkType != nil {
		o.WorkType = strings.TrimSpace(*req.WorkType)
	}
	if req.Material != nil {
		o.Material = strings.TrimSpace(*req.Material)
	}
	if req.Shade != nil {
		o.Shade = strings.TrimSpace(*req.Shade)
	}
	if req.Urgency != nil {
		o.Urgency = *req.Urgency
	}
	if req.Deadline != nil {
		deadline, err := parseDate(*req.Deadline)
		if err != nil {
			return nil, core.ValidationError("deadline must be YYYY-MM-DD")
		}
		o.Deadline = deadline
	}
	if req.Notes != nil {
		o.Notes = *req.Notes
	}

	if err := s.checkAssignees(ctx, o); err != nil {
		return nil, err
	}

	if err := s.Repo.Update(ctx, o); err != nil {
		return nil, err
	}

	return o, nil
}

// UpdateStatus writes any valid status regardless of the current one and
// records the change in the order history in the same transaction. Moving
// to ready notifies the order's dentist once.
func (s *Service) UpdateStatus(
	ctx context.Context,
	session *middleware.Session,
	orderID string,
	newStatus Status,
	notes string,
) (*Order, error) {
	if !newStatus.Valid() {
		return nil, invalidStatus()
	}

	o, err := s.Get(ctx, session, orderID)
	if err != nil {
		return nil, err
	}

	event := &Event{
		ID:         uuid.New().String(),
		OrderID:    o.ID,
		FromStatus: o.Status,
		ToStatus:   newStatus,
		ActorID:    session.UserID,
		ActorRole:  session.Role,
		Notes:      notes,
	}
	o.Status = newStatus

	err = s.Tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.RepoFor(tx)
		if err := repo.SetStatus(ctx, o); err != nil {
			return err
		}
		return repo.InsertEvent(ctx, event)
	})
	if err != nil {
		return nil, fmt.Errorf("update prosthetic order status: %w", err)
	}

	statusChanges.WithLabelValues(string(newStatus)).Inc()
	core.SpanEvent(ctx, "prosthetic.status_changed",
		"order_id", o.ID,
		"from", string(event.FromStatus),
		"to", string(newStatus),
	)
	s.Logger.Info("prosthetic order status changed",
		"tenant_id", session.TenantID,
		"order_id", o.ID,
		"from", event.FromStatus,
		"to", newStatus,
	)

	if newStatus == StatusReady {
		s.notifyReady(ctx, o)
	}

	return o, nil
}

func (s *Service) notifyReady(ctx context.Context, o *Order) {
	if s.Notifier == nil {
		return
	}

	_, err := s.Notifier.Notify(context.WithoutCancel(ctx), notification.Draft{
		OrganizationID: o.OrganizationID,
		RecipientID:    o.DentistID,
		Type:           notification.TypeProstheticReady,
		Title:          "Prosthetic order ready",
		Message: fmt.Sprintf("The %s for %s is ready (order %s).",
			o.WorkType, o.PatientName, o.ID),
		Payload: map[string]string{
			"order_id":   o.ID,
			"patient_id": o.PatientID,
		},
	})
	if err != nil {
		core.MarkSpanFailed(ctx, err)
		s.Logger.Warn("prosthetic ready notification failed",
			"tenant_id", o.OrganizationID,
			"order_id", o.ID,
			"dentist_id", o.DentistID,
			"error", err,
		)
	}
}

func (s *Service) Events(ctx context.Context, session *middleware.Session, orderID string) ([]Event, error) {
	if _, err := s.Get(ctx, session, orderID); err != nil {
		return nil, err
	}
	return s.Repo.ListEvents(ctx, orderID)
}

func (s *Service) Comments(ctx context.Context, session *middleware.Session, orderID string) ([]Comment, error) {
	if _, err := s.Get(ctx, session, orderID); err != nil {
		return nil, err
	}
	return s.Repo.ListComments(ctx, orderID)
}

func (s *Service) AddComment(
	ctx context.Context,
	session *middleware.Session,
	orderID, body string,
) (*Comment, error) {
	if _, err := s.Get(ctx, session, orderID); err != nil {
		return nil, err
	}

	c := &Comment{
		ID:       uuid.New().String(),
		OrderID:  orderID,
		AuthorID: session.UserID,
		Body:     strings.TrimSpace(body),
	}
	if c.Body == "" {
		return nil, core.ValidationError("body is required")
	}

	if err := s.Repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Upload describes one attachment file.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s *Service) AddAttachment(
	ctx context.Context,
	session *middleware.Session,
	orderID string,
	up Upload,
) (*Attachment, error) {
	if _, err := s.Get(ctx, session, orderID); err != nil {
		return nil, err
	}

	a := &Attachment{
		ID:          uuid.New().String(),
		OrderID:     orderID,
		UploaderID:  session.UserID,
		FileName:    cleanFileName(up.FileName),
		ContentType: up.ContentType,
		SizeBytes:   up.Size,
	}
	if a.ContentType == "" {
		a.ContentType = "application/octet-stream"
	}
	a.StorageKey = path.Join(session.TenantID, "prosthetic-orders", orderID, a.ID+"-"+a.FileName)

	if err := s.Store.Put(ctx, a.StorageKey, a.ContentType, up.Body, up.Size); err != nil {
		return nil, err
	}

	if err := s.Repo.CreateAttachment(ctx, a); err != nil {
		s.discardObject(ctx, a.StorageKey)
		return nil, err
	}

	s.Logger.Info("prosthetic attachment stored",
		"tenant_id", session.TenantID,
		"order_id", orderID,
		"attachment_id", a.ID,
		"size_bytes", a.SizeBytes,
	)
	return a, nil
}

// discardObject removes an object whose metadata row was never written.
// Failures leave an orphan in the bucket and are only logged.
func (s *Service) discardObject(ctx context.Context, key string) {
	if err := s.Store.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.Logger.Warn("orphaned attachment object",
			"storage_key", key,
			"error", err,
		)
	}
}

// AttachmentLink pairs an attachment with its presigned download URL.
type AttachmentLink struct {
	Attachment
	URL string
}

// Attachments lists the files of an order. A presign failure leaves URL
// empty rather than failing the list.
func (s *Service) Attachments(
	ctx context.Context,
	session *middleware.Session,
	orderID string,
) ([]AttachmentLink, error) {
	if _, err := s.Get(ctx, session, orderID); err != nil {
		return nil, err
	}

	items, err := s.Repo.ListAttachments(ctx, orderID)
	if err != nil {
		return nil, err
	}

	out := make([]AttachmentLink, 0, len(items))
	for _, a := range items {
		url, err := s.Store.PresignGet(ctx, a.StorageKey)
		if err != nil {
			s.Logger.Warn("presign attachment failed", "attachment_id", a.ID, "error", err)
		}
		out = append(out, AttachmentLink{Attachment: a, URL: url})
	}

	return out, nil
}

func (s *Service) checkAssignees(ctx context.Context, o *Order) error {
	ok, err := s.Members.IsMember(ctx, o.OrganizationID, o.DentistID, member.ClinicalRoles...)
	if err != nil {
		return err
	}
	if !ok {
		return core.ValidationError("dentist does not belong to this organization")
	}

	if o.LaboratoryID != nil {
		if _, err := s.Labs.GetLab(ctx, o.OrganizationID, *o.LaboratoryID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.ValidationError("laboratory does not belong to this organization")
			}
			return err
		}
	}

	if o.TechnicianID != nil {
		if _, err := s.Labs.GetTechnician(ctx, o.OrganizationID, *o.TechnicianID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.ValidationError("technician does not belong to this organization")
			}
			return err
		}
	}

	return nil
}

func invalidStatus() *core.AppError {
	names := make([]string, len(Transitions))
	for i, st := range Transitions {
		names[i] = string(st)
	}
	return core.ValidationError("status must be one of [" + strings.Join(names, " ") + "]")
}

func emptyToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	cp := strings.TrimSpace(*v)
	return &cp
}

func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r < 0x20 || r == 0x7f:
			return -1
		case r == ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
