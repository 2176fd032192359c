// AngelaMos | 2026
// service_test.go

package prosthetic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/dentflow/internal/billing"
	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/laboratory"
	"github.com/carterperez-dev/dentflow/internal/member"
	"github.com/carterperez-dev/dentflow/internal/middleware"
	"github.com/carterperez-dev/dentflow/internal/notification"
	"github.com/carterperez-dev/dentflow/internal/patient"
	"github.com/carterperez-dev/dentflow/internal/storage"
)

const (
	tenant    = "3f1e0000-0000-4000-8000-000000000001"
	otherOrg  = "3f1e0000-0000-4000-8000-000000000002"
	patientID = "3f1e0000-0000-4000-8000-0000000000a1"
	dentistID = "3f1e0000-0000-4000-8000-0000000000d1"
	labID     = "3f1e0000-0000-4000-8000-0000000000c1"
)

type memRepo struct {
	orders      map[string]*Order
	events      []Event
	comments    []Comment
	attachments []Attachment
	writes      int
	failStatus  error
	failAttach  error
}

func newMemRepo() *memRepo {
	return &memRepo{orders: map[string]*Order{}}
}

func (m *memRepo) Create(_ context.Context, o *Order) error {
	m.writes++
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, org, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok || o.OrganizationID != org {
		return nil, core.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, org string, f ListFilter, _ core.Page) ([]Order, int, error) {
	var out []Order
	for _, o := range m.orders {
		if o.OrganizationID == org && (f.Status == "" || o.Status == f.Status) {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Update(_ context.Context, o *Order) error {
	m.writes++
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memRepo) SetStatus(_ context.Context, o *Order) error {
	if m.failStatus != nil {
		return m.failStatus
	}
	m.writes++
	m.orders[o.ID].Status = o.Status
	return nil
}

func (m *memRepo) InsertEvent(_ context.Context, e *Event) error {
	m.events = append(m.events, *e)
	return nil
}

func (m *memRepo) ListEvents(_ context.Context, orderID string) ([]Event, error) {
	var out []Event
	for _, e := range m.events {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) CreateComment(_ context.Context, c *Comment) error {
	m.comments = append(m.comments, *c)
	return nil
}

func (m *memRepo) ListComments(context.Context, string) ([]Comment, error) {
	return m.comments, nil
}

func (m *memRepo) CreateAttachment(_ context.Context, a *Attachment) error {
	if m.failAttach != nil {
		return m.failAttach
	}
	m.attachments = append(m.attachments, *a)
	return nil
}

func (m *memRepo) ListAttachments(context.Context, string) ([]Attachment, error) {
	return m.attachments, nil
}

type inlineTx struct{}

func (inlineTx) InTx(_ context.Context, fn func(core.DBTX) error) error {
	return fn(nil)
}

type stubPatients struct{}

func (stubPatients) Lookup(_ context.Context, org, id string) (*patient.Patient, error) {
	if org == tenant && id == patientID {
		return &patient.Patient{ID: id, OrganizationID: org, Name: "Maria Silva"}, nil
	}
	return nil, core.ErrNotFound
}

type stubMembers struct{}

func (stubMembers) IsMember(_ context.Context, org, user string, _ ...string) (bool, error) {
	return org == tenant && user == dentistID, nil
}

type stubLabs struct{}

func (stubLabs) GetLab(_ context.Context, org, id string) (*laboratory.Laboratory, error) {
	if org == tenant && id == labID {
		return &laboratory.Laboratory{ID: id, OrganizationID: org}, nil
	}
	return nil, core.ErrNotFound
}

func (stubLabs) GetTechnician(context.Context, string, string) (*laboratory.Technician, error) {
	return nil, core.ErrNotFound
}

type captureNotifier struct {
	drafts []notification.Draft
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, d notification.Draft) (*notification.Notification, error) {
	c.drafts = append(c.drafts, d)
	if c.err != nil {
		return nil, c.err
	}
	return &notification.Notification{ID: "n"}, nil
}

type memStore struct {
	objects map[string][]byte
}

func (m *memStore) Put(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memStore) PresignGet(_ context.Context, key string) (string, error) {
	return "https://files.test/" + key, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memStore) Ping(context.Context) error { return nil }

type fixture struct {
	svc      *Service
	repo     *memRepo
	notifier *captureNotifier
	store    *memStore
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newMemRepo(),
		notifier: &captureNotifier{},
		store:    &memStore{objects: map[string][]byte{}},
	}
	f.svc = NewService(Deps{
		Tx:       inlineTx{},
		Repo:     f.repo,
		RepoFor:  func(core.DBTX) Repository { return f.repo },
		Patients: stubPatients{},
		Members:  stubMembers{},
		Labs:     stubLabs{},
		Notifier: f.notifier,
		Store:    f.store,
	})
	return f
}

var desk = &middleware.Session{TenantID: tenant, UserID: "desk-1", Role: member.RoleReceptionist}

func (f *fixture) order(t *testing.T) *Order {
	t.Helper()
	o, err := f.svc.Create(context.Background(), desk, CreateOrderRequest{
		PatientID: patientID,
		DentistID: dentistID,
		WorkType:  "crown",
	})
	require.NoError(t, err)
	return o
}

func TestCreateStartsPendingWithNormalUrgency(t *testing.T) {
	f := newFixture()
	o := f.order(t)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, UrgencyNormal, o.Urgency)
	assert.Equal(t, "Maria Silva", o.PatientName)
}

func TestCreateValidatesTenantReferences(t *testing.T) {
	f := newFixture()
	foreignLab := "3f1e0000-0000-4000-8000-0000000000ff"

	cases := map[string]CreateOrderRequest{
		"patient":    {PatientID: "3f1e0000-0000-4000-8000-0000000000ee", DentistID: dentistID, WorkType: "crown"},
		"dentist":    {PatientID: patientID, DentistID: "3f1e0000-0000-4000-8000-0000000000ee", WorkType: "crown"},
		"laboratory": {PatientID: patientID, DentistID: dentistID, WorkType: "crown", LaboratoryID: &foreignLab},
		"technician": {PatientID: patientID, DentistID: dentistID, WorkType: "crown", TechnicianID: &foreignLab},
	}

	for name, req := range cases {
		_, err := f.svc.Create(context.Background(), desk, req)
		assert.ErrorIs(t, err, core.ErrInvalidInput, name)
	}
	assert.Zero(t, f.repo.writes)
}

func TestUpdateStatusRejectsUnknownValuesWithoutWriting(t *testing.T) {
	f := newFixture()
	o := f.order(t)
	writes := f.repo.writes

	for _, bad := range []Status{"", "done", "READY", "shipped"} {
		_, err := f.svc.UpdateStatus(context.Background(), desk, o.ID, bad, "")
		require.Error(t, err, bad)
		assert.ErrorIs(t, err, core.ErrInvalidInput, bad)
	}

	assert.Equal(t, writes, f.repo.writes)
	assert.Empty(t, f.repo.events)
	assert.Equal(t, StatusPending, f.repo.orders[o.ID].Status)
}

func TestReadyNotifiesDentistExactlyOnceFromAnyStatus(t *testing.T) {
	for _, prev := range Transitions {
		t.Run(string(prev), func(t *testing.T) {
			f := newFixture()
			o := f.order(t)
			ctx := context.Background()

			_, err := f.svc.UpdateStatus(ctx, desk, o.ID, prev, "")
			require.NoError(t, err)
			before := len(f.notifier.drafts)

			updated, err := f.svc.UpdateStatus(ctx, desk, o.ID, StatusReady, "")
			require.NoError(t, err)
			assert.Equal(t, StatusReady, updated.Status)

			require.Len(t, f.notifier.drafts, before+1)
			d := f.notifier.drafts[before]
			assert.Equal(t, dentistID, d.RecipientID)
			assert.Equal(t, tenant, d.OrganizationID)
			assert.Equal(t, notification.TypeProstheticReady, d.Type)
			assert.Contains(t, d.Message, o.ID)
			assert.Contains(t, d.Message, "Maria Silva")
			assert.Equal(t, map[string]string{"order_id": o.ID, "patient_id": patientID}, d.Payload)
		})
	}
}

func TestNonReadyStatusesDoNotNotify(t *testing.T) {
	f := newFixture()
	o := f.order(t)

	for _, st := range Transitions {
		if st == StatusReady {
			continue
		}
		_, err := f.svc.UpdateStatus(context.Background(), desk, o.ID, st, "")
		require.NoError(t, err)
	}

	assert.Empty(t, f.notifier.drafts)
}

func TestNotificationFailureDoesNotUndoStatus(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("notifications table locked")
	o := f.order(t)

	updated, err := f.svc.UpdateStatus(context.Background(), desk, o.ID, StatusReady, "")
	require.NoError(t, err)
	assert.Equal(t, StatusReady, updated.Status)
	assert.Equal(t, StatusReady, f.repo.orders[o.ID].Status)
}

func TestUpdateStatusRecordsEvent(t *testing.T) {
	f := newFixture()
	o := f.order(t)

	_, err := f.svc.UpdateStatus(context.Background(), desk, o.ID, StatusProduction, "sent to lab")
	require.NoError(t, err)

	events, err := f.svc.Events(context.Background(), desk, o.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, StatusPending, events[0].FromStatus)
	assert.Equal(t, StatusProduction, events[0].ToStatus)
	assert.Equal(t, "desk-1", events[0].ActorID)
	assert.Equal(t, member.RoleReceptionist, events[0].ActorRole)
	assert.Equal(t, "sent to lab", events[0].Notes)
}

func TestStatusWriteFailureSkipsNotification(t *testing.T) {
	f := newFixture()
	o := f.order(t)
	f.repo.failStatus = errors.New("connection reset")

	_, err := f.svc.UpdateStatus(context.Background(), desk, o.ID, StatusReady, "")
	require.Error(t, err)
	assert.Empty(t, f.notifier.drafts)
	assert.Empty(t, f.repo.events)
}

func TestForeignOrderIsNotFound(t *testing.T) {
	f := newFixture()
	o := f.order(t)
	outsider := &middleware.Session{TenantID: otherOrg, UserID: "x", Role: member.RoleAdmin}

	_, err := f.svc.UpdateStatus(context.Background(), outsider, o.ID, StatusReady, "")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, f.notifier.drafts)
}

func TestLoadedRowFromAnotherTenantIsForbidden(t *testing.T) {
	f := newFixture()
	f.svc.Repo = leakyRepo{f.repo}
	o := f.order(t)
	outsider := &middleware.Session{TenantID: otherOrg, UserID: "x", Role: member.RoleAdmin}

	_, err := f.svc.Get(context.Background(), outsider, o.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

type leakyRepo struct{ *memRepo }

func (l leakyRepo) GetByID(_ context.Context, _ string, id string) (*Order, error) {
	o, ok := l.orders[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func TestNextFollowsForwardOrder(t *testing.T) {
	next, ok := StatusPending.Next()
	assert.True(t, ok)
	assert.Equal(t, StatusReceived, next)

	next, ok = StatusReady.Next()
	assert.True(t, ok)
	assert.Equal(t, StatusDelivered, next)

	_, ok = StatusDelivered.Next()
	assert.False(t, ok)
}

func TestAttachmentsAreStoredAndPresigned(t *testing.T) {
	f := newFixture()
	o := f.order(t)

	a, err := f.svc.AddAttachment(context.Background(), desk, o.ID, Upload{
		FileName: `C:\scans\upper arch.stl`,
		Size:     4,
		Body:     strings.NewReader("soli"),
	})
	require.NoError(t, err)

	assert.Equal(t, "upper_arch.stl", a.FileName)
	assert.Equal(t, "application/octet-stream", a.ContentType)
	assert.True(t, strings.HasPrefix(a.StorageKey, tenant+"/prosthetic-orders/"+o.ID+"/"))
	assert.Equal(t, []byte("soli"), f.store.objects[a.StorageKey])

	links, err := f.svc.Attachments(context.Background(), desk, o.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "https://files.test/"+a.StorageKey, links[0].URL)
}

func TestAttachmentObjectIsRemovedWhenInsertFails(t *testing.T) {
	f := newFixture()
	o := f.order(t)
	f.repo.failAttach = errors.New("insert failed")

	_, err := f.svc.AddAttachment(context.Background(), desk, o.ID, Upload{
		FileName: "scan.stl",
		Size:     4,
		Body:     strings.NewReader("soli"),
	})
	require.Error(t, err)

	assert.Empty(t, f.store.objects)
	assert.Empty(t, f.repo.attachments)
}

type planRepo struct {
	billing.Repository
	plan billing.Plan
}

func (p planRepo) GetByOrganization(_ context.Context, org string) (*billing.Subscription, error) {
	return &billing.Subscription{
		OrganizationID: org,
		PlanID:         p.plan.ID,
		Status:         billing.StatusActive,
		Cycle:          billing.CycleMonthly,
		Plan:           p.plan,
	}, nil
}

func routerFor(f *fixture, plan billing.Plan, store storage.ObjectStore) http.Handler {
	if store != nil {
		f.svc.Store = store
	}
	plans := billing.NewService(planRepo{plan: plan}, nil, 0, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithSession(req.Context(), desk)))
		})
	})
	NewHandler(f.svc, 1024).RegisterRoutes(r, middleware.RequireFeature(plans, billing.FeatureProsthetics))
	return r
}

func createBody() string {
	return fmt.Sprintf(`{"patient_id":%q,"dentist_id":%q,"work_type":"crown"}`, patientID, dentistID)
}

func TestEssentialPlanCannotCreateOrders(t *testing.T) {
	f := newFixture()
	r := routerFor(f, billing.Plan{ID: "p1", Name: billing.PlanEssential, AgendaLevel: "basic", CRMLevel: "basic"}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/prosthetic-orders", strings.NewReader(createBody())))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "upgrade required")
	assert.Contains(t, rec.Body.String(), "PLAN_UPGRADE_REQUIRED")
	assert.Empty(t, f.repo.orders)
}

func TestProfessionalPlanCreatesOrders(t *testing.T) {
	f := newFixture()
	r := routerFor(f, billing.Plan{ID: "p2", Name: billing.PlanProfessional, ProstheticsEnabled: true}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/prosthetic-orders", strings.NewReader(createBody())))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"next_status":"received"`)
	assert.Len(t, f.repo.orders, 1)
}

func TestStatusEndpointRejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	o := f.order(t)
	r := routerFor(f, billing.Plan{ID: "p2", ProstheticsEnabled: true}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/prosthetic-orders/"+o.ID+"/status",
		strings.NewReader(`{"status":"finished"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, StatusPending, f.repo.orders[o.ID].Status)
}

func multipartUpload(t *testing.T, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "scan.stl")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadWithStorageDisabledIsUnavailable(t *testing.T) {
	f := newFixture()
	o := f.order(t)
	r := routerFor(f, billing.Plan{ID: "p2", ProstheticsEnabled: true}, storage.Disabled{})

	body, contentType := multipartUpload(t, []byte("mesh"))
	req := httptest.NewRequest(http.MethodPost, "/prosthetic-orders/"+o.ID+"/attachments", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, f.repo.attachments)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	f := newFixture()
	o := f.order(t)
	r := routerFor(f, billing.Plan{ID: "p2", ProstheticsEnabled: true}, nil)

	body, contentType := multipartUpload(t, bytes.Repeat([]byte("x"), 2048))
	req := httptest.NewRequest(http.MethodPost, "/prosthetic-orders/"+o.ID+"/attachments", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
	assert.Contains(t, rec.Body.String(), "upload limit")
	assert.Empty(t, f.store.objects)
}
