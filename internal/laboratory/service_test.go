// AngelaMos | 2026
// service_test.go

package laboratory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/member"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

const (
	tenantA = "6d1c2c7a-0000-4000-8000-00000000000a"
	tenantB = "6d1c2c7a-0000-4000-8000-00000000000b"
)

type memRepo struct {
	labs  map[string]*Laboratory
	techs map[string]*Technician
}

func newMemRepo() *memRepo {
	return &memRepo{labs: map[string]*Laboratory{}, techs: map[string]*Technician{}}
}

func (m *memRepo) CreateLab(_ context.Context, l *Laboratory) error {
	cp := *l
	m.labs[l.ID] = &cp
	return nil
}

func (m *memRepo) GetLab(_ context.Context, org, id string) (*Laboratory, error) {
	l, ok := m.labs[id]
	if !ok || l.OrganizationID != org {
		return nil, core.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memRepo) ListLabs(_ context.Context, org string, activeOnly bool) ([]Laboratory, error) {
	var out []Laboratory
	for _, l := range m.labs {
		if l.OrganizationID == org && (!activeOnly || l.Active) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateLab(_ context.Context, l *Laboratory) error {
	cp := *l
	m.labs[l.ID] = &cp
	return nil
}

func (m *memRepo) CreateTechnician(_ context.Context, t *Technician) error {
	cp := *t
	m.techs[t.ID] = &cp
	return nil
}

func (m *memRepo) GetTechnician(_ context.Context, org, id string) (*Technician, error) {
	t, ok := m.techs[id]
	if !ok || t.OrganizationID != org {
		return nil, core.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memRepo) ListTechnicians(_ context.Context, org string, activeOnly bool) ([]Technician, error) {
	var out []Technician
	for _, t := range m.techs {
		if t.OrganizationID == org && (!activeOnly || t.Active) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateTechnician(_ context.Context, t *Technician) error {
	cp := *t
	m.techs[t.ID] = &cp
	return nil
}

func adminOf(tenant string) *middleware.Session {
	return &middleware.Session{TenantID: tenant, UserID: "admin", Role: member.RoleAdmin}
}

func TestDeactivateKeepsRowButHidesFromActiveList(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	lab, err := svc.CreateLab(ctx, adminOf(tenantA), LaboratoryRequest{Name: "Lab Dental Arte"})
	require.NoError(t, err)
	assert.True(t, lab.Active)

	require.NoError(t, svc.DeactivateLab(ctx, adminOf(tenantA), lab.ID))

	active, err := svc.ListLabs(ctx, adminOf(tenantA), true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.ListLabs(ctx, adminOf(tenantA), false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Active)
}

func TestTechnicianLaboratoryMustBelongToTenant(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	foreign, err := svc.CreateLab(ctx, adminOf(tenantB), LaboratoryRequest{Name: "Other Lab"})
	require.NoError(t, err)

	_, err = svc.CreateTechnician(ctx, adminOf(tenantA), TechnicianRequest{
		Name:         "Carlos",
		LaboratoryID: &foreign.ID,
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	own, err := svc.CreateLab(ctx, adminOf(tenantA), LaboratoryRequest{Name: "Own Lab"})
	require.NoError(t, err)

	tech, err := svc.CreateTechnician(ctx, adminOf(tenantA), TechnicianRequest{
		Name:         "Carlos",
		LaboratoryID: &own.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, tech.LaboratoryID)
	assert.Equal(t, own.ID, *tech.LaboratoryID)
}

func TestUpdateKeepsActiveFlagWhenOmitted(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	ctx := context.Background()

	lab, err := svc.CreateLab(ctx, adminOf(tenantA), LaboratoryRequest{Name: "Lab"})
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateLab(ctx, adminOf(tenantA), lab.ID))

	updated, err := svc.UpdateLab(ctx, adminOf(tenantA), lab.ID, LaboratoryRequest{Name: "Lab Renamed"})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "Lab Renamed", updated.Name)
}

func TestNonAdminMutationsAreForbidden(t *testing.T) {
	repo := newMemRepo()
	h := NewHandler(NewService(repo, nil))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s := &middleware.Session{TenantID: tenantA, UserID: "dr", Role: member.RoleDentist}
			next.ServeHTTP(w, req.WithContext(middleware.WithSession(req.Context(), s)))
		})
	})
	h.RegisterRoutes(r)

	for _, path := range []string{"/laboratories", "/proteticos"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"name":"Lab"}`)))
		assert.Equal(t, http.StatusForbidden, rec.Code, path)

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	assert.Empty(t, repo.labs)
	assert.Empty(t, repo.techs)
}
