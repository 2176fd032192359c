// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/dentflow/internal/core"
)

type fakeVerifier struct {
	err error
}

func (f fakeVerifier) VerifyAccessToken(_ context.Context, token string) (*AccessTokenClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &AccessTokenClaims{UserID: "user-" + token}, nil
}

type fakeResolver struct {
	gotTenant string
	err       error
}

func (f *fakeResolver) ResolveSession(_ context.Context, userID, tenantID string) (*Session, error) {
	f.gotTenant = tenantID
	if f.err != nil {
		return nil, f.err
	}
	if tenantID == "" {
		tenantID = "default-tenant"
	}
	return &Session{TenantID: tenantID, UserID: userID, Role: "DENTIST"}, nil
}

func echoSession(w http.ResponseWriter, r *http.Request) {
	s := GetSession(r.Context())
	if s == nil {
		core.OK(w, map[string]string{"user": GetUserID(r.Context())})
		return
	}
	core.OK(w, map[string]string{"user": s.UserID, "tenant": s.TenantID, "role": s.Role})
}

func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", ExtractToken(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, ExtractToken(r))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", ExtractToken(r))
}

func TestAuthenticator(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		verifier fakeVerifier
		status   int
	}{
		{"valid token", "Bearer t1", fakeVerifier{}, http.StatusOK},
		{"missing token", "", fakeVerifier{}, http.StatusUnauthorized},
		{"expired token", "Bearer t1", fakeVerifier{err: core.ErrTokenExpired}, http.StatusUnauthorized},
		{"garbage token", "Bearer t1", fakeVerifier{err: errors.New("bad signature")}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Authenticator(tt.verifier)(http.HandlerFunc(echoSession))

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, rec.Body.String(), "user-t1")
			}
		})
	}
}

func TestRequireSessionReadsOrganizationHeader(t *testing.T) {
	resolver := &fakeResolver{}
	h := Authenticator(fakeVerifier{})(RequireSession(resolver)(http.HandlerFunc(echoSession)))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer t1")
	r.Header.Set(OrganizationHeader, "  clinic-b ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "clinic-b", resolver.gotTenant)
	assert.Contains(t, rec.Body.String(), `"tenant":"clinic-b"`)
}

func TestRequireSessionWithoutMembership(t *testing.T) {
	resolver := &fakeResolver{err: core.ErrNotFound}
	h := RequireSession(resolver)(http.HandlerFunc(echoSession))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), UserIDKey, "u1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSessionResolverFailure(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("db down")}
	h := RequireSession(resolver)(http.HandlerFunc(echoSession))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(context.WithValue(r.Context(), UserIDKey, "u1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole("ADMIN", "DENTIST")(http.HandlerFunc(echoSession))

	for role, status := range map[string]int{
		"ADMIN":        http.StatusOK,
		"DENTIST":      http.StatusOK,
		"RECEPTIONIST": http.StatusForbidden,
	} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(WithSession(r.Context(), &Session{TenantID: "t", UserID: "u", Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, status, rec.Code, role)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type staticFeatures map[string]bool

func (s staticFeatures) IsFeatureEnabled(_ context.Context, _, feature string) bool {
	return s[feature]
}

func TestRequireFeature(t *testing.T) {
	checker := staticFeatures{"prosthetics": true}
	withSession := func(r *http.Request) *http.Request {
		return r.WithContext(WithSession(r.Context(), &Session{TenantID: "t", UserID: "u", Role: "ADMIN"}))
	}

	rec := httptest.NewRecorder()
	RequireFeature(checker, "prosthetics")(http.HandlerFunc(echoSession)).
		ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	RequireFeature(checker, "ai_dashboard")(http.HandlerFunc(echoSession)).
		ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "PLAN_UPGRADE_REQUIRED")
	assert.Contains(t, rec.Body.String(), "ai_dashboard")
}

func TestTokenFailure(t *testing.T) {
	limited := core.NewAppError(core.ErrUnavailable, "slow down", http.StatusServiceUnavailable, "UNAVAILABLE")

	for err, code := range map[error]string{
		core.ErrTokenExpired:        "TOKEN_EXPIRED",
		core.ErrTokenRevoked:        "TOKEN_REVOKED",
		errors.New("bad signature"): "TOKEN_INVALID",
		limited:                     "UNAVAILABLE",
	} {
		assert.Equal(t, code, tokenFailure(err).Code, err.Error())
	}
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetUserID(ctx))
	assert.Nil(t, GetClaims(ctx))
	assert.Nil(t, GetSession(ctx))
	assert.Empty(t, GetTenantID(ctx))

	ctx = WithClaims(ctx, &AccessTokenClaims{UserID: "u1", JTI: "j1"})
	assert.Equal(t, "u1", GetUserID(ctx))
	require.NotNil(t, GetClaims(ctx))
	assert.Equal(t, "j1", GetClaims(ctx).JTI)

	ctx = WithSession(ctx, &Session{TenantID: "clinic", UserID: "u1", Role: "ADMIN"})
	assert.Equal(t, "clinic", GetTenantID(ctx))
	assert.True(t, GetSession(ctx).HasRole("DENTIST", "ADMIN"))

	var none *Session
	assert.False(t, none.HasRole("ADMIN"))
}
