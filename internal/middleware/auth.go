// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/carterperez-dev/dentflow/internal/core"
)

const (
	OrganizationHeader = "X-Organization-ID"
	AccessTokenCookie  = "access_token"
)

type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*AccessTokenClaims, error)
}

type AccessTokenClaims struct {
	UserID       string
	TokenVersion int
	JTI          string
	ExpiresAt    time.Time
}

// Session is the resolved caller of a tenant-scoped request.
type Session struct {
	TenantID string
	UserID   string
	Role     string
}

func (s *Session) HasRole(roles ...string) bool {
	return s != nil && slices.Contains(roles, s.Role)
}

// SessionResolver maps an authenticated user onto a membership of the
// active tenant. tenantID may be empty, in which case the resolver picks
// the user's default membership. It returns core.ErrNotFound when the
// user belongs to no matching tenant.
type SessionResolver interface {
	ResolveSession(ctx context.Context, userID, tenantID string) (*Session, error)
}

// Authenticator accepts a bearer token or the access_token cookie. A
// malformed Authorization header is rejected even when a cookie is present.
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				core.JSONError(w, core.UnauthorizedError("missing authorization token"))
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				core.JSONError(w, tokenFailure(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireSession must run after Authenticator.
func RequireSession(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := GetUserID(ctx)
			if userID == "" {
				core.JSONError(w, core.UnauthorizedError("authentication required"))
				return
			}

			tenantID := strings.TrimSpace(r.Header.Get(OrganizationHeader))
			session, err := resolver.ResolveSession(ctx, userID, tenantID)
			switch {
			case errors.Is(err, core.ErrNotFound):
				core.JSONError(w, core.UnauthorizedError("no membership for this organization"))
				return
			case err != nil:
				core.InternalServerError(w, err)
				return
			}

			core.TagSession(ctx, session.TenantID, session.UserID, session.Role)
			next.ServeHTTP(w, r.WithContext(WithSession(ctx, session)))
		})
	}
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := slices.Clone(roles)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSession(r.Context())
			switch {
			case session == nil:
				core.JSONError(w, core.UnauthorizedError("authentication required"))
			case !session.HasRole(allowed...):
				core.JSONError(w, core.ForbiddenError("insufficient permissions"))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func ExtractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// tokenFailure never echoes verifier internals; anything unrecognised is
// reported as an invalid token.
func tokenFailure(err error) *core.AppError {
	var appErr *core.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		return core.TokenExpiredError()
	case errors.Is(err, core.ErrTokenRevoked):
		return core.TokenRevokedError()
	}
	return core.TokenInvalidError()
}
