// AngelaMos | 2026
// context.go

package middleware

import (
	"context"
)

const (
	UserIDKey  contextKey = "user_id"
	ClaimsKey  contextKey = "jwt_claims"
	SessionKey contextKey = "session"
)

func fromContext[T any](ctx context.Context, key contextKey) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

func WithClaims(ctx context.Context, claims *AccessTokenClaims) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// WithSession also sets the user id so handlers that only need the caller
// work behind either gate.
func WithSession(ctx context.Context, session *Session) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, session.UserID)
	return context.WithValue(ctx, SessionKey, session)
}

func GetUserID(ctx context.Context) string {
	id, _ := fromContext[string](ctx, UserIDKey)
	return id
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	claims, _ := fromContext[*AccessTokenClaims](ctx, ClaimsKey)
	return claims
}

func GetSession(ctx context.Context) *Session {
	session, _ := fromContext[*Session](ctx, SessionKey)
	return session
}

func GetTenantID(ctx context.Context) string {
	if session := GetSession(ctx); session != nil {
		return session.TenantID
	}
	return ""
}
