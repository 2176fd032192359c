// AngelaMos | 2026
// handler.go

package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

type Handler struct {
	service       *Service
	validator     *validator.Validate
	secureCookies bool
}

func NewHandler(service *Service, secureCookies bool) *Handler {
	return &Handler{
		service:       service,
		validator:     core.NewValidator(),
		secureCookies: secureCookies,
	}
}

// RegisterRoutes mounts /auth. sessionGate resolves the tenant membership
// and is only needed by GET /auth/session.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, sessionGate, credentialLimit func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(credentialLimit)
			r.Post("/login", h.Login)
			r.Post("/signup", h.Signup)
			r.Post("/refresh", h.Refresh)
			r.Post("/callback", h.AcceptInvite)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Post("/logout", h.Logout)
			r.Post("/logout-all", h.LogoutAll)
			r.Get("/sessions", h.GetSessions)
			r.Delete("/sessions/{sessionID}", h.RevokeSession)
			r.Post("/change-password", h.ChangePassword)
			r.With(sessionGate).Get("/session", h.GetSession)
		})
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Login(r.Context(), req, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		core.JSONError(w, authError(err, "user"))
		return
	}

	h.setAccessCookie(w, resp.Tokens)
	core.OK(w, resp)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Signup(r.Context(), req, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		core.JSONError(w, authError(err, "organization"))
		return
	}

	h.setAccessCookie(w, resp.Tokens)
	core.Created(w, resp)
}

func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req AcceptInviteRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.AcceptInvite(r.Context(), req, r.UserAgent(), middleware.ClientIP(r))
	switch {
	case errors.Is(err, core.ErrTokenInvalid):
		core.JSONError(w, core.NewAppError(err,
			"invitation is invalid or has expired", http.StatusUnauthorized, "INVITE_INVALID"))
		return
	case err != nil:
		core.JSONError(w, authError(err, "user"))
		return
	}

	h.setAccessCookie(w, resp.Tokens)
	core.OK(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	resp, err := h.service.Refresh(r.Context(), req.RefreshToken, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		core.JSONError(w, authError(err, "session"))
		return
	}

	h.setAccessCookie(w, resp.Tokens)
	core.OK(w, resp)
}

// Logout accepts an empty body, in which case only the access token is
// revoked.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	var req RefreshRequest
	if r.ContentLength != 0 {
		if err := core.Bind(r, &req, h.validator); err != nil {
			core.JSONError(w, err)
			return
		}
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken, claims); err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "cannot revoke another user's token")
			return
		}
		core.JSONError(w, authError(err, "session"))
		return
	}

	h.clearAccessCookie(w)
	core.NoContent(w)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.LogoutAll(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		core.JSONError(w, authError(err, "user"))
		return
	}

	h.clearAccessCookie(w)
	core.NoContent(w)
}

func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.GetActiveSessions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.JSONError(w, authError(err, "session"))
		return
	}

	core.OK(w, SessionsResponse{Sessions: sessions})
}

func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.service.RevokeSession(r.Context(), userID, sessionID); err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "cannot revoke another user's session")
			return
		}
		core.JSONError(w, authError(err, "session"))
		return
	}

	core.NoContent(w)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := core.Bind(r, &req, h.validator); err != nil {
		core.JSONError(w, err)
		return
	}

	err := h.service.ChangePassword(r.Context(), middleware.GetUserID(r.Context()), req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		core.Unauthorized(w, "current password is incorrect")
		return
	case err != nil:
		core.JSONError(w, authError(err, "user"))
		return
	}

	h.clearAccessCookie(w)
	core.NoContent(w)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session == nil {
		core.Unauthorized(w, "")
		return
	}

	resp, err := h.service.CurrentSession(r.Context(), session)
	if err != nil {
		core.JSONError(w, authError(err, "session"))
		return
	}

	core.OK(w, resp)
}

// authError maps the auth package sentinels before falling back to the
// shared taxonomy. Credential failures never reveal which half was wrong.
func authError(err error, resource string) *core.AppError {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return core.UnauthorizedError("invalid email or password")
	case errors.Is(err, ErrEmailExists):
		return core.DuplicateError("email")
	case errors.Is(err, ErrTokenReuse):
		return core.NewAppError(core.ErrTokenRevoked,
			"security alert: token reuse detected, all sessions revoked",
			http.StatusUnauthorized, "TOKEN_REUSE_DETECTED")
	case errors.Is(err, core.ErrTokenExpired):
		return core.TokenExpiredError()
	case errors.Is(err, core.ErrTokenRevoked):
		return core.TokenRevokedError()
	case errors.Is(err, core.ErrTokenInvalid):
		return core.TokenInvalidError()
	}
	return core.MapError(err, resource)
}

func (h *Handler) setAccessCookie(w http.ResponseWriter, tokens TokenResponse) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.ExpiresAt,
		MaxAge:   tokens.ExpiresIn,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearAccessCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
