// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrPlanUpgradeRequired = errors.New("plan upgrade required")
	ErrPlanLimitReached    = errors.New("plan limit reached")
	ErrUpstream            = errors.New("upstream error")
	ErrUnavailable         = errors.New("service unavailable")
	ErrAlreadyRegistered   = errors.New("identity already registered")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		resource+" not found",
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		field+" already exists",
		http.StatusConflict,
		"DUPLICATE",
	)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(
		ErrUnauthorized,
		message,
		http.StatusUnauthorized,
		"UNAUTHORIZED",
	)
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "insufficient permissions"
	}
	return NewAppError(
		ErrForbidden,
		message,
		http.StatusForbidden,
		"FORBIDDEN",
	)
}

func ValidationError(message string) *AppError {
	return NewAppError(
		ErrInvalidInput,
		message,
		http.StatusBadRequest,
		"VALIDATION_ERROR",
	)
}

func PlanUpgradeError(feature string) *AppError {
	return NewAppError(
		ErrPlanUpgradeRequired,
		fmt.Sprintf("your plan does not include %s; upgrade required", feature),
		http.StatusForbidden,
		"PLAN_UPGRADE_REQUIRED",
	)
}

func PlanLimitError(message string) *AppError {
	return NewAppError(
		ErrPlanLimitReached,
		message,
		http.StatusForbidden,
		"PLAN_LIMIT_REACHED",
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(
		ErrTokenExpired,
		"token has expired",
		http.StatusUnauthorized,
		"TOKEN_EXPIRED",
	)
}

func TokenInvalidError() *AppError {
	return NewAppError(
		ErrTokenInvalid,
		"token is invalid",
		http.StatusUnauthorized,
		"TOKEN_INVALID",
	)
}

func TokenRevokedError() *AppError {
	return NewAppError(
		ErrTokenRevoked,
		"token has been revoked",
		http.StatusUnauthorized,
		"TOKEN_REVOKED",
	)
}

func UpstreamError(message string) *AppError {
	return NewAppError(
		ErrUpstream,
		message,
		http.StatusBadGateway,
		"UPSTREAM_ERROR",
	)
}

// MapError translates the sentinel taxonomy into an AppError. Errors that
// match nothing become a 500 with the message hidden from the client.
func MapError(err error, resource string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NotFoundError(resource)
	case errors.Is(err, ErrDuplicateKey), errors.Is(err, ErrAlreadyRegistered):
		return DuplicateError(resource)
	case errors.Is(err, ErrUnauthorized):
		return UnauthorizedError("")
	case errors.Is(err, ErrForbidden):
		return ForbiddenError("")
	case errors.Is(err, ErrInvalidInput):
		return ValidationError(err.Error())
	case errors.Is(err, ErrPlanUpgradeRequired):
		return NewAppError(err, "plan upgrade required", http.StatusForbidden, "PLAN_UPGRADE_REQUIRED")
	case errors.Is(err, ErrPlanLimitReached):
		return PlanLimitError("plan limit reached; upgrade required")
	case errors.Is(err, ErrUpstream):
		return UpstreamError("upstream provider failed")
	case errors.Is(err, ErrUnavailable):
		return NewAppError(err, "service unavailable", http.StatusServiceUnavailable, "UNAVAILABLE")
	}

	return NewAppError(err, "internal server error", http.StatusInternalServerError, "INTERNAL_ERROR")
}
