// AngelaMos | 2026
// bind.go

package core

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// Bind decodes a JSON body into dst and validates it.
func Bind(r *http.Request, dst any, v *validator.Validate) *AppError {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ValidationError("request body is required")
		}
		return ValidationError("invalid request body")
	}

	if err := v.Struct(dst); err != nil {
		return ValidationError(FormatValidationError(err))
	}

	return nil
}
