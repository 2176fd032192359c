// AngelaMos | 2026
// pagination.go

package core

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Page     int
	PageSize int
}

func (p *Page) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ParsePage reads page and page_size from the query string. Bad values
// fall back to defaults rather than failing the request.
func ParsePage(r *http.Request) Page {
	p := Page{
		Page:     QueryInt(r, "page", 1),
		PageSize: QueryInt(r, "page_size", DefaultPageSize),
	}
	p.Normalize()
	return p
}

func QueryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// ParseID validates a path or query identifier as a UUID.
func ParseID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ValidationError("invalid id")
	}
	return id.String(), nil
}
