// AngelaMos | 2026
// entity.go

package organization

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

type Organization struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	TaxID     string    `db:"tax_id"`
	Slug      string    `db:"slug"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const maxSlugLength = 48

// Slugify lower-cases name, strips accents and collapses every run of
// non-alphanumerics into one hyphen.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range norm.NFD.String(name) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			pendingDash = true
		}

		if b.Len() >= maxSlugLength {
			break
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "clinic"
	}
	return slug
}
