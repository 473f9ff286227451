package respond

import (
	"net/http"
	"strconv"
	"strings"

	"zoo-management/internal/platform/sentinel"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page son los parámetros de paginación (?page=&limit=).
type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Slice aplica la página sobre una colección ya filtrada en memoria.
func Slice[T any](items []T, p Page) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func ParsePage(r *http.Request) (Page, error) {
	p := Page{Page: 1, Limit: DefaultLimit}

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Page{}, sentinel.Invalid("page must be a positive integer")
		}
		p.Page = n
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			return Page{}, sentinel.Invalid("limit must be 1-100")
		}
		p.Limit = n
	}
	return p, nil
}

func PaginationFor(p Page, total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// SearchQuery exige ?q= no vacío.
func SearchQuery(r *http.Request) (string, error) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		return "", sentinel.Invalid("search query is required")
	}
	return q, nil
}

// OptionalBool interpreta ?key=true|false; ausente = nil.
func OptionalBool(r *http.Request, key string) (*bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, sentinel.Invalid(key + " must be true or false")
	}
	return &b, nil
}
