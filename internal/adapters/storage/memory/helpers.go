package memory

import (
	"strings"
	"time"
)

// containsFold: búsqueda case-insensitive usada por los filtros Query.
func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func anyContainsFold(sub string, fields ...string) bool {
	for _, f := range fields {
		if containsFold(f, sub) {
			return true
		}
	}
	return false
}

// page recorta items con offset/limit (limit 0 = todo) y devuelve el total.
func page[T any](items []T, offset, limit int) ([]T, int) {
	total := len(items)
	if offset >= total {
		return []T{}, total
	}
	if offset < 0 {
		offset = 0
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return items[offset:end], total
}

// inRange: from <= t < to, con límites opcionales.
func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}
