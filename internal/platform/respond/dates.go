package respond

import (
	"strings"
	"time"

	"zoo-management/internal/platform/sentinel"
)

// OptionalDate acepta RFC3339 o YYYY-MM-DD; vacío = nil.
func OptionalDate(s, field string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, sentinel.Invalid(field + " must be RFC3339 or YYYY-MM-DD")
	}
	return &t, nil
}

// RequiredDate es OptionalDate pero el campo es obligatorio.
func RequiredDate(s, field string) (time.Time, error) {
	t, err := OptionalDate(s, field)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, sentinel.Invalid(field + " is required")
	}
	return *t, nil
}
