package validation

import (
	"strings"
	"time"
)

// DateLayout задаёт формат календарной даты в API.
const DateLayout = "2006-01-02"

// ParseDate принимает дату в формате YYYY-MM-DD или RFC3339 и отбрасывает время суток.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, Invalid(field, "is required")
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, Invalid(field, "must be YYYY-MM-DD")
	}
	return parsed, nil
}
