package leave

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmeshcher/dealer-backoffice/internal/validation"
)

// TimeOfDay хранит время суток в минутах от полуночи.
type TimeOfDay int

// ParseTimeOfDay разбирает строку вида HH:MM.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, validation.Invalid("startTime", "must be HH:MM")
	}

	if !isDigits(parts[0]) {
		return 0, validation.Invalid("startTime", "has invalid hours")
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours > 23 {
		return 0, validation.Invalid("startTime", "has invalid hours")
	}
	if len(parts[1]) != 2 || !isDigits(parts[1]) {
		return 0, validation.Invalid("startTime", "has invalid minutes")
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes > 59 {
		return 0, validation.Invalid("startTime", "has invalid minutes")
	}

	return TimeOfDay(hours*60 + minutes), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// String форматирует время как HH:MM с ведущими нулями.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}
