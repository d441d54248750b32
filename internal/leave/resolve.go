package leave

import (
	"fmt"
	"math"
	"time"

	"github.com/mmeshcher/dealer-backoffice/internal/validation"
)

const maxDurationValue = math.MaxInt32 / 60

// Request описывает заявку на отсутствие.
type Request struct {
	Kind      RequestKind
	StartDate time.Time
	// StartTime обязателен только для почасового отпрашивания.
	StartTime *TimeOfDay
	// DurationValue измеряется в часах для отпрашивания и в днях для отпуска.
	DurationValue float64
}

// Resolution содержит вычисленное окончание заявки. Для отпрашивания заполняется
// только EndTime, для отпуска только EndDate.
type Resolution struct {
	EndDate *time.Time
	EndTime *TimeOfDay
}

// ResolveEnd вычисляет окончание заявки.
//
// Для отпрашивания время окончания берётся по модулю суток: переход через полночь
// никак не отмечается, дата окончания не вычисляется.
// Для отпуска диапазон включительный: однодневный отпуск начинается и заканчивается в один день.
func ResolveEnd(r Request) (Resolution, error) {
	if !r.Kind.Valid() {
		return Resolution{}, fmt.Errorf("%w: %q", validation.ErrUnsupportedRequestKind, r.Kind)
	}
	if err := validation.Positive("durationValue", r.DurationValue); err != nil {
		return Resolution{}, err
	}
	if r.DurationValue > maxDurationValue {
		return Resolution{}, validation.Invalid("durationValue", "is too large")
	}

	switch r.Kind {
	case KindHourlyPermission:
		return resolveHourly(r)
	default:
		return resolveMultiDay(r)
	}
}

func resolveHourly(r Request) (Resolution, error) {
	if r.StartTime == nil {
		return Resolution{}, validation.Invalid("startTime", "is required for hourly permission")
	}

	total := int(*r.StartTime) + int(math.Round(r.DurationValue*60))
	hours := (total / 60) % 24
	minutes := total % 60
	end := TimeOfDay(hours*60 + minutes)

	return Resolution{EndTime: &end}, nil
}

func resolveMultiDay(r Request) (Resolution, error) {
	if r.StartDate.IsZero() {
		return Resolution{}, validation.Invalid("startDate", "is required")
	}
	if r.DurationValue != math.Trunc(r.DurationValue) {
		return Resolution{}, validation.Invalid("durationValue", "must be a whole number of days")
	}

	end := r.StartDate.AddDate(0, 0, int(r.DurationValue)-1)
	return Resolution{EndDate: &end}, nil
}
