// Package attendance рассчитывает процент выполнения рабочей смены с учётом
// согласованного раннего ухода.
package attendance

import (
	"math"

	"github.com/mmeshcher/dealer-backoffice/internal/validation"
)

// Progress содержит результат расчёта. Percentage находится в диапазоне [0, 100].
type Progress struct {
	Percentage             float64
	EffectiveExpectedHours float64
}

// ComputeProgress вычисляет процент выполнения смены. Ожидаемые часы уменьшаются
// на согласованный ранний уход; если после этого ожидать нечего, смена считается выполненной.
func ComputeProgress(hoursWorked, expectedHours, earlyDepartureAllowanceHours float64) (Progress, error) {
	if err := validation.NonNegative("hoursWorked", hoursWorked); err != nil {
		return Progress{}, err
	}
	if err := validation.Positive("expectedHours", expectedHours); err != nil {
		return Progress{}, err
	}
	if err := validation.NonNegative("earlyDepartureAllowanceHours", earlyDepartureAllowanceHours); err != nil {
		return Progress{}, err
	}
	if earlyDepartureAllowanceHours > expectedHours {
		return Progress{}, validation.Invalid("earlyDepartureAllowanceHours", "exceeds expectedHours")
	}

	effective := math.Max(0, expectedHours-earlyDepartureAllowanceHours)
	if effective == 0 {
		return Progress{Percentage: 100}, nil
	}

	pct := math.Min(100, hoursWorked/effective*100)
	return Progress{
		Percentage:             math.Max(0, pct),
		EffectiveExpectedHours: effective,
	}, nil
}

// Rounded возвращает копию с округлением до двух знаков.
func (p Progress) Rounded() Progress {
	return Progress{
		Percentage:             round2(p.Percentage),
		EffectiveExpectedHours: round2(p.EffectiveExpectedHours),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
