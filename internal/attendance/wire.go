package attendance

import "github.com/mmeshcher/dealer-backoffice/internal/validation"

// ProgressInput описывает входные данные расчёта в JSON.
type ProgressInput struct {
	HoursWorked                  *float64 `json:"hoursWorked"`
	ExpectedHours                *float64 `json:"expectedHours"`
	EarlyDepartureAllowanceHours *float64 `json:"earlyDepartureAllowanceHours,omitempty"`
}

// ProgressOutput описывает результат в JSON, округлённый до двух знаков.
type ProgressOutput struct {
	Percentage             float64 `json:"percentage"`
	EffectiveExpectedHours float64 `json:"effectiveExpectedHours"`
}

// Compute проверяет входные данные и выполняет расчёт.
func (in ProgressInput) Compute() (ProgressOutput, error) {
	worked, err := validation.Required("hoursWorked", in.HoursWorked)
	if err != nil {
		return ProgressOutput{}, err
	}
	expected, err := validation.Required("expectedHours", in.ExpectedHours)
	if err != nil {
		return ProgressOutput{}, err
	}

	var allowance float64
	if in.EarlyDepartureAllowanceHours != nil {
		allowance = *in.EarlyDepartureAllowanceHours
	}

	p, err := ComputeProgress(worked, expected, allowance)
	if err != nil {
		return ProgressOutput{}, err
	}
	return NewProgressOutput(p), nil
}

// NewProgressOutput округляет результат для клиента.
func NewProgressOutput(p Progress) ProgressOutput {
	r := p.Rounded()
	return ProgressOutput{
		Percentage:             r.Percentage,
		EffectiveExpectedHours: r.EffectiveExpectedHours,
	}
}
