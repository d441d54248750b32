package leave

import "github.com/mmeshcher/dealer-backoffice/internal/validation"

// RequestInput описывает заявку в JSON до валидации.
type RequestInput struct {
	RequestKind   string   `json:"requestKind"`
	StartDate     string   `json:"startDate"`
	StartTime     string   `json:"startTime,omitempty"`
	DurationValue *float64 `json:"durationValue"`
}

// Request проверяет входные данные и строит Request.
func (in RequestInput) Request() (Request, error) {
	kind, err := ParseKind(in.RequestKind)
	if err != nil {
		return Request{}, err
	}

	duration, err := validation.Required("durationValue", in.DurationValue)
	if err != nil {
		return Request{}, err
	}

	start, err := validation.ParseDate("startDate", in.StartDate)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		Kind:          kind,
		StartDate:     start,
		DurationValue: duration,
	}

	if in.StartTime != "" {
		tod, err := ParseTimeOfDay(in.StartTime)
		if err != nil {
			return Request{}, err
		}
		req.StartTime = &tod
	}

	return req, nil
}

// ResolutionOutput описывает окончание заявки в JSON.
type ResolutionOutput struct {
	EndDate string `json:"endDate,omitempty"`
	EndTime string `json:"endTime,omitempty"`
}

// NewResolutionOutput форматирует окончание заявки для клиента.
func NewResolutionOutput(res Resolution) ResolutionOutput {
	var out ResolutionOutput
	if res.EndDate != nil {
		out.EndDate = res.EndDate.Format(validation.DateLayout)
	}
	if res.EndTime != nil {
		out.EndTime = res.EndTime.String()
	}
	return out
}
