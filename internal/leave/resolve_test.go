package leave

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/dealer-backoffice/internal/validation"
)

func mustTime(t *testing.T, s string) *TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(s)
	require.NoError(t, err)
	return &tod
}

func TestResolveEnd_Hourly(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		startTime string
		duration  float64
		want      string
	}{
		{name: "within the day", startTime: "09:15", duration: 2, want: "11:15"},
		{name: "fractional hours", startTime: "13:00", duration: 1.5, want: "14:30"},
		{name: "wraps past midnight silently", startTime: "22:30", duration: 3, want: "01:30"},
		{name: "ends exactly at midnight", startTime: "23:00", duration: 1, want: "00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ResolveEnd(Request{
				Kind:          KindHourlyPermission,
				StartDate:     start,
				StartTime:     mustTime(t, tt.startTime),
				DurationValue: tt.duration,
			})
			require.NoError(t, err)
			require.NotNil(t, res.EndTime)
			assert.Nil(t, res.EndDate, "no date rollover is reported for hourly permissions")
			assert.Equal(t, tt.want, res.EndTime.String())
		})
	}
}

func TestResolveEnd_MultiDayInclusive(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		days float64
		want string
	}{
		{days: 1, want: "2025-01-10"},
		{days: 5, want: "2025-01-14"},
		{days: 30, want: "2025-02-08"},
	}

	for _, tt := range tests {
		res, err := ResolveEnd(Request{
			Kind:          KindMultiDayLeave,
			StartDate:     start,
			DurationValue: tt.days,
		})
		require.NoError(t, err)
		require.NotNil(t, res.EndDate)
		assert.Nil(t, res.EndTime)
		assert.Equal(t, tt.want, res.EndDate.Format(validation.DateLayout))
	}
}

func TestResolveEnd_InvalidDuration(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	for _, kind := range []RequestKind{KindHourlyPermission, KindMultiDayLeave} {
		for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
			_, err := ResolveEnd(Request{
				Kind:          kind,
				StartDate:     start,
				StartTime:     mustTime(t, "08:00"),
				DurationValue: d,
			})
			if !errors.Is(err, validation.ErrInvalidInput) {
				t.Fatalf("kind %s duration %v: expected ErrInvalidInput, got %v", kind, d, err)
			}
		}
	}
}

func TestResolveEnd_MissingFields(t *testing.T) {
	_, err := ResolveEnd(Request{Kind: KindHourlyPermission, DurationValue: 2})
	assert.True(t, errors.Is(err, validation.ErrInvalidInput), "missing startTime: %v", err)

	_, err = ResolveEnd(Request{Kind: KindMultiDayLeave, DurationValue: 2})
	assert.True(t, errors.Is(err, validation.ErrInvalidInput), "missing startDate: %v", err)

	_, err = ResolveEnd(Request{
		Kind:          KindMultiDayLeave,
		StartDate:     time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		DurationValue: 2.5,
	})
	assert.True(t, errors.Is(err, validation.ErrInvalidInput), "fractional days: %v", err)
}

func TestResolveEnd_UnsupportedKind(t *testing.T) {
	_, err := ResolveEnd(Request{Kind: "sabbatical", DurationValue: 1})
	assert.True(t, errors.Is(err, validation.ErrUnsupportedRequestKind), "got %v", err)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want RequestKind
	}{
		{in: "hourlyPermission", want: KindHourlyPermission},
		{in: "multiDayLeave", want: KindMultiDayLeave},
		{in: "استئذان", want: KindHourlyPermission},
		{in: " إجازة ", want: KindMultiDayLeave},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseKind("vacation")
	assert.True(t, errors.Is(err, validation.ErrUnsupportedRequestKind))
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("7:05")
	require.NoError(t, err)
	assert.Equal(t, "07:05", tod.String())

	for _, bad := range []string{"", "24:00", "12:60", "12:5", "noon", "12:00:00", "+7:05", "-0:30", "07:+5", "7: 5"} {
		_, err := ParseTimeOfDay(bad)
		assert.Truef(t, errors.Is(err, validation.ErrInvalidInput), "%q: got %v", bad, err)
	}
}

func TestRequestInput(t *testing.T) {
	duration := 3.0
	req, err := RequestInput{
		RequestKind:   "استئذان",
		StartDate:     "2025-01-10",
		StartTime:     "22:30",
		DurationValue: &duration,
	}.Request()
	require.NoError(t, err)

	res, err := ResolveEnd(req)
	require.NoError(t, err)
	assert.Equal(t, ResolutionOutput{EndTime: "01:30"}, NewResolutionOutput(res))
	assert.Equal(t, KindHourlyPermission, req.Kind)

	_, err = RequestInput{RequestKind: "multiDayLeave", StartDate: "2025-01-10"}.Request()
	assert.True(t, errors.Is(err, validation.ErrInvalidInput), "missing duration: %v", err)

	_, err = RequestInput{RequestKind: "multiDayLeave", StartDate: "10/01/2025", DurationValue: &duration}.Request()
	assert.True(t, errors.Is(err, validation.ErrInvalidInput), "bad date: %v", err)
}
