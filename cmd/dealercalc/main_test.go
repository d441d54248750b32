package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/dealer-backoffice/internal/validation"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestBreakdownCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantJSON string
	}{
		{
			name:     "exclusive with plate fee",
			args:     []string{"breakdown", "--price", "100000", "--add-on", "900"},
			wantJSON: `{"basePrice":100000,"taxAmount":15000,"nonTaxableAddOn":900,"grandTotal":115900,"taxRatePercent":15}`,
		},
		{
			name:     "inclusive",
			args:     []string{"breakdown", "--price", "115000", "--inclusive"},
			wantJSON: `{"basePrice":100000,"taxAmount":15000,"nonTaxableAddOn":0,"grandTotal":115000,"taxRatePercent":15}`,
		},
		{
			name:     "zero rate",
			args:     []string{"breakdown", "--price", "5000", "--rate", "0"},
			wantJSON: `{"basePrice":5000,"taxAmount":0,"nonTaxableAddOn":0,"grandTotal":5000,"taxRatePercent":0}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantJSON, out)
		})
	}
}

func TestBreakdownCommand_InvalidPrice(t *testing.T) {
	_, err := execute(t, "breakdown", "--price", "-10")
	require.Error(t, err)
	assert.True(t, errors.Is(err, validation.ErrInvalidInput))
}

func TestLeaveEndCommand(t *testing.T) {
	out, err := execute(t, "leave-end", "--kind", "hourlyPermission", "--start-date", "2025-01-10", "--start-time", "22:30", "--duration", "3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"endTime":"01:30"}`, out)

	out, err = execute(t, "leave-end", "--start-date", "2025-01-10", "--duration", "5")
	require.NoError(t, err)
	assert.JSONEq(t, `{"endDate":"2025-01-14"}`, out)

	_, err = execute(t, "leave-end", "--kind", "sabbatical", "--start-date", "2025-01-10", "--duration", "5")
	assert.ErrorIs(t, err, validation.ErrUnsupportedRequestKind)
}

func TestProgressCommand(t *testing.T) {
	out, err := execute(t, "progress", "--worked", "6", "--expected", "8", "--allowance", "2")
	require.NoError(t, err)
	assert.JSONEq(t, `{"percentage":100,"effectiveExpectedHours":6}`, out)

	out, err = execute(t, "progress", "--worked", "3")
	require.NoError(t, err)
	assert.JSONEq(t, `{"percentage":37.5,"effectiveExpectedHours":8}`, out)

	_, err = execute(t, "progress", "--worked", "3", "--expected", "0")
	assert.ErrorIs(t, err, validation.ErrInvalidInput)
}

func TestMissingRequiredFlag(t *testing.T) {
	_, err := execute(t, "breakdown")
	assert.Error(t, err)
}
