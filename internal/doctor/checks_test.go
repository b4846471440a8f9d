package doctor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status   CheckStatus
		expected string
	}{
		{StatusPass, "pass"},
		{StatusWarn, "warn"},
		{StatusFail, "fail"},
		{CheckStatus(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.status.String())
		})
	}
}

func TestCheckResult_JSONStatus(t *testing.T) {
	data, err := json.Marshal(CheckResult{Name: "cpu", Status: StatusWarn})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"warn"`)
}

// mockCheck is a test implementation of Check.
type mockCheck struct {
	name     string
	category string
	result   CheckResult
}

func (m *mockCheck) Name() string                    { return m.name }
func (m *mockCheck) Category() string                { return m.category }
func (m *mockCheck) Run(context.Context) CheckResult { return m.result }

func TestRunAll(t *testing.T) {
	checks := []Check{
		&mockCheck{name: "a", result: CheckResult{Name: "a", Status: StatusPass}},
		&mockCheck{name: "b", result: CheckResult{Name: "b", Status: StatusFail}},
		&mockCheck{name: "c", result: CheckResult{Name: "c", Status: StatusWarn}},
	}

	for _, run := range []func(context.Context, []Check) []CheckResult{RunAll, RunAllParallel} {
		results := run(context.Background(), checks)
		require.Len(t, results, 3)
		assert.Equal(t, "a", results[0].Name)
		assert.Equal(t, "b", results[1].Name)
		assert.Equal(t, "c", results[2].Name)
	}
}

func TestSummaryHelpers(t *testing.T) {
	pass := []CheckResult{{Status: StatusPass}, {Status: StatusPass}}
	assert.False(t, HasIssues(pass))
	assert.False(t, HasFailures(pass))
	assert.Equal(t, "Everything looks good", Summary(pass))

	mixed := []CheckResult{{Status: StatusPass}, {Status: StatusWarn}, {Status: StatusFail}}
	assert.True(t, HasIssues(mixed))
	assert.True(t, HasFailures(mixed))
	assert.Equal(t, "2 issues found", Summary(mixed))

	counts := CountByStatus(mixed)
	assert.Equal(t, 1, counts[StatusWarn])

	assert.Equal(t, "1 issue found", Summary([]CheckResult{{Status: StatusWarn}}))
	assert.False(t, HasFailures([]CheckResult{{Status: StatusWarn}}))
}
