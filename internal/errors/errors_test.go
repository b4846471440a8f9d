package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodesUnique(t *testing.T) {
	codes := []string{ErrConfig, ErrProbe, ErrExec, ErrMetrics}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code)
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
		missing  []string
	}{
		{
			name:     "message only",
			err:      New(ErrConfig, "Config file is broken", ""),
			contains: []string{"✗ Config file is broken"},
		},
		{
			name: "with suggestion",
			err:  New(ErrConfig, "refresh must be positive", "Set refresh to something like 1s"),
			contains: []string{
				"✗ refresh must be positive",
				"  Set refresh to something like 1s",
			},
		},
		{
			name: "with cause and suggestion",
			err: WrapWithCode(fmt.Errorf("address already in use"), ErrMetrics,
				"Can't start metrics listener", "Pick another --metrics-listen address"),
			contains: []string{
				"✗ Can't start metrics listener",
				"  address already in use",
				"  Pick another --metrics-listen address",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.err.Error()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			assert.True(t, strings.HasPrefix(out, "✗ "))
		})
	}
}

func TestUnwrapAndIs(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := WrapWithCode(sentinel, ErrProbe, "probe failed", "")

	require.ErrorIs(t, err, sentinel)

	var tdErr *Error
	require.ErrorAs(t, fmt.Errorf("outer: %w", err), &tdErr)
	assert.Equal(t, ErrProbe, tdErr.Code)
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{"nil error", nil, ErrConfig, false},
		{"plain error", errors.New("x"), ErrConfig, false},
		{"matching code", New(ErrExec, "git failed", ""), ErrExec, true},
		{"other code", New(ErrExec, "git failed", ""), ErrConfig, false},
		{"wrapped", fmt.Errorf("ctx: %w", New(ErrMetrics, "bind", "")), ErrMetrics, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCode(tt.err, tt.code))
		})
	}
}
