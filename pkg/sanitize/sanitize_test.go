package sanitize_test

import (
	"strings"
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/sanitize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_SizeLimit(t *testing.T) {
	limit := sanitize.DefaultMaxInputSize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sanitize.Text(strings.Repeat("a", tt.inputSize))
			if tt.wantErr {
				assert.ErrorIs(t, err, sanitize.ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestText_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "I feel calm today", "I feel calm today"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitize.Text(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestText_EnvOverride(t *testing.T) {
	t.Setenv(sanitize.EnvMaxInputSize, "10")

	_, err := sanitize.Text("12345678901")
	assert.Error(t, err)

	_, err = sanitize.Text("12345")
	assert.NoError(t, err)
}

func TestText_InvalidUTF8(t *testing.T) {
	_, err := sanitize.Text("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98")
	assert.ErrorIs(t, err, sanitize.ErrInvalidUTF8)
}

func TestCommand(t *testing.T) {
	cmd, err := sanitize.Command(domain.Command{
		Event: domain.EventSelect,
		Field: " notes\x00 ",
		Value: []any{"work\x1b", 3, true},
	})
	require.NoError(t, err)
	assert.Equal(t, "notes", cmd.Field)
	assert.Equal(t, []any{"work", 3, true}, cmd.Value)

	t.Setenv(sanitize.EnvMaxInputSize, "4")
	_, err = sanitize.Command(domain.Command{Event: domain.EventSelect, Field: "f", Value: "too long"})
	assert.ErrorIs(t, err, sanitize.ErrInputTooLarge)
}
