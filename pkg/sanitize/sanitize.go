// Package sanitize cleans user-supplied values before they reach a wizard.
// Network adapters run every command through it; the terminal runner does too.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/stepwise/pkg/domain"
)

var (
	// DefaultMaxInputSize is 4KB.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides the default limit.
	EnvMaxInputSize = "STEPWISE_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Text enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
// Oversized input is rejected, never truncated.
func Text(input string) (string, error) {
	limit := MaxInputSize()
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// Command sanitizes the field name and every string inside the value.
// Numbers and booleans pass through.
func Command(cmd domain.Command) (domain.Command, error) {
	field, err := Text(cmd.Field)
	if err != nil {
		return cmd, fmt.Errorf("field: %w", err)
	}
	cmd.Field = strings.TrimSpace(field)

	value, err := sanitizeValue(cmd.Value)
	if err != nil {
		return cmd, fmt.Errorf("value of %q: %w", cmd.Field, err)
	}
	cmd.Value = value
	return cmd, nil
}

func sanitizeValue(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return Text(val)
	case []string:
		out := make([]string, len(val))
		for i, s := range val {
			clean, err := Text(s)
			if err != nil {
				return nil, err
			}
			out[i] = clean
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			clean, err := sanitizeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = clean
		}
		return out, nil
	default:
		return v, nil
	}
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

// MaxInputSize returns the limit in bytes, honoring EnvMaxInputSize.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
