// Package dateutil formats the publication date shown on title slides.
//
// Formats use tokens rather than Go layouts: YYYY, YY, MMMM, MMM, MM, M, DD, D.
// Text inside brackets is kept literally, so "[Published] D MMMM YYYY" works.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxDateFormatLength limits format string length to prevent abuse.
const MaxDateFormatLength = 50

// DefaultDateFormat is used when "auto" is specified without a format.
const DefaultDateFormat = "YYYY-MM-DD"

// Ordered by length descending for greedy matching.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// Presets are named shortcuts accepted wherever a format is.
var Presets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "MMMM D, YYYY",
}

// inputLayouts are the frontmatter date shapes we know how to reformat.
var inputLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDateFormat converts a token format (or preset name) to a Go layout.
// Returns ErrInvalidDateFormat if the format is empty, too long, or has an
// unclosed bracket.
func ParseDateFormat(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}
	if preset, ok := Presets[strings.ToLower(format)]; ok {
		format = preset
	}

	var b strings.Builder
	b.Grow(len(format) + 10)

	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i+1:], ']')
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			b.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, t := range dateTokens {
			if strings.HasPrefix(format[i:], t.token) {
				b.WriteString(t.goFmt)
				i += len(t.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(format[i])
			i++
		}
	}

	return b.String(), nil
}

// FormatDate renders a frontmatter date for display.
//
//   - "auto" or "auto:FORMAT" resolves to now, formatted.
//   - a recognised date is reformatted when format is set.
//   - anything else, including "Spring 2024", is returned unchanged.
//
// An empty raw value stays empty. now is injected for tests.
func FormatDate(raw, format string, now time.Time) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "auto") {
		return resolveAuto(raw, format, now)
	}

	if format == "" {
		return raw, nil
	}
	layout, err := ParseDateFormat(format)
	if err != nil {
		return "", err
	}
	for _, in := range inputLayouts {
		if t, err := time.Parse(in, raw); err == nil {
			return t.Format(layout), nil
		}
	}
	return raw, nil
}

func resolveAuto(raw, fallbackFormat string, now time.Time) (string, error) {
	format := fallbackFormat
	switch {
	case len(raw) == len("auto"):
	case strings.HasPrefix(strings.ToLower(raw), "auto:"):
		format = raw[len("auto:"):]
		if format == "" {
			return "", fmt.Errorf("%w: format cannot be empty after \"auto:\"", ErrInvalidDateFormat)
		}
	default:
		return "", fmt.Errorf("%w: invalid auto syntax %q, use \"auto\" or \"auto:FORMAT\"", ErrInvalidDateFormat, raw)
	}
	if format == "" {
		format = DefaultDateFormat
	}

	layout, err := ParseDateFormat(format)
	if err != nil {
		return "", err
	}
	return now.Format(layout), nil
}
