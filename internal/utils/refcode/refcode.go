// Package refcode formats human-readable reference codes of the form
// PREFIX-YYYYMMDD-NNN. The sequence comes from a per-prefix, per-day counter
// kept by the store, so codes are unique without relying on randomness.
package refcode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dayLayout = "20060102"

var pattern = regexp.MustCompile(`^([A-Z0-9]+)-(\d{8})-(\d{3,})$`)

// DayKey returns the date segment for t, taken in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// Format builds the code for the seq-th reference of prefix on day.
// Sequences above 999 simply widen the suffix.
func Format(prefix string, day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", strings.ToUpper(prefix), DayKey(day), seq)
}

// Code is a parsed reference code.
type Code struct {
	Prefix string
	Day    time.Time
	Seq    int64
}

// Parse splits a reference code into its parts.
func Parse(code string) (Code, error) {
	m := pattern.FindStringSubmatch(code)
	if m == nil {
		return Code{}, fmt.Errorf("invalid reference code %q", code)
	}
	day, err := time.Parse(dayLayout, m[2])
	if err != nil {
		return Code{}, fmt.Errorf("invalid date in reference code %q: %w", code, err)
	}
	seq, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return Code{}, fmt.Errorf("invalid sequence in reference code %q: %w", code, err)
	}
	return Code{Prefix: m[1], Day: day, Seq: seq}, nil
}
