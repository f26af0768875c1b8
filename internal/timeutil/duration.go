package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Jira time tracking defaults: a working day is 8h and a working week 5d.
const (
	HoursPerDay      = 8
	DaysPerWeek      = 5
	SecondsPerMinute = 60
	SecondsPerHour   = 60 * SecondsPerMinute
	SecondsPerDay    = HoursPerDay * SecondsPerHour
	SecondsPerWeek   = DaysPerWeek * SecondsPerDay
)

var (
	durationRe  = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*([wdhm])$`)
	componentRe = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*[wdhm]`)
	timeFormats = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?\s*[wdhm]\s*)+$`)
)

var unitSeconds = map[string]float64{
	"w": SecondsPerWeek,
	"d": SecondsPerDay,
	"h": SecondsPerHour,
	"m": SecondsPerMinute,
}

// ValidateTimeFormat reports whether s is a Jira duration like "2h 30m".
func ValidateTimeFormat(s string) bool {
	return timeFormats.MatchString(s)
}

// ParseDuration converts a Jira duration ("1w 2d 3h 30m") into seconds.
// Every component needs a unit; a bare number is rejected.
func ParseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("duration cannot be empty")
	}
	if !ValidateTimeFormat(s) {
		return 0, fmt.Errorf("invalid duration %q: use a format like '2h 30m' or '1d'", s)
	}

	// split "1w2d" as well as "1w 2d"
	parts := componentRe.FindAllString(s, -1)
	var total float64
	for _, p := range parts {
		m := durationRe.FindStringSubmatch(strings.TrimSpace(p))
		if m == nil {
			return 0, fmt.Errorf("invalid duration component %q", p)
		}
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in %q: %w", p, err)
		}
		total += n * unitSeconds[strings.ToLower(m[2])]
	}
	return int(total), nil
}

// FormatSeconds renders seconds the way Jira does: "1w 2d 3h 30m".
// Zero renders as "0m".
func FormatSeconds(seconds int) string {
	if seconds <= 0 {
		return "0m"
	}
	var parts []string
	for _, u := range []struct {
		suffix string
		size   int
	}{
		{"w", SecondsPerWeek},
		{"d", SecondsPerDay},
		{"h", SecondsPerHour},
		{"m", SecondsPerMinute},
	} {
		if n := seconds / u.size; n > 0 {
			parts = append(parts, strconv.Itoa(n)+u.suffix)
			seconds %= u.size
		}
	}
	if len(parts) == 0 {
		return "0m"
	}
	return strings.Join(parts, " ")
}

// FormatSecondsLong renders seconds with spelled out units: "2 hours, 30 minutes".
func FormatSecondsLong(seconds int) string {
	if seconds <= 0 {
		return "0 minutes"
	}
	var parts []string
	for _, u := range []struct {
		name string
		size int
	}{
		{"week", SecondsPerWeek},
		{"day", SecondsPerDay},
		{"hour", SecondsPerHour},
		{"minute", SecondsPerMinute},
	} {
		n := seconds / u.size
		if n == 0 {
			continue
		}
		seconds %= u.size
		name := u.name
		if n != 1 {
			name += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, name))
	}
	if len(parts) == 0 {
		return "0 minutes"
	}
	return strings.Join(parts, ", ")
}

// CalculateProgress returns the percentage of spent over spent+remaining,
// clamped to 0..100.
func CalculateProgress(spentSeconds, remainingSeconds int) int {
	total := spentSeconds + remainingSeconds
	if total <= 0 || spentSeconds <= 0 {
		return 0
	}
	return min(spentSeconds*100/total, 100)
}

// FormatProgressBar renders a fixed width bar like "[████░░░░░░] 40%".
func FormatProgressBar(percent, width int) string {
	if width <= 0 {
		width = 20
	}
	percent = min(max(percent, 0), 100)
	filled := percent * width / 100
	return fmt.Sprintf("[%s%s] %d%%", strings.Repeat("█", filled), strings.Repeat("░", width-filled), percent)
}
