package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// JiraDateTimeLayout is the timestamp layout the REST API expects for
// worklog "started" values.
const JiraDateTimeLayout = "2006-01-02T15:04:05.000-0700"

var relativeRe = regexp.MustCompile(`(?i)^([+-])(\d+)([dwmhy])$`)

var isoLayouts = []string{
	time.RFC3339,
	JiraDateTimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseRelativeDate resolves expressions like "today", "yesterday",
// "tomorrow", "-2d", "+1w", "startOfWeek", "startOfMonth" or an ISO date
// relative to now. Day-based results are truncated to midnight.
func ParseRelativeDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch strings.ToLower(s) {
	case "":
		return time.Time{}, fmt.Errorf("date cannot be empty")
	case "now":
		return now, nil
	case "today":
		return day, nil
	case "yesterday":
		return day.AddDate(0, 0, -1), nil
	case "tomorrow":
		return day.AddDate(0, 0, 1), nil
	case "startofweek":
		offset := (int(day.Weekday()) + 6) % 7 // Monday based
		return day.AddDate(0, 0, -offset), nil
	case "endofweek":
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, 6-offset), nil
	case "startofmonth":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	case "endofmonth":
		return time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()), nil
	}

	if m := relativeRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[2])
		if m[1] == "-" {
			n = -n
		}
		switch strings.ToLower(m[3]) {
		case "h":
			return now.Add(time.Duration(n) * time.Hour), nil
		case "d":
			return day.AddDate(0, 0, n), nil
		case "w":
			return day.AddDate(0, 0, 7*n), nil
		case "m":
			return day.AddDate(0, n, 0), nil
		case "y":
			return day.AddDate(n, 0, 0), nil
		}
	}

	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseDateToISO resolves s with ParseRelativeDate and returns YYYY-MM-DD.
func ParseDateToISO(s string, now time.Time) (string, error) {
	t, err := ParseRelativeDate(s, now)
	if err != nil {
		return "", err
	}
	return t.Format(time.DateOnly), nil
}

// FormatDatetimeForJira renders t in the layout used for worklog timestamps.
func FormatDatetimeForJira(t time.Time) string {
	return t.Format(JiraDateTimeLayout)
}

// ParseJiraTime parses timestamps returned by the API.
func ParseJiraTime(s string) (time.Time, error) {
	for _, layout := range []string{JiraDateTimeLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid Jira timestamp %q", s)
}
