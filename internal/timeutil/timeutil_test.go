package timeutil_test

import (
	"testing"
	"time"

	"github.com/gi8lino/jiraas/internal/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	t.Parallel()

	valid := map[string]int{
		"30m":          1800,
		"2h":           7200,
		"1d":           28800,
		"1w":           144000,
		"1w 2d 3h 30m": 144000 + 57600 + 10800 + 1800,
		"2h30m":        9000,
		"1.5h":         5400,
		"  4H ":        14400,
	}
	for in, want := range valid {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			got, err := timeutil.ParseDuration(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	for _, in := range []string{"", "30", "abc", "2x", "h"} {
		t.Run("invalid "+in, func(t *testing.T) {
			t.Parallel()
			_, err := timeutil.ParseDuration(in)
			assert.Error(t, err)
		})
	}
}

func TestValidateTimeFormat(t *testing.T) {
	t.Parallel()

	assert.True(t, timeutil.ValidateTimeFormat("2h 30m"))
	assert.True(t, timeutil.ValidateTimeFormat("1d"))
	assert.False(t, timeutil.ValidateTimeFormat("2 hours"))
	assert.False(t, timeutil.ValidateTimeFormat("120"))
}

func TestFormatSeconds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0m", timeutil.FormatSeconds(0))
	assert.Equal(t, "0m", timeutil.FormatSeconds(30))
	assert.Equal(t, "30m", timeutil.FormatSeconds(1800))
	assert.Equal(t, "2h 30m", timeutil.FormatSeconds(9000))
	assert.Equal(t, "1d", timeutil.FormatSeconds(28800))
	assert.Equal(t, "1w 2d 3h 30m", timeutil.FormatSeconds(214200))

	assert.Equal(t, "0 minutes", timeutil.FormatSecondsLong(0))
	assert.Equal(t, "1 hour, 1 minute", timeutil.FormatSecondsLong(3660))
	assert.Equal(t, "2 days", timeutil.FormatSecondsLong(57600))
}

func TestProgress(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, timeutil.CalculateProgress(0, 0))
	assert.Equal(t, 50, timeutil.CalculateProgress(3600, 3600))
	assert.Equal(t, 100, timeutil.CalculateProgress(3600, 0))

	assert.Equal(t, "[█████░░░░░] 50%", timeutil.FormatProgressBar(50, 10))
	assert.Equal(t, "[░░░░░░░░░░] 0%", timeutil.FormatProgressBar(-5, 10))
	assert.Equal(t, "[██████████] 100%", timeutil.FormatProgressBar(150, 10))
}

func TestParseRelativeDate(t *testing.T) {
	t.Parallel()

	// Wednesday
	now := time.Date(2025, 1, 8, 15, 30, 0, 0, time.UTC)

	cases := map[string]string{
		"today":        "2025-01-08",
		"yesterday":    "2025-01-07",
		"tomorrow":     "2025-01-09",
		"-2d":          "2025-01-06",
		"+1w":          "2025-01-15",
		"-1m":          "2024-12-08",
		"startOfWeek":  "2025-01-06",
		"endOfWeek":    "2025-01-12",
		"startOfMonth": "2025-01-01",
		"endOfMonth":   "2025-01-31",
		"2024-05-01":   "2024-05-01",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			got, err := timeutil.ParseDateToISO(in, now)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		_, err := timeutil.ParseRelativeDate("next tuesday", now)
		assert.Error(t, err)
		_, err = timeutil.ParseRelativeDate("", now)
		assert.Error(t, err)
	})

	t.Run("hours keep time of day", func(t *testing.T) {
		t.Parallel()
		got, err := timeutil.ParseRelativeDate("-3h", now)
		require.NoError(t, err)
		assert.Equal(t, now.Add(-3*time.Hour), got)
	})
}

func TestJiraTimestamps(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)
	s := timeutil.FormatDatetimeForJira(ts)
	assert.Equal(t, "2025-01-08T10:00:00.000+0000", s)

	back, err := timeutil.ParseJiraTime(s)
	require.NoError(t, err)
	assert.True(t, ts.Equal(back))

	_, err = timeutil.ParseJiraTime("yesterday")
	assert.Error(t, err)
}
