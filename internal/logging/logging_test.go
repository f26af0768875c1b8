package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/gi8lino/jiraas/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	t.Run("json format", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := logging.SetupLogger(logging.LogFormatJSON, false, &buf)
		logger.Info("hello", "issue", "DEMO-1")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "hello", rec["msg"])
		assert.Equal(t, "DEMO-1", rec["issue"])
	})

	t.Run("text format without color for buffers", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := logging.SetupLogger(logging.LogFormatText, false, &buf)
		logger.Info("hello", "issue", "DEMO-1")

		assert.Contains(t, buf.String(), "hello")
		assert.Contains(t, buf.String(), "issue=DEMO-1")
		assert.NotContains(t, buf.String(), "\x1b[")
	})

	t.Run("debug level gated", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logging.SetupLogger(logging.LogFormatJSON, false, &buf).Debug("hidden")
		assert.Empty(t, buf.String())

		logging.SetupLogger(logging.LogFormatJSON, true, &buf).Debug("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("discard", func(t *testing.T) {
		t.Parallel()
		logging.Discard().Error("nothing")
	})
}
