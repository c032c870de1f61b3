package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	t.Run("will log json in production", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Options{Level: "DEBUG", Environment: "production", Output: &buf})
		assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

		buf.Reset()
		Component("scheduler").WithField("lesson_id", 7).Info("reminder sent")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "scheduler", entry["component"])
		assert.Equal(t, "reminder sent", entry["msg"])
		assert.EqualValues(t, 7, entry["lesson_id"])
	})

	t.Run("will log text in development", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Options{Level: "warn", Environment: "development", Output: &buf})
		assert.Equal(t, logrus.WarnLevel, Log.GetLevel())

		buf.Reset()
		Log.Info("hidden")
		Log.Warn("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.True(t, strings.Contains(buf.String(), "shown"))
	})

	t.Run("will fall back to info for an unknown level", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Options{Level: "loud", Output: &buf})
		assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
		assert.Contains(t, buf.String(), "Invalid log level")
	})
}
